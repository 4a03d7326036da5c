// Copyright (C) 2020 Finogeeks Co., Ltd
//
// This program is free software: you can redistribute it and/or  modify
// it under the terms of the GNU Affero General Public License, version 3,
// as published by the Free Software Foundation.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package types

// RoomBinding is the persisted association between a room and a folder of the
// file sharing service. A room without a row is unbound.
type RoomBinding struct {
	RoomID        string `json:"room_id"`
	DirectoryPath string `json:"directory_path"`
	ShareID       string `json:"share_id"`
}

// Requester is the authenticated chat user behind a request. AccessToken is
// kept so that state events can be sent on the user's behalf.
type Requester struct {
	UserID      string
	AccessToken string
}

// Membership states of a room member.
const (
	MembershipJoin   = "join"
	MembershipInvite = "invite"
	MembershipLeave  = "leave"
	MembershipBan    = "ban"
	MembershipKnock  = "knock"
)

// MembershipEvent is what the chat server reports when a member changes.
type MembershipEvent struct {
	UserID     string `json:"user_id"`
	RoomID     string `json:"room_id"`
	Membership string `json:"membership"`
}

// RoomNameEvent is what the chat server reports when a room is renamed.
type RoomNameEvent struct {
	RoomID string `json:"room_id"`
}
