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

package binding

import (
	"context"

	"github.com/watcha-fr/synapse-sub000/model/types"
)

// NextcloudAPI is implemented by *nextcloud.Client.
type NextcloudAPI interface {
	AddGroup(ctx context.Context, groupID, displayName string) error
	SetGroupDisplayName(ctx context.Context, groupID, displayName string) error
	DeleteGroup(ctx context.Context, groupID string) error
	AddUserToGroup(ctx context.Context, username, groupID string) error
	RemoveUserFromGroup(ctx context.Context, username, groupID string) error

	CreateShare(ctx context.Context, path, groupID string) (string, error)
	DeleteShare(ctx context.Context, shareID string) error
	RenameShare(ctx context.Context, shareID, label string) error

	ListCalendars(ctx context.Context, username string) ([]types.Calendar, error)
	GetCalendar(ctx context.Context, username, calendarID string) (*types.Calendar, error)
	CreateCalendar(ctx context.Context, displayName string, components []string) (string, error)
	DeleteCalendar(ctx context.Context, calendarID string) error
	ReorderCalendar(ctx context.Context, username, calendarID string, order int) error
	ShareCalendar(ctx context.Context, calendarID, groupID, displayName string) error
	RenameCalendarShare(ctx context.Context, calendarID, groupID, displayName string) error
	UnshareCalendar(ctx context.Context, calendarID, groupID string) error
}

// RoomAPI is the view of the homeserver the handler works with.
type RoomAPI interface {
	CurrentState(ctx context.Context, roomID string) (types.RoomState, error)
	// SendStateEvent sends the event on behalf of requester.
	SendStateEvent(ctx context.Context, requester *types.Requester, roomID, evType, stateKey string, content []byte) error
}

// UserDirectory returns nil, nil for users without an external account.
type UserDirectory interface {
	ExternalAccount(ctx context.Context, userID string) (*types.ExternalAccount, error)
}
