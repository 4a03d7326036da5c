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
	"fmt"
	"unicode/utf8"

	"github.com/watcha-fr/synapse-sub000/model/types"
)

const (
	// groupIDPrefix keeps generated groups apart from groups created by hand
	// in nextcloud.
	groupIDPrefix         = "c4d96a06b7_"
	calendarGroupIDPrefix = groupIDPrefix + "cal_"
	// MaxGroupIDLength is the longest group id nextcloud accepts.
	MaxGroupIDLength  = 64
	DisplayNamePrefix = "[Watcha] "
	emptyRoomName     = "Empty Room"
)

// GroupID is the nextcloud group holding the members of a room bound to a
// folder.
func GroupID(roomID string) string {
	return truncate(groupIDPrefix+roomID, MaxGroupIDLength)
}

// CalendarGroupID is the nextcloud group the calendars of a room are shared
// with.
func CalendarGroupID(roomID string) string {
	return truncate(calendarGroupIDPrefix+roomID, MaxGroupIDLength)
}

// truncate cuts s to at most max bytes on a rune boundary.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// RoomName computes the name a client would show for the room: its explicit
// name, then its canonical alias, then a summary of its members.
func RoomName(state types.RoomState) string {
	if ev := state.Get(types.EventRoomName, ""); ev != nil {
		if name := ev.Get("name").String(); name != "" {
			return name
		}
	}
	if ev := state.Get(types.EventRoomCanonicalAlias, ""); ev != nil {
		if alias := ev.Get("alias").String(); alias != "" {
			return alias
		}
	}

	members := state.Members(types.MembershipJoin, types.MembershipInvite)
	names := make([]string, 0, 2)
	for i := 0; i < len(members) && i < 2; i++ {
		name := members[i].DisplayName
		if name == "" {
			name = members[i].UserID
		}
		names = append(names, name)
	}

	switch len(members) {
	case 0:
		return emptyRoomName
	case 1:
		return names[0]
	case 2:
		return fmt.Sprintf("%s and %s", names[0], names[1])
	default:
		return fmt.Sprintf("%s and %d others", names[0], len(members)-1)
	}
}

func GroupDisplayName(state types.RoomState) string {
	return DisplayNamePrefix + RoomName(state)
}
