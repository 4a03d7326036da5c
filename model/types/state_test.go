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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func member(userID, membership, displayName string, ts int64) *StateEvent {
	content := `{"membership":"` + membership + `"`
	if displayName != "" {
		content += `,"displayname":"` + displayName + `"`
	}
	content += "}"
	return &StateEvent{Type: EventRoomMember, StateKey: userID, Sender: userID, Timestamp: ts, Content: []byte(content)}
}

func TestRoomStateMembers(t *testing.T) {
	state := NewRoomState([]*StateEvent{
		member("@carol:example.org", MembershipInvite, "", 30),
		member("@alice:example.org", MembershipJoin, "Alice", 10),
		member("@bob:example.org", MembershipLeave, "Bob", 20),
		member("@dave:example.org", MembershipJoin, "Dave", 5),
	})

	members := state.Members(MembershipJoin, MembershipInvite)
	if assert.Len(t, members, 3) {
		assert.Equal(t, "@dave:example.org", members[0].UserID)
		assert.Equal(t, "@alice:example.org", members[1].UserID)
		assert.Equal(t, "Alice", members[1].DisplayName)
		assert.Equal(t, "@carol:example.org", members[2].UserID)
		assert.Equal(t, MembershipInvite, members[2].Membership)
	}
}

func TestStateEventIsEmpty(t *testing.T) {
	assert.True(t, (&StateEvent{Content: []byte(`{}`)}).IsEmpty())
	assert.True(t, (&StateEvent{}).IsEmpty())
	assert.False(t, (&StateEvent{Content: []byte(`{"id":"1"}`)}).IsEmpty())
}

func TestCalendarShares(t *testing.T) {
	state := NewRoomState([]*StateEvent{
		{Type: EventCalendarShare, StateKey: "VEVENT", Sender: "@alice:example.org", Timestamp: 1,
			Content: []byte(`{"id":"12","is_personal":true}`)},
		{Type: EventCalendarShare, StateKey: "VTODO", Sender: "@bob:example.org", Timestamp: 2,
			Content: []byte(`{}`)},
	})

	shares := state.CalendarShares()
	assert.Equal(t, []CalendarShare{
		{StateKey: "VEVENT", CalendarID: "12", IsPersonal: true, Sender: "@alice:example.org"},
	}, shares)
}
