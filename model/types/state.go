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
	"sort"

	"github.com/tidwall/gjson"
)

// Room state event types read or written by the service.
const (
	EventRoomName           = "m.room.name"
	EventRoomCanonicalAlias = "m.room.canonical_alias"
	EventRoomMember         = "m.room.member"
	EventCalendarShare      = "im.watcha.calendar_share"
	EventRoomSettings       = "im.vector.web.settings"
)

// StateEvent is a room state event, content kept as raw JSON.
type StateEvent struct {
	Type      string
	StateKey  string
	Sender    string
	Timestamp int64
	Content   []byte
}

// Get reads a field of the event content.
func (e *StateEvent) Get(path string) gjson.Result {
	return gjson.GetBytes(e.Content, path)
}

// IsEmpty is true for a "{}" (or missing) content, the way state is cleared.
func (e *StateEvent) IsEmpty() bool {
	content := gjson.ParseBytes(e.Content)
	if !content.IsObject() {
		return true
	}
	empty := true
	content.ForEach(func(_, _ gjson.Result) bool {
		empty = false
		return false
	})
	return empty
}

// RoomState is the current state of a room, indexed by type then state key.
type RoomState map[string]map[string]*StateEvent

// NewRoomState indexes events, later events of one (type, key) win.
func NewRoomState(events []*StateEvent) RoomState {
	state := make(RoomState)
	for _, ev := range events {
		state.Set(ev)
	}
	return state
}

func (s RoomState) Set(ev *StateEvent) {
	byKey, ok := s[ev.Type]
	if !ok {
		byKey = make(map[string]*StateEvent)
		s[ev.Type] = byKey
	}
	byKey[ev.StateKey] = ev
}

// Get returns the event for (evType, stateKey), nil when absent.
func (s RoomState) Get(evType, stateKey string) *StateEvent {
	return s[evType][stateKey]
}

// OfType returns every event of evType ordered by timestamp, oldest first.
func (s RoomState) OfType(evType string) []*StateEvent {
	events := make([]*StateEvent, 0, len(s[evType]))
	for _, ev := range s[evType] {
		events = append(events, ev)
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Timestamp == events[j].Timestamp {
			return events[i].StateKey < events[j].StateKey
		}
		return events[i].Timestamp < events[j].Timestamp
	})
	return events
}

// Member is a room member as found in its m.room.member event.
type Member struct {
	UserID      string
	DisplayName string
	Membership  string
	Timestamp   int64
}

// Members returns the members whose membership is one of memberships,
// oldest member event first.
func (s RoomState) Members(memberships ...string) []Member {
	var members []Member
	for _, ev := range s.OfType(EventRoomMember) {
		membership := ev.Get("membership").String()
		for _, m := range memberships {
			if m == membership {
				members = append(members, Member{
					UserID:      ev.StateKey,
					DisplayName: ev.Get("displayname").String(),
					Membership:  membership,
					Timestamp:   ev.Timestamp,
				})
				break
			}
		}
	}
	return members
}
