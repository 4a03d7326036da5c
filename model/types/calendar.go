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

// Calendar component kinds.
const (
	ComponentEvent = "VEVENT"
	ComponentTodo  = "VTODO"
)

// Calendar is a calendar of the file sharing service as seen by one user.
type Calendar struct {
	ID          string   `json:"id"`
	URI         string   `json:"uri,omitempty"`
	DisplayName string   `json:"displayname"`
	Components  []string `json:"components"`
	IsPersonal  bool     `json:"is_personal"`
	Order       int      `json:"order"`
	Color       string   `json:"color,omitempty"`
}

// CalendarShare is an active im.watcha.calendar_share state event.
type CalendarShare struct {
	StateKey   string
	CalendarID string
	IsPersonal bool
	Sender     string
}

// CalendarShares extracts the non empty calendar share events of state.
func (s RoomState) CalendarShares() []CalendarShare {
	var shares []CalendarShare
	for _, ev := range s.OfType(EventCalendarShare) {
		if ev.IsEmpty() {
			continue
		}
		id := ev.Get("id").String()
		if id == "" {
			continue
		}
		shares = append(shares, CalendarShare{
			StateKey:   ev.StateKey,
			CalendarID: id,
			IsPersonal: ev.Get("is_personal").Bool(),
			Sender:     ev.Sender,
		})
	}
	return shares
}
