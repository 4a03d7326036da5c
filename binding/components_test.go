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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSerializeComponents(t *testing.T) {
	assert.Equal(t, "VEVENT", SerializeComponents([]string{"VEVENT"}))
	assert.Equal(t, "VTODO", SerializeComponents([]string{"VTODO"}))
	assert.Equal(t, "VEVENT_VTODO", SerializeComponents([]string{"VTODO", "VEVENT"}))
	assert.Equal(t, "VEVENT_VTODO", SerializeComponents([]string{"VEVENT", "VTODO", "VEVENT"}))

	for _, invalid := range [][]string{nil, {}, {"VJOURNAL"}, {"VEVENT", "VJOURNAL"}} {
		assert.Panics(t, func() { SerializeComponents(invalid) }, "%v", invalid)
	}
}

func TestDeserializeComponents(t *testing.T) {
	for _, key := range []string{KeyEvents, KeyTodos, KeyEventsAndTodos} {
		assert.Equal(t, key, SerializeComponents(DeserializeComponents(key)))
	}
	assert.Equal(t, []string{"VEVENT", "VTODO"}, DeserializeComponents(KeyEventsAndTodos))
	assert.Panics(t, func() { DeserializeComponents("VTODO_VEVENT") })
	assert.Panics(t, func() { DeserializeComponents("") })
}

func TestDeserializeManyComponents(t *testing.T) {
	assert.Equal(t, []string{}, DeserializeManyComponents(nil))
	assert.Equal(t, []string{"VEVENT", "VTODO"}, DeserializeManyComponents([]string{KeyTodos, KeyEvents}))
	assert.Equal(t, []string{"VTODO"}, DeserializeManyComponents([]string{KeyTodos, KeyTodos}))
	assert.Panics(t, func() { DeserializeManyComponents([]string{KeyEvents, "bogus"}) })
}

func TestComponentsKey(t *testing.T) {
	assert.Equal(t, KeyTodos, componentsKey([]string{"VTODO"}))
	assert.Equal(t, "", componentsKey([]string{"VJOURNAL"}))
}
