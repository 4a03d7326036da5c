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
	"sort"
	"strings"

	"github.com/watcha-fr/synapse-sub000/model/types"
)

// Calendar share state keys. Each key names the component kinds shared
// under it.
const (
	KeyEvents         = types.ComponentEvent
	KeyTodos          = types.ComponentTodo
	KeyEventsAndTodos = types.ComponentEvent + "_" + types.ComponentTodo
)

// ValidComponentsKey reports whether key is one of the calendar share state
// keys. Keys coming from requests must pass it before being deserialized.
func ValidComponentsKey(key string) bool {
	switch key {
	case KeyEvents, KeyTodos, KeyEventsAndTodos:
		return true
	}
	return false
}

// SerializeComponents panics unless components is exactly {VEVENT},
// {VTODO} or {VEVENT, VTODO}.
func SerializeComponents(components []string) string {
	set := make(map[string]struct{}, len(components))
	for _, c := range components {
		set[c] = struct{}{}
	}
	_, hasEvent := set[types.ComponentEvent]
	_, hasTodo := set[types.ComponentTodo]

	switch {
	case len(set) == 1 && hasEvent:
		return KeyEvents
	case len(set) == 1 && hasTodo:
		return KeyTodos
	case len(set) == 2 && hasEvent && hasTodo:
		return KeyEventsAndTodos
	}
	panic(fmt.Sprintf("binding: invalid calendar components %v", components))
}

// DeserializeComponents panics on an unknown key.
func DeserializeComponents(key string) []string {
	if !ValidComponentsKey(key) {
		panic(fmt.Sprintf("binding: invalid calendar components key %q", key))
	}
	return strings.Split(key, "_")
}

func DeserializeManyComponents(keys []string) []string {
	set := make(map[string]struct{})
	for _, key := range keys {
		for _, c := range DeserializeComponents(key) {
			set[c] = struct{}{}
		}
	}
	components := make([]string, 0, len(set))
	for c := range set {
		components = append(components, c)
	}
	sort.Strings(components)
	return components
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
