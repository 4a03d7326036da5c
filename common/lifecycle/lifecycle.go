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

package lifecycle

import (
	"errors"
	"sync"

	"go.uber.org/multierr"
)

type Callback func() error

type phase struct {
	names map[string]bool
	cbs   []Callback
}

var (
	mu             sync.Mutex
	afterStartup   = &phase{names: make(map[string]bool)}
	beforeShutdown = &phase{names: make(map[string]bool)}
)

func (p *phase) register(kind, name string, cb Callback) error {
	mu.Lock()
	defer mu.Unlock()
	if p.names[name] {
		return errors.New("lifecycle duplicate register " + kind + " " + name)
	}
	p.names[name] = true
	p.cbs = append(p.cbs, cb)
	return nil
}

func (p *phase) callbacks() []Callback {
	mu.Lock()
	defer mu.Unlock()
	return append([]Callback(nil), p.cbs...)
}

func AfterStartup(name string, cb Callback) error {
	return afterStartup.register("AfterStartup", name, cb)
}

func BeforeShutdown(name string, cb Callback) error {
	return beforeShutdown.register("BeforeShutdown", name, cb)
}

// RunAfterStartup stops at the first failing callback.
func RunAfterStartup() error {
	for _, cb := range afterStartup.callbacks() {
		if err := cb(); err != nil {
			return err
		}
	}
	return nil
}

// RunBeforeShutdown runs every callback, last registered first, and returns
// all their errors.
func RunBeforeShutdown() error {
	cbs := beforeShutdown.callbacks()
	var err error
	for i := len(cbs) - 1; i >= 0; i-- {
		err = multierr.Append(err, cbs[i]())
	}
	return err
}

func reset() {
	mu.Lock()
	defer mu.Unlock()
	afterStartup = &phase{names: make(map[string]bool)}
	beforeShutdown = &phase{names: make(map[string]bool)}
}
