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

package remote

import "errors"

// Policy declares which outcomes of a remote call count as success at one
// call site, e.g. Conflict when creating a group that may already exist.
type Policy struct {
	Expected []Outcome
}

// Expect builds a Policy tolerating the given outcomes.
func Expect(outcomes ...Outcome) Policy {
	return Policy{Expected: outcomes}
}

// Strict tolerates nothing but success.
var Strict = Policy{}

// Tolerates is true for nil and for a RemoteError whose outcome is expected.
// A TransportError is never tolerated.
func (p Policy) Tolerates(err error) bool {
	if err == nil {
		return true
	}
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		return false
	}
	for _, expected := range p.Expected {
		if expected == remoteErr.Outcome {
			return true
		}
	}
	return false
}

// Apply returns nil when err is tolerated, err otherwise.
func (p Policy) Apply(err error) error {
	if p.Tolerates(err) {
		return nil
	}
	return err
}
