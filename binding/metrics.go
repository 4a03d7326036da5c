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
	"errors"

	mon "github.com/watcha-fr/synapse-sub000/skunkworks/monitor/go-client/monitor"
)

// outcomeOf labels the result of a handler operation.
func outcomeOf(err error) string {
	var (
		authErr        *AuthError
		consistencyErr *ConsistencyError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &consistencyErr):
		return "consistency"
	default:
		return "error"
	}
}

// observe counts one handler operation by name and outcome.
func observe(op string, err error) {
	counter := mon.GetInstance().NewLabeledCounter("binding_operations_total", []string{"op", "outcome"})
	counter.WithLabelValues(op, outcomeOf(err)).Inc()
}
