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

import (
	"time"

	mon "github.com/watcha-fr/synapse-sub000/skunkworks/monitor/go-client/monitor"
)

// Observe records the duration and outcome of one remote call.
func Observe(service, operation string, start time.Time, err error) {
	histogram := mon.GetInstance().NewLabeledHistogram(
		"remote_request_duration_millisecond",
		[]string{"service", "op", "outcome"},
		[]float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 15000},
	)
	outcome := OutcomeOf(err).String()
	if IsTransport(err) {
		outcome = "transport"
	}
	duration := float64(time.Since(start)) / float64(time.Millisecond)
	histogram.WithLabelValues(service, operation, outcome).Observe(duration)
}
