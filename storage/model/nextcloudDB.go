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

package model

import (
	"context"

	"github.com/watcha-fr/synapse-sub000/model/types"
	mon "github.com/watcha-fr/synapse-sub000/skunkworks/monitor/go-client/monitor"
)

// DBMonitor is implemented by databases reporting query durations.
type DBMonitor interface {
	SetMonitor(histogram mon.LabeledHistogram)
}

// NextcloudDatabase stores the room to folder bindings.
type NextcloudDatabase interface {
	// GetBinding returns nil, nil when the room is not bound.
	GetBinding(ctx context.Context, roomID string) (*types.RoomBinding, error)
	UpsertBinding(ctx context.Context, roomID, directoryPath, shareID string) error
	// DeleteBinding does not fail when the room is not bound.
	DeleteBinding(ctx context.Context, roomID string) error
}
