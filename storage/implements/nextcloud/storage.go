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

package nextcloud

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/watcha-fr/synapse-sub000/common"
	"github.com/watcha-fr/synapse-sub000/model/types"
	log "github.com/watcha-fr/synapse-sub000/skunkworks/log"
	mon "github.com/watcha-fr/synapse-sub000/skunkworks/monitor/go-client/monitor"
)

func init() {
	common.Register("nextcloud", NewDatabase)
}

type Database struct {
	statements statements
	db         *sql.DB
	driver     string
	histogram  mon.LabeledHistogram
}

func NewDatabase(driver, address string, logQueries bool) (interface{}, error) {
	db, err := common.OpenDB(driver, address, logQueries)
	if err != nil {
		return nil, err
	}
	return newDatabase(db, driver)
}

func newDatabase(db *sql.DB, driver string) (*Database, error) {
	d := &Database{db: db, driver: driver}
	if err := d.statements.prepare(db, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Database) SetMonitor(histogram mon.LabeledHistogram) {
	d.histogram = histogram
}

func (d *Database) observe(process string, start time.Time) {
	if d.histogram == nil {
		return
	}
	duration := float64(time.Since(start)) / float64(time.Millisecond)
	d.histogram.WithLabelValues(process).Observe(duration)
}

func (d *Database) GetBinding(ctx context.Context, roomID string) (*types.RoomBinding, error) {
	defer d.observe("GetBinding", time.Now())
	return d.statements.selectBinding(ctx, nil, roomID)
}

// UpsertBinding refuses incomplete bindings: a folder is bound only through
// a share.
func (d *Database) UpsertBinding(ctx context.Context, roomID, directoryPath, shareID string) error {
	defer d.observe("UpsertBinding", time.Now())
	if roomID == "" || directoryPath == "" || shareID == "" {
		return fmt.Errorf("incomplete binding room:%q path:%q share:%q", roomID, directoryPath, shareID)
	}

	return common.WithTransaction(ctx, d.db, func(txn *sql.Tx) error {
		prev, err := d.statements.selectBinding(ctx, txn, roomID)
		if err != nil {
			return err
		}
		if err := d.statements.upsertBinding(ctx, txn, roomID, directoryPath, shareID); err != nil {
			return err
		}
		fields := log.KeysAndValues{"room_id", roomID, "directory_path", directoryPath, "share_id", shareID}
		if prev != nil {
			fields = append(fields, "previous_share_id", prev.ShareID)
		}
		log.Infow("nextcloud binding stored", fields)
		return nil
	})
}

func (d *Database) DeleteBinding(ctx context.Context, roomID string) error {
	defer d.observe("DeleteBinding", time.Now())
	return d.statements.deleteBinding(ctx, nil, roomID)
}

func (d *Database) Close() error {
	return d.db.Close()
}
