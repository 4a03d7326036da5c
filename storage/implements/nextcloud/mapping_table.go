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

	"github.com/watcha-fr/synapse-sub000/common"
	"github.com/watcha-fr/synapse-sub000/model/types"
)

const mappingSchema = `
CREATE TABLE IF NOT EXISTS room_nextcloud_mapping (
	room_id TEXT NOT NULL PRIMARY KEY,
	directory_path TEXT NOT NULL,
	share_id TEXT NOT NULL
);
`

const selectBindingSQL = "" +
	"SELECT room_id, directory_path, share_id FROM room_nextcloud_mapping" +
	" WHERE room_id = $1"

const upsertBindingSQL = "" +
	"INSERT INTO room_nextcloud_mapping (room_id, directory_path, share_id)" +
	" VALUES ($1, $2, $3)" +
	" ON CONFLICT (room_id) DO UPDATE" +
	" SET directory_path = EXCLUDED.directory_path, share_id = EXCLUDED.share_id"

const deleteBindingSQL = "" +
	"DELETE FROM room_nextcloud_mapping" +
	" WHERE room_id = $1"

type mappingStatements struct {
	db                *Database
	selectBindingStmt *sql.Stmt
	upsertBindingStmt *sql.Stmt
	deleteBindingStmt *sql.Stmt
}

func (s *mappingStatements) getSchema() string {
	return mappingSchema
}

func (s *mappingStatements) prepare(db *sql.DB, d *Database) (err error) {
	s.db = d
	_, err = db.Exec(s.getSchema())
	if err != nil {
		return
	}

	return statementList{
		{&s.selectBindingStmt, selectBindingSQL},
		{&s.upsertBindingStmt, upsertBindingSQL},
		{&s.deleteBindingStmt, deleteBindingSQL},
	}.prepare(db, d.driver)
}

func (s *mappingStatements) selectBinding(
	ctx context.Context, txn *sql.Tx, roomID string,
) (*types.RoomBinding, error) {
	var b types.RoomBinding
	stmt := common.TxStmt(txn, s.selectBindingStmt)
	err := stmt.QueryRowContext(ctx, roomID).Scan(
		&b.RoomID, &b.DirectoryPath, &b.ShareID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *mappingStatements) upsertBinding(
	ctx context.Context, txn *sql.Tx, roomID, directoryPath, shareID string,
) error {
	stmt := common.TxStmt(txn, s.upsertBindingStmt)
	_, err := stmt.ExecContext(ctx, roomID, directoryPath, shareID)
	return err
}

func (s *mappingStatements) deleteBinding(
	ctx context.Context, txn *sql.Tx, roomID string,
) error {
	stmt := common.TxStmt(txn, s.deleteBindingStmt)
	_, err := stmt.ExecContext(ctx, roomID)
	return err
}
