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
	"database/sql"

	"github.com/watcha-fr/synapse-sub000/common"
)

// a statementList is a list of SQL statements to prepare and a pointer to where to store the resulting prepared statement.
type statementList []struct {
	statement **sql.Stmt
	sql       string
}

// prepare the SQL for each statement in the list and assign the result to the prepared statement.
// Placeholders are rewritten for driver.
// nolint: safesql
func (s statementList) prepare(db *sql.DB, driver string) (err error) {
	for _, statement := range s {
		if *statement.statement, err = db.Prepare(common.Rebind(driver, statement.sql)); err != nil {
			return
		}
	}
	return
}
