// Copyright 2017 Vector Creations Ltd
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
//
// Modifications copyright (C) 2020 Finogeeks Co., Ltd

package common

import (
	"context"
	"database/sql"
	"regexp"
	"sync"
	"time"

	"github.com/gchaincl/sqlhooks"
	"github.com/lib/pq"
	log "github.com/watcha-fr/synapse-sub000/skunkworks/log"
	"modernc.org/sqlite"
)

// A Transaction is something that can be committed or rolledback.
type Transaction interface {
	// Commit the transaction
	Commit() error
	// Rollback the transaction.
	Rollback() error
}

// EndTransaction ends a transaction.
// If the transaction succeeded then it is committed, otherwise it is rolledback.
func EndTransaction(txn Transaction, succeeded *bool) {
	if *succeeded {
		txn.Commit() // nolint: errcheck
	} else {
		txn.Rollback() // nolint: errcheck
	}
}

// WithTransaction runs a block of code passing in an SQL transaction
// If the code returns an error or panics then the transactions is rolledback
// Otherwise the transaction is committed.
func WithTransaction(ctx context.Context, db *sql.DB, fn func(txn *sql.Tx) error) (err error) {
	txn, err := db.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	succeeded := false
	defer EndTransaction(txn, &succeeded)

	err = fn(txn)
	if err != nil {
		return
	}

	succeeded = true
	return
}

// TxStmt wraps an SQL stmt inside an optional transaction.
// If the transaction is nil then it returns the original statement that will
// run outside of a transaction.
// Otherwise returns a copy of the statement that will run inside the transaction.
func TxStmt(transaction *sql.Tx, statement *sql.Stmt) *sql.Stmt {
	if transaction != nil {
		statement = transaction.Stmt(statement)
	}
	return statement
}

type hookCtxKey struct{}

// Hooks satisfies the sqlhooks.Hooks interface
type Hooks struct{}

// Before hook will print the query with it's args and return the context with the timestamp
func (h *Hooks) Before(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	log.Debugf("> %s %q", query, args)
	return context.WithValue(ctx, hookCtxKey{}, time.Now()), nil
}

// After hook will get the timestamp registered on the Before hook and print the elapsed time
func (h *Hooks) After(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	if begin, ok := ctx.Value(hookCtxKey{}).(time.Time); ok {
		log.Debugf(". took: %v", time.Since(begin))
	}
	return ctx, nil
}

// OnError logs the failed query, the error is passed through untouched
func (h *Hooks) OnError(ctx context.Context, err error, query string, args ...interface{}) error {
	log.Errorf("> %s %v %q", query, err, args)
	return err
}

var registerHooks sync.Once

// OpenDB opens a connection pool for driver ("postgres" or "sqlite"). With
// logQueries the driver is wrapped so every statement is logged.
func OpenDB(driver, address string, logQueries bool) (*sql.DB, error) {
	registerHooks.Do(func() {
		sql.Register("postgres_hook", sqlhooks.Wrap(&pq.Driver{}, &Hooks{}))
		sql.Register("sqlite_hook", sqlhooks.Wrap(&sqlite.Driver{}, &Hooks{}))
	})

	name := driver
	if logQueries {
		name = driver + "_hook"
	}
	db, err := sql.Open(name, address)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// a second connection to ":memory:" would see an empty database
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

var placeholder = regexp.MustCompile(`\$(\d+)`)

// Rebind rewrites the postgres "$N" placeholders of query for driver.
func Rebind(driver, query string) string {
	if driver != "sqlite" {
		return query
	}
	return placeholder.ReplaceAllString(query, "?$1")
}
