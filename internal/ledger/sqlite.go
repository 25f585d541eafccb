// Copyright 2025 Cockroach Labs, Inc.
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

package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite" // registers the sqlite driver
)

const busyTimeoutMs = 2000

const createSQLiteStmt = `
CREATE TABLE IF NOT EXISTS transfers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  key TEXT NOT NULL,
  type TEXT NOT NULL,
  direction TEXT NOT NULL,
  bytes INTEGER NOT NULL,
  at INTEGER NOT NULL
);`

// SQLite stores entries in an embedded SQLite database.
type SQLite struct {
	db *sql.DB
}

var _ Ledger = &SQLite{}

// OpenSQLite opens (creating if needed) the database at path.
// ":memory:" keeps the database in memory for the lifetime of the ledger.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)", path, busyTimeoutMs)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite ledger")
	}
	// Every connection to :memory: is a distinct database.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, createSQLiteStmt); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create transfers table")
	}
	return &SQLite{db: db}, nil
}

// Record implements Ledger.
func (s *SQLite) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transfers (key, type, direction, bytes, at) VALUES (?, ?, ?, ?, ?)`,
		e.Key, e.Type, e.Direction, e.Bytes, e.At.UnixNano())
	return errors.Wrap(err, "failed to record transfer")
}

// Entries implements Ledger.
func (s *SQLite) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, type, direction, bytes, at FROM transfers ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query transfers")
	}
	defer rows.Close()
	var res []Entry
	for rows.Next() {
		var e Entry
		var at int64
		if err := rows.Scan(&e.Key, &e.Type, &e.Direction, &e.Bytes, &at); err != nil {
			return nil, err
		}
		e.At = time.Unix(0, at).UTC()
		res = append(res, e)
	}
	return res, rows.Err()
}

// Close implements Ledger.
func (s *SQLite) Close() error {
	return s.db.Close()
}
