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

package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cockroachdb/errors"
)

// Transfer is a row of the transfers table.
type Transfer struct {
	Key       string
	Type      string
	Direction string
	Bytes     int64
	At        time.Time
}

// TransferTable records completed backup transfers.
type TransferTable struct {
	Database
	Schema
	Name Ident
}

// DefaultTransferTable is the table used by the transfer ledger.
var DefaultTransferTable = TransferTable{
	Database: Database{Name: "_backupfs"},
	Schema:   Public,
	Name:     "transfers",
}

const createTransferTableStmt = `
CREATE TABLE IF NOT EXISTS %[1]s (
  id UUID DEFAULT gen_random_uuid() PRIMARY KEY,
  key STRING NOT NULL,
  type STRING NOT NULL,
  direction STRING NOT NULL,
  bytes INT8 NOT NULL,
  at TIMESTAMPTZ NOT NULL,
  INDEX (at)
);`

// Create creates the table.
func (t *TransferTable) Create(ctx context.Context, conn Conn) error {
	_, err := conn.Exec(ctx, fmt.Sprintf(createTransferTableStmt, t.String()))
	return err
}

const dropTableStmt = `
DROP TABLE IF EXISTS %[1]s;`

// Drop removes the table.
func (t *TransferTable) Drop(ctx context.Context, conn Conn) error {
	slog.Info("Dropping table", slog.String("table", t.String()))
	_, err := conn.Exec(ctx, fmt.Sprintf(dropTableStmt, t.String()))
	return err
}

const insertTransferStmt = `
INSERT INTO %[1]s (key, type, direction, bytes, at) values (@key, @type, @direction, @bytes, @at);`

// Insert adds a new row to the table.
func (t *TransferTable) Insert(ctx context.Context, conn Conn, tr Transfer) error {
	_, err := conn.Exec(ctx, fmt.Sprintf(insertTransferStmt, t.String()), pgx.NamedArgs{
		"key":       tr.Key,
		"type":      tr.Type,
		"direction": tr.Direction,
		"bytes":     tr.Bytes,
		"at":        tr.At,
	})
	return errors.Wrap(err, "failed to insert transfer")
}

const listTransfersStmt = `SELECT key, type, direction, bytes, at FROM %[1]s ORDER BY at, id`

// List returns every row, oldest first.
func (t *TransferTable) List(ctx context.Context, conn Conn) ([]Transfer, error) {
	rows, err := conn.Query(ctx, fmt.Sprintf(listTransfersStmt, t.String()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list transfers")
	}
	defer rows.Close()
	var res []Transfer
	for rows.Next() {
		var tr Transfer
		if err := rows.Scan(&tr.Key, &tr.Type, &tr.Direction, &tr.Bytes, &tr.At); err != nil {
			return nil, err
		}
		res = append(res, tr)
	}
	return res, rows.Err()
}

// String returns the string representation of the table.
func (t *TransferTable) String() string {
	return strings.Join([]string{t.Database.String(), t.Schema.String(), string(t.Name)}, ".")
}

// LocalName returns the local name of the table.
func (t *TransferTable) LocalName() string {
	return strings.Join([]string{t.Schema.String(), string(t.Name)}, ".")
}
