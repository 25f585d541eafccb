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

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cockroachdb/errors"
	"github.com/cockroachlabs-field/backupfs/internal/db"
)

const maxConns = 4

// Cockroach stores entries in a CockroachDB table.
type Cockroach struct {
	pool  *pgxpool.Pool
	table db.TransferTable
}

var _ Ledger = &Cockroach{}

// OpenCockroach connects to the cluster at url and creates the ledger table.
func OpenCockroach(ctx context.Context, url string) (*Cockroach, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse database URL")
	}
	config.MaxConns = maxConns
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create database pool")
	}
	conn, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to acquire database connection")
	}
	defer conn.Release()
	table := db.DefaultTransferTable
	if err := table.Database.Create(ctx, conn); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to create ledger database")
	}
	if err := table.Create(ctx, conn); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to create ledger table")
	}
	return &Cockroach{pool: pool, table: table}, nil
}

// Record implements Ledger.
func (c *Cockroach) Record(ctx context.Context, e Entry) error {
	return c.table.Insert(ctx, c.pool, db.Transfer{
		Key:       e.Key,
		Type:      e.Type,
		Direction: e.Direction,
		Bytes:     e.Bytes,
		At:        e.At,
	})
}

// Entries implements Ledger.
func (c *Cockroach) Entries(ctx context.Context) ([]Entry, error) {
	transfers, err := c.table.List(ctx, c.pool)
	if err != nil {
		return nil, err
	}
	res := make([]Entry, 0, len(transfers))
	for _, t := range transfers {
		res = append(res, Entry{
			Key:       t.Key,
			Type:      t.Type,
			Direction: t.Direction,
			Bytes:     t.Bytes,
			At:        t.At,
		})
	}
	return res, nil
}

// Close implements Ledger.
func (c *Cockroach) Close() error {
	c.pool.Close()
	return nil
}
