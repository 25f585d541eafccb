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

// Package ledger records completed backup transfers for accounting.
package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Entry is one completed transfer.
type Entry struct {
	Key       string    // remote key
	Type      string    // artifact type
	Direction string    // upload or download
	Bytes     int64     // bytes transferred
	At        time.Time // completion time
}

// Ledger stores transfer entries.
type Ledger interface {
	// Record appends an entry.
	Record(ctx context.Context, e Entry) error
	// Entries returns the entries in recording order.
	Entries(ctx context.Context) ([]Entry, error)
	// Close releases the resources held by the ledger.
	Close() error
}

// Open returns the ledger for the given location:
// empty for an in-memory ledger, sqlite://<file> for an embedded database,
// postgres:// or postgresql:// for a CockroachDB cluster.
func Open(ctx context.Context, location string) (Ledger, error) {
	switch {
	case location == "":
		return NewMemory(), nil
	case strings.HasPrefix(location, "sqlite://"):
		return OpenSQLite(ctx, strings.TrimPrefix(location, "sqlite://"))
	case strings.HasPrefix(location, "postgres://"), strings.HasPrefix(location, "postgresql://"):
		return OpenCockroach(ctx, location)
	default:
		return nil, errors.Newf("unsupported ledger location %q", location)
	}
}
