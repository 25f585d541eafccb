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

// Package session assembles a remote backup file system from the
// environment.
package session

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/cockroachlabs-field/backupfs/internal/backuppath"
	"github.com/cockroachlabs-field/backupfs/internal/blob"
	"github.com/cockroachlabs-field/backupfs/internal/env"
	"github.com/cockroachlabs-field/backupfs/internal/ledger"
	"github.com/cockroachlabs-field/backupfs/internal/metrics"
	"github.com/cockroachlabs-field/backupfs/internal/remotefs"
	"github.com/cockroachlabs-field/backupfs/internal/retry"
)

// Session holds the components serving one command.
type Session struct {
	Store   blob.Storage
	Ledger  ledger.Ledger
	Engine  *remotefs.Engine
	FS      remotefs.FileSystem // Engine, wrapped for retries when enabled
	Metrics *metrics.Observer   // nil unless env.MetricsAddr is set
}

// Open connects to the configured store and ledger. The metrics server,
// if any, runs until ctx is stopped.
func Open(ctx *stopper.Context, e *env.Env) (*Session, error) {
	store, err := blob.FromEnv(ctx, e)
	if err != nil {
		return nil, err
	}
	l, err := ledger.Open(ctx, e.LedgerURL)
	if err != nil {
		return nil, errors.Join(err, store.Close())
	}
	s := &Session{Store: store, Ledger: l}

	observers := remotefs.Observers{remotefs.LogNotifier{}}
	if e.MetricsAddr != "" {
		s.Metrics = metrics.New(nil)
		if _, err := s.Metrics.Serve(ctx, e.MetricsAddr); err != nil {
			return nil, errors.Join(err, s.Close())
		}
		observers = append(observers, s.Metrics)
	}

	opts := []remotefs.Option{remotefs.WithLedger(l)}
	if e.Compat {
		slog.Warn("legacy listing semantics enabled; listings may include artifacts of other clusters")
		opts = append(opts, remotefs.WithListMode(remotefs.ListCompat))
	}
	if e.Retention > 0 {
		opts = append(opts, remotefs.WithRetention(remotefs.MaxAge{Age: e.Retention}))
	}
	s.Engine = remotefs.New(store, backuppath.Codec{}, observers, opts...)
	s.FS = s.Engine
	if e.RetryAttempts > 1 {
		retryOpts := retry.Default
		retryOpts.MaxAttempts = e.RetryAttempts
		s.FS = remotefs.NewRetrying(s.Engine, retryOpts)
	}
	return s, nil
}

// Close releases the ledger and the store.
func (s *Session) Close() error {
	return errors.Join(s.Ledger.Close(), s.Store.Close())
}
