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

package remotefs

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachlabs-field/backupfs/internal/backuppath"
	"github.com/cockroachlabs-field/backupfs/internal/blob"
	"github.com/cockroachlabs-field/backupfs/internal/ledger"
)

// ListMode selects how List combines the scope filter with the time window.
type ListMode int

const (
	// ListStrict includes an artifact iff its scope matches and its time
	// is in [start, till).
	ListStrict ListMode = iota
	// ListCompat reproduces the legacy predicate: any artifact strictly
	// inside (start, till) regardless of scope, or exactly at start and in
	// scope. It exists for restores that depend on the legacy result set.
	ListCompat
)

func (m ListMode) String() string {
	if m == ListCompat {
		return "compat"
	}
	return "strict"
}

// Option configures an Engine.
type Option func(*Engine)

// WithListMode sets the listing predicate.
func WithListMode(mode ListMode) Option {
	return func(e *Engine) { e.mode = mode }
}

// WithRetention sets the policy used by Cleanup.
func WithRetention(policy RetentionPolicy) Option {
	return func(e *Engine) { e.retention = policy }
}

// WithLedger records every successful transfer.
func WithLedger(l ledger.Ledger) Option {
	return func(e *Engine) { e.ledger = l }
}

// WithSkipHook is called for each store key that is not a backup path.
func WithSkipHook(fn func(key string, err error)) Option {
	return func(e *Engine) { e.skip = fn }
}

// WithClock overrides the clock used to timestamp ledger entries.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine is a FileSystem over a blob.Storage. It holds no per-call state
// and is safe for concurrent use.
type Engine struct {
	store     blob.Storage
	codec     Codec
	observer  Observer
	mode      ListMode
	retention RetentionPolicy
	ledger    ledger.Ledger
	skip      func(key string, err error)
	now       func() time.Time
}

var _ FileSystem = &Engine{}

// New returns an Engine. A nil codec selects backuppath.Codec and a nil
// observer discards events.
func New(store blob.Storage, codec Codec, observer Observer, opts ...Option) *Engine {
	if codec == nil {
		codec = backuppath.Codec{}
	}
	if observer == nil {
		observer = Discard
	}
	e := &Engine{
		store:    store,
		codec:    codec,
		observer: observer,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the underlying storage.
func (e *Engine) Store() blob.Storage {
	return e.store
}

// finish accounts for a completed transfer and emits its single event.
func (e *Engine) finish(ctx context.Context, path backuppath.Path, dir Direction, bytes int64, err error) {
	if err != nil {
		e.observer.OnTransfer(path, dir, Failure, 0)
		return
	}
	if e.ledger != nil {
		entry := ledger.Entry{
			Key:       e.codec.Format(path),
			Type:      path.Type().String(),
			Direction: dir.String(),
			Bytes:     bytes,
			At:        e.now().UTC(),
		}
		if lerr := e.ledger.Record(ctx, entry); lerr != nil {
			slog.Warn("failed to record transfer",
				slog.String("key", entry.Key), slog.Any("error", lerr))
		}
	}
	e.observer.OnTransfer(path, dir, Success, bytes)
}

func (e *Engine) skipped(key string, err error) {
	slog.Warn("skipping malformed backup key", slog.String("key", key), slog.Any("error", err))
	if e.skip != nil {
		e.skip(key, err)
	}
}
