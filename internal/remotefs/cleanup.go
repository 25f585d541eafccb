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
)

// RetentionPolicy decides which artifacts Cleanup removes.
type RetentionPolicy interface {
	Stale(p backuppath.Path) bool
}

// RetentionFunc adapts a function to RetentionPolicy.
type RetentionFunc func(p backuppath.Path) bool

// Stale implements RetentionPolicy.
func (f RetentionFunc) Stale(p backuppath.Path) bool {
	return f(p)
}

// MaxAge reports artifacts older than Age as stale.
type MaxAge struct {
	Age time.Duration
	Now func() time.Time // defaults to time.Now
}

// Stale implements RetentionPolicy.
func (m MaxAge) Stale(p backuppath.Path) bool {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	return p.Time().Before(now().Add(-m.Age))
}

// Cleanup implements FileSystem. It is a no-op without a retention policy.
func (e *Engine) Cleanup(ctx context.Context) (int, error) {
	if e.retention == nil {
		slog.Debug("no retention policy configured, skipping cleanup")
		return 0, nil
	}
	var stale []backuppath.Path
	for p, err := range e.walk(ctx, "") {
		if err != nil {
			return 0, err
		}
		if e.retention.Stale(p) {
			stale = append(stale, p)
		}
	}
	removed := 0
	for _, p := range stale {
		key := e.codec.Format(p)
		if err := e.store.Delete(ctx, key); err != nil {
			return removed, transferError(err, "deleting %q", key)
		}
		slog.Debug("removed stale artifact", slog.String("key", key))
		removed++
	}
	slog.Info("cleanup done", slog.Int("removed", removed))
	return removed, nil
}
