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

	"github.com/cockroachdb/errors"
	"github.com/cockroachlabs-field/backupfs/internal/backuppath"
	"github.com/cockroachlabs-field/backupfs/internal/retry"
)

// Retrying retries failed transfers of an Engine with exponential backoff.
// Each Download or Upload emits a single observer event no matter how many
// attempts it took.
type Retrying struct {
	engine *Engine
	opts   retry.Options
}

var _ FileSystem = &Retrying{}

// NewRetrying wraps engine.
func NewRetrying(engine *Engine, opts retry.Options) *Retrying {
	return &Retrying{engine: engine, opts: opts}
}

// Retryable reports whether err is a transfer failure worth repeating.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransfer) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

// List implements FileSystem.
func (r *Retrying) List(
	ctx context.Context, scope string, start, till time.Time,
) ([]backuppath.Path, error) {
	return r.engine.List(ctx, scope, start, till)
}

// ListPrefixes implements FileSystem.
func (r *Retrying) ListPrefixes(ctx context.Context, asOf time.Time) ([]string, error) {
	return r.engine.ListPrefixes(ctx, asOf)
}

// GetFileSize implements FileSystem.
func (r *Retrying) GetFileSize(ctx context.Context, remoteKey string) (int64, error) {
	return r.engine.GetFileSize(ctx, remoteKey)
}

// Cleanup implements FileSystem.
func (r *Retrying) Cleanup(ctx context.Context) (int, error) {
	return r.engine.Cleanup(ctx)
}

// Download implements FileSystem.
func (r *Retrying) Download(ctx context.Context, remoteKey, localPath string) error {
	path, err := r.engine.codec.Parse(remoteKey)
	if err != nil {
		return err
	}
	var n int64
	err = r.do(ctx, remoteKey, func(ctx context.Context) error {
		var err error
		n, err = r.engine.download(ctx, path, localPath)
		return err
	})
	r.engine.finish(ctx, path, Download, n, err)
	return err
}

// Upload implements FileSystem.
func (r *Retrying) Upload(ctx context.Context, localPath, remoteKey string) (int64, error) {
	path, err := r.engine.codec.Parse(remoteKey)
	if err != nil {
		return 0, err
	}
	var n int64
	err = r.do(ctx, remoteKey, func(ctx context.Context) error {
		var err error
		n, err = r.engine.upload(ctx, localPath, path)
		return err
	})
	r.engine.finish(ctx, path, Upload, n, err)
	return n, err
}

func (r *Retrying) do(ctx context.Context, key string, fn func(context.Context) error) error {
	attempts, err := retry.Do(ctx, r.opts, Retryable, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil {
			slog.Debug("transfer attempt failed", slog.String("key", key), slog.Any("error", err))
		}
		return err
	})
	if err != nil && attempts > 1 {
		return errors.Wrapf(err, "after %d attempts", attempts)
	}
	return err
}
