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
	"io"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachlabs-field/backupfs/internal/backuppath"
	"github.com/cockroachlabs-field/backupfs/internal/blob"
	"github.com/cockroachlabs-field/backupfs/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flaky fails the first failures calls to Put and Get.
type flaky struct {
	*blob.Memory
	failures int32
	puts     atomic.Int32
	gets     atomic.Int32
}

func (f *flaky) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	if f.puts.Add(1) <= f.failures {
		return errors.New("connection reset")
	}
	return f.Memory.Put(ctx, key, r, size)
}

func (f *flaky) Get(ctx context.Context, key string, w io.Writer) (int64, error) {
	if f.gets.Add(1) <= f.failures {
		return 0, errors.New("connection reset")
	}
	return f.Memory.Get(ctx, key, w)
}

var fastRetry = retry.Options{
	MaxAttempts:  4,
	InitialDelay: time.Millisecond,
	MaxDelay:     5 * time.Millisecond,
	Multiplier:   2,
}

func TestRetryingRecovers(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)
	store := &flaky{Memory: blob.NewMemory("test"), failures: 2}
	obs := &recorder{}
	fs := NewRetrying(New(store, nil, obs), fastRetry)
	local := writeFile(t, t.TempDir(), "f", "payload")
	key := mustPath(t, testScope, backuppath.Snap, t1, "f").RemotePath()

	n, err := fs.Upload(t.Context(), local, key)
	r.NoError(err)
	a.Equal(int64(7), n)
	a.Equal(int32(3), store.puts.Load())

	r.NoError(fs.Download(t.Context(), key, filepath.Join(t.TempDir(), "out")))
	a.Equal(int32(3), store.gets.Load())

	a.Equal([]event{
		{key, Upload, Success, 7},
		{key, Download, Success, 7},
	}, obs.Events())
}

func TestRetryingExhausted(t *testing.T) {
	a := assert.New(t)
	store := &flaky{Memory: blob.NewMemory("test"), failures: 100}
	obs := &recorder{}
	fs := NewRetrying(New(store, nil, obs), fastRetry)
	local := writeFile(t, t.TempDir(), "f", "payload")
	key := mustPath(t, testScope, backuppath.Snap, t1, "f").RemotePath()

	_, err := fs.Upload(t.Context(), local, key)
	a.True(errors.Is(err, ErrTransfer))
	a.Equal(int32(fastRetry.MaxAttempts), store.puts.Load())
	a.Equal([]event{{key, Upload, Failure, 0}}, obs.Events())
}

func TestRetryingSkipsPermanentErrors(t *testing.T) {
	a := assert.New(t)
	store := &flaky{Memory: blob.NewMemory("test")}
	obs := &recorder{}
	fs := NewRetrying(New(store, nil, obs), fastRetry)
	key := mustPath(t, testScope, backuppath.Snap, t1, "missing").RemotePath()

	err := fs.Download(t.Context(), key, filepath.Join(t.TempDir(), "out"))
	a.True(errors.Is(err, ErrNotFound))
	a.Zero(store.gets.Load())
	a.Equal([]event{{key, Download, Failure, 0}}, obs.Events())

	err = fs.Download(t.Context(), "not/a/key", filepath.Join(t.TempDir(), "out"))
	a.True(errors.Is(err, backuppath.ErrParse))
	a.Len(obs.Events(), 1)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transfer", errors.Mark(errors.New("reset"), ErrTransfer), true},
		{"not found", errors.Mark(blob.ErrNotFound, ErrNotFound), false},
		{"parse", backuppath.ErrParse, false},
		{"cancelled", errors.Mark(errors.Wrap(context.Canceled, "upload"), ErrTransfer), false},
		{"deadline", errors.Mark(errors.Wrap(context.DeadlineExceeded, "upload"), ErrTransfer), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}
