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

package validate

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/cockroachlabs-field/backupfs/internal/blob"
	"github.com/cockroachlabs-field/backupfs/internal/env"
	"github.com/cockroachlabs-field/backupfs/internal/ledger"
	"github.com/cockroachlabs-field/backupfs/internal/remotefs"
)

func testEnv() *env.Env {
	return &env.Env{
		Workers:          3,
		WorkloadDuration: 30 * time.Millisecond,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mode remotefs.ListMode
	}{
		{"strict", remotefs.ListStrict},
		{"compat", remotefs.ListCompat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := assert.New(t)
			r := require.New(t)
			ctx := stopper.WithContext(t.Context())
			store := blob.NewMemory("test")
			l := ledger.NewMemory()
			fs := remotefs.New(store, nil, nil, remotefs.WithListMode(tt.mode), remotefs.WithLedger(l))

			v, err := New(ctx, testEnv(), store, fs)
			r.NoError(err)
			report, err := v.Validate(ctx)
			r.NoError(err)
			r.Len(report.Stats, 7)
			a.Nil(report.SuggestedParams)
			for _, stat := range report.Stats {
				a.NotEmpty(stat.Step)
			}
			a.Equal(report.Stats[0].Bytes, report.Stats[4].Bytes)

			// one upload and one download per snapshot, plus the manifest.
			entries, err := l.Entries(ctx)
			r.NoError(err)
			a.Len(entries, 2*len(v.uploads)+2)

			dir := v.dir
			r.NoError(v.Clean(ctx))
			a.Zero(store.Len())
			_, err = os.Stat(dir)
			a.True(os.IsNotExist(err))
		})
	}
}

// corrupting returns altered content on download.
type corrupting struct {
	*remotefs.Engine
}

func (c corrupting) Download(ctx context.Context, remoteKey, localPath string) error {
	if err := c.Engine.Download(ctx, remoteKey, localPath); err != nil {
		return err
	}
	return os.WriteFile(localPath, []byte("corrupted"), 0o600)
}

func TestValidateDetectsCorruption(t *testing.T) {
	r := require.New(t)
	ctx := stopper.WithContext(t.Context())
	store := blob.NewMemory("test")
	e := testEnv()
	e.Workers = 1

	v, err := New(ctx, e, store, corrupting{remotefs.New(store, nil, nil)})
	r.NoError(err)
	defer func() { r.NoError(v.Clean(ctx)) }()
	_, err = v.Validate(ctx)
	r.ErrorContains(err, "download snapshots")
}

func TestPreflight(t *testing.T) {
	store := blob.NewMemory("test")
	fs := remotefs.New(store, nil, nil)
	tests := []struct {
		name    string
		env     *env.Env
		store   blob.Storage
		fs      remotefs.FileSystem
		wantErr string
	}{
		{"ok", testEnv(), store, fs, ""},
		{"nil env", nil, store, fs, "environment cannot be nil"},
		{"nil store", testEnv(), nil, fs, "blob storage cannot be nil"},
		{"nil fs", testEnv(), store, nil, "file system cannot be nil"},
		{"negative workers", &env.Env{Workers: -1, WorkloadDuration: time.Second}, store, fs, "workers count cannot be negative"},
		{"zero duration", &env.Env{Workers: 1}, store, fs, "workload duration must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := preflight(tt.env, tt.store, tt.fs)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestThroughput(t *testing.T) {
	tests := []struct {
		stat Stat
		want string
	}{
		{Stat{Bytes: 0, Duration: time.Second}, "-"},
		{Stat{Bytes: 10, Duration: 0}, "-"},
		{Stat{Bytes: 2_000_000, Duration: time.Second}, "2.0 MB/s"},
		{Stat{Bytes: 500, Duration: 500 * time.Millisecond}, "1.0 kB/s"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.stat.Throughput())
		})
	}
}
