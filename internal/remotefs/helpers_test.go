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
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachlabs-field/backupfs/internal/backuppath"
	"github.com/cockroachlabs-field/backupfs/internal/blob"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	testScope = backuppath.Scope{BaseDir: "b", Region: "r", ClusterName: "c"}
	t1        = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2        = t1.Add(time.Hour)
	t3        = t1.Add(2 * time.Hour)
)

type event struct {
	key     string
	dir     Direction
	outcome Outcome
	bytes   int64
}

// recorder collects observer events.
type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) OnTransfer(p backuppath.Path, dir Direction, outcome Outcome, bytes int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{p.RemotePath(), dir, outcome, bytes})
}

func (r *recorder) Events() []event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event(nil), r.events...)
}

type mockObserver struct {
	mock.Mock
}

func (m *mockObserver) OnTransfer(p backuppath.Path, dir Direction, outcome Outcome, bytes int64) {
	m.Called(p, dir, outcome, bytes)
}

func mustPath(
	t *testing.T, scope backuppath.Scope, typ backuppath.FileType, at time.Time, name string,
) backuppath.Path {
	t.Helper()
	p, err := backuppath.New(scope, typ, at, name)
	require.NoError(t, err)
	return p
}

// seed stores each path with its file name as content.
func seed(t *testing.T, store blob.Storage, paths ...backuppath.Path) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, store.Put(t.Context(), p.RemotePath(),
			strings.NewReader(p.FileName()), int64(len(p.FileName()))))
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func keys(paths []backuppath.Path) []string {
	res := make([]string, 0, len(paths))
	for _, p := range paths {
		res = append(res, p.RemotePath())
	}
	return res
}
