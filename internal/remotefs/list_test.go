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
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachlabs-field/backupfs/internal/backuppath"
	"github.com/cockroachlabs-field/backupfs/internal/blob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	otherCluster := backuppath.Scope{BaseDir: "b", Region: "r", ClusterName: "c2"}
	otherRegion := backuppath.Scope{BaseDir: "b", Region: "r2", ClusterName: "c"}

	p1 := mustPath(t, testScope, backuppath.Snap, t1, "f1")
	p2 := mustPath(t, testScope, backuppath.Snap, t2, "f2")
	p3 := mustPath(t, testScope, backuppath.Snap, t3, "f3")
	c2AtT2 := mustPath(t, otherCluster, backuppath.Snap, t2, "f2")
	r2AtT2 := mustPath(t, otherRegion, backuppath.Meta, t2, "meta.json")
	c2AtT1 := mustPath(t, otherCluster, backuppath.Snap, t1, "f1")

	tests := []struct {
		name  string
		mode  ListMode
		scope string
		start time.Time
		till  time.Time
		want  []backuppath.Path
	}{
		{"strict window excludes till", ListStrict, "x/b/r/c", t1, t3, []backuppath.Path{p1, p2}},
		{"strict inclusive end", ListStrict, "x/b/r/c", t1, t3.Add(time.Second), []backuppath.Path{p1, p2, p3}},
		{"strict inner window", ListStrict, "x/b/r/c", t2, t3, []backuppath.Path{p2}},
		{"strict empty window", ListStrict, "x/b/r/c", t2, t2, []backuppath.Path{}},
		{"strict other cluster", ListStrict, "x/b/r/c2", t1, t3, []backuppath.Path{c2AtT1, c2AtT2}},
		{"strict extra segments", ListStrict, "x/b/r/c/ignored", t1, t3, []backuppath.Path{p1, p2}},
		{"strict unconstrained", ListStrict, "x", t2, t3, []backuppath.Path{c2AtT2, p2, r2AtT2}},
		{"compat leaks inner window", ListCompat, "x/b/r/c", t1, t3, []backuppath.Path{p1, c2AtT2, p2, r2AtT2}},
		{"compat scoped start", ListCompat, "x/b/r/c2", t1, t2, []backuppath.Path{c2AtT1}},
		{"compat unconstrained", ListCompat, "", t1, t3, []backuppath.Path{p1, c2AtT1, c2AtT2, p2, r2AtT2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := assert.New(t)
			r := require.New(t)
			store := blob.NewMemory("test")
			seed(t, store, p1, p2, p3, c2AtT2, r2AtT2, c2AtT1)
			fs := New(store, nil, nil, WithListMode(tt.mode))

			got, err := fs.List(t.Context(), tt.scope, tt.start, tt.till)
			r.NoError(err)
			a.ElementsMatch(keys(tt.want), keys(got))

			again, err := fs.List(t.Context(), tt.scope, tt.start, tt.till)
			r.NoError(err)
			a.Equal(keys(got), keys(again))
		})
	}
}

func TestListSkipsMalformedKeys(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)
	store := blob.NewMemory("test")
	good := mustPath(t, testScope, backuppath.Snap, t1, "f1")
	seed(t, store, good)
	for _, key := range []string{"b/r/c/SNAP/notatime/f", "b/r/c/BOGUS/20240301100000/f", "b/r/c/x"} {
		r.NoError(store.Put(t.Context(), key, strings.NewReader(""), 0))
	}
	var skipped []string
	fs := New(store, nil, nil, WithSkipHook(func(key string, err error) {
		a.True(errors.Is(err, backuppath.ErrParse))
		skipped = append(skipped, key)
	}))

	got, err := fs.List(t.Context(), "x/b/r/c", t1, t3)
	r.NoError(err)
	a.Equal([]string{good.RemotePath()}, keys(got))
	a.ElementsMatch([]string{"b/r/c/SNAP/notatime/f", "b/r/c/BOGUS/20240301100000/f", "b/r/c/x"}, skipped)
}

func TestListBadScope(t *testing.T) {
	fs := New(blob.NewMemory("test"), nil, nil)
	for _, scope := range []string{"x/b", "x/b/r", "x//r/c"} {
		_, err := fs.List(t.Context(), scope, t1, t3)
		assert.True(t, errors.Is(err, backuppath.ErrParse), scope)
	}
}

func TestListStoreError(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	store := blob.NewMemory("test")
	seed(t, store, mustPath(t, testScope, backuppath.Snap, t1, "f1"))
	fs := New(store, nil, nil)

	_, err := fs.List(ctx, "x/b/r/c", t1, t3)
	assert.True(t, errors.Is(err, ErrTransfer))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestListPrefixes(t *testing.T) {
	store := blob.NewMemory("test")
	seed(t, store,
		mustPath(t, testScope, backuppath.Snap, t1, "f1"),
		mustPath(t, testScope, backuppath.Meta, t2, "meta.json"),
		mustPath(t, backuppath.Scope{BaseDir: "b", Region: "r", ClusterName: "c2"}, backuppath.Snap, t2, "f"),
		mustPath(t, backuppath.Scope{BaseDir: "b", Region: "r2", ClusterName: "c"}, backuppath.Snap, t3, "f"),
	)
	fs := New(store, nil, nil)

	tests := []struct {
		asOf time.Time
		want []string
	}{
		{t1.Add(-time.Second), []string{}},
		{t1, []string{"b/r/c"}},
		{t2, []string{"b/r/c", "b/r/c2"}},
		{t3, []string{"b/r/c", "b/r/c2", "b/r2/c"}},
	}
	for _, tt := range tests {
		t.Run(tt.asOf.Format(time.RFC3339), func(t *testing.T) {
			got, err := fs.ListPrefixes(t.Context(), tt.asOf)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
