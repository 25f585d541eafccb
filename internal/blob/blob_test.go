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

package blob

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParamsIter verifies that Params.Iter yields keys and values in sorted order.
func TestParamsIter(t *testing.T) {
	p := Params{
		"zeta":     "last",
		"alpha":    "first",
		"middle":   "second",
		"Aardvark": "third", // capital letter to test ASCII ordering
	}
	var gotKeys, gotVals []string
	for k, v := range p.Iter() {
		gotKeys = append(gotKeys, k)
		gotVals = append(gotVals, v)
	}
	a := assert.New(t)
	a.Equal([]string{"Aardvark", "alpha", "middle", "zeta"}, gotKeys)
	a.Equal([]string{"third", "first", "second", "last"}, gotVals)
}

func TestRoot(t *testing.T) {
	tests := []struct {
		dest   string
		bucket string
		prefix string
	}{
		{"", "", ""},
		{"bucket", "bucket", ""},
		{"bucket/", "bucket", ""},
		{"/bucket/a/b", "bucket", "a/b"},
	}
	for _, tt := range tests {
		t.Run(tt.dest, func(t *testing.T) {
			r := newRoot(tt.dest)
			assert.Equal(t, tt.bucket, r.bucket)
			assert.Equal(t, tt.prefix, r.prefix)
			key := "b/r/c/SNAP/20240101000000/f"
			assert.Equal(t, key, r.rel(r.full(key)))
		})
	}
}

func TestMemory(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)
	ctx := context.Background()
	m := NewMemory("test")

	r.NoError(m.Put(ctx, "a/2", strings.NewReader("22"), 2))
	r.NoError(m.Put(ctx, "a/1", strings.NewReader("1"), 1))
	r.NoError(m.Put(ctx, "b/1", strings.NewReader("333"), 3))

	obj, err := m.Stat(ctx, "b/1")
	r.NoError(err)
	a.Equal(int64(3), obj.Size)

	var buf bytes.Buffer
	n, err := m.Get(ctx, "a/2", &buf)
	r.NoError(err)
	a.Equal(int64(2), n)
	a.Equal("22", buf.String())

	var keys []string
	for obj, err := range m.List(ctx, "a/") {
		r.NoError(err)
		keys = append(keys, obj.Key)
	}
	a.Equal([]string{"a/1", "a/2"}, keys)

	_, err = m.Stat(ctx, "missing")
	a.ErrorIs(err, ErrNotFound)
	_, err = m.Get(ctx, "missing", &buf)
	a.ErrorIs(err, ErrNotFound)

	r.NoError(m.Delete(ctx, "a/1"))
	r.NoError(m.Delete(ctx, "a/1"))
	a.Equal(2, m.Len())
}

func TestMemoryShortWrite(t *testing.T) {
	m := NewMemory("test")
	err := m.Put(context.Background(), "k", strings.NewReader("abc"), 10)
	require.Error(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestMemoryCancelled(t *testing.T) {
	m := NewMemory("test")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.Put(ctx, "k", strings.NewReader("abc"), 3)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, m.Len())
}

// TestMemoryConcurrentPut checks that concurrent writers to one key never
// leave a mixed object behind.
func TestMemoryConcurrentPut(t *testing.T) {
	m := NewMemory("test")
	ctx := context.Background()
	const writers = 8
	const size = 4096
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data := bytes.Repeat([]byte(fmt.Sprint(i)), size)
			assert.NoError(t, m.Put(ctx, "key", bytes.NewReader(data), size))
		}()
	}
	wg.Wait()
	var buf bytes.Buffer
	_, err := m.Get(ctx, "key", &buf)
	require.NoError(t, err)
	got := buf.Bytes()
	require.Len(t, got, size)
	assert.Equal(t, bytes.Repeat(got[:1], size), got)
}
