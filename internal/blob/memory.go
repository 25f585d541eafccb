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
	"io"
	"iter"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

type memObject struct {
	data     []byte
	modified time.Time
}

// Memory is an in-memory Storage, safe for concurrent use.
type Memory struct {
	name string

	mu struct {
		sync.RWMutex
		objects map[string]memObject
	}
}

var _ Storage = &Memory{}

// NewMemory returns an empty in-memory store.
func NewMemory(name string) *Memory {
	m := &Memory{name: name}
	m.mu.objects = make(map[string]memObject)
	return m
}

// BucketName implements Storage.
func (m *Memory) BucketName() string {
	return m.name
}

// Put implements Storage. The object becomes visible only once it has been
// read in full.
func (m *Memory) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	var buf bytes.Buffer
	if size > 0 {
		buf.Grow(int(size))
	}
	if _, err := io.Copy(&buf, contextReader{ctx, r}); err != nil {
		return err
	}
	if size >= 0 && int64(buf.Len()) != size {
		return errors.Newf("short write for %q: expected %d bytes, got %d", key, size, buf.Len())
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mu.objects[key] = memObject{data: buf.Bytes(), modified: time.Now().UTC()}
	return nil
}

// Get implements Storage.
func (m *Memory) Get(ctx context.Context, key string, w io.Writer) (int64, error) {
	m.mu.RLock()
	obj, ok := m.mu.objects[key]
	m.mu.RUnlock()
	if !ok {
		return 0, errors.Wrapf(ErrNotFound, "%q", key)
	}
	return io.Copy(w, contextReader{ctx, bytes.NewReader(obj.data)})
}

// Stat implements Storage.
func (m *Memory) Stat(_ context.Context, key string) (Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.mu.objects[key]
	if !ok {
		return Object{}, errors.Wrapf(ErrNotFound, "%q", key)
	}
	return Object{Key: key, Size: int64(len(obj.data)), LastModified: obj.modified}, nil
}

// List implements Storage. It enumerates a snapshot taken when iteration starts.
func (m *Memory) List(ctx context.Context, prefix string) iter.Seq2[Object, error] {
	return func(yield func(Object, error) bool) {
		m.mu.RLock()
		snapshot := make([]Object, 0, len(m.mu.objects))
		for _, key := range slices.Sorted(maps.Keys(m.mu.objects)) {
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			obj := m.mu.objects[key]
			snapshot = append(snapshot, Object{Key: key, Size: int64(len(obj.data)), LastModified: obj.modified})
		}
		m.mu.RUnlock()
		for _, obj := range snapshot {
			if err := ctx.Err(); err != nil {
				yield(Object{}, err)
				return
			}
			if !yield(obj, nil) {
				return
			}
		}
	}
}

// Delete implements Storage.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.mu.objects, key)
	return nil
}

// Close implements Storage.
func (m *Memory) Close() error {
	return nil
}

// Len returns the number of stored objects.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.mu.objects)
}

// contextReader stops reading once the context is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
