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

// Package blob provides the object store primitives the remote file system
// is built on, with adapters for S3, MinIO, Azure Blob Storage, Google Cloud
// Storage and an in-memory store.
package blob

import (
	"context"
	"io"
	"iter"
	"maps"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("object not found")

// Object describes a stored object.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Storage is the set of primitives an object store must provide.
// Keys are relative to the storage root; implementations must commit a Put
// atomically so that concurrent writers to one key never interleave.
type Storage interface {
	// BucketName returns the name of the bucket or container.
	BucketName() string
	// Put stores size bytes read from r under key, replacing any previous object.
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	// Get writes the content of key to w and returns the number of bytes written.
	Get(ctx context.Context, key string, w io.Writer) (int64, error)
	// Stat returns the object stored under key.
	Stat(ctx context.Context, key string) (Object, error)
	// List enumerates the objects whose key starts with prefix, in key order.
	List(ctx context.Context, prefix string) iter.Seq2[Object, error]
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the resources held by the store.
	Close() error
}

// Describer is implemented by stores that expose their connection parameters.
type Describer interface {
	// Params returns a copy of the params, with secrets obfuscated.
	Params() Params
	// URL returns a escaped URL.
	URL() string
}

// Params holds provider parameters.
type Params map[string]string

// Iter yields the params in key order.
func (p Params) Iter() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, k := range slices.Sorted(maps.Keys(p)) {
			if !yield(k, p[k]) {
				return
			}
		}
	}
}

// root splits a bucket path (bucket/prefix) into its bucket and prefix.
type root struct {
	bucket string
	prefix string
}

func newRoot(dest string) root {
	cleaned := strings.Trim(path.Clean(dest), "/")
	if cleaned == "." {
		return root{}
	}
	bucket, prefix, _ := strings.Cut(cleaned, "/")
	return root{bucket: bucket, prefix: prefix}
}

// full returns the store key for a key relative to the root.
func (r root) full(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + "/" + key
}

// rel returns the key relative to the root.
func (r root) rel(key string) string {
	if r.prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, r.prefix+"/")
}
