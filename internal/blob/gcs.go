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
	"context"
	"io"
	"iter"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/cockroachdb/errors"
	"github.com/cockroachlabs-field/backupfs/internal/env"
)

type gcsStore struct {
	client *storage.Client
	root   root
}

var _ Storage = &gcsStore{}

// GCSFromEnv creates a store backed by a Google Cloud Storage bucket, using
// application default credentials.
func GCSFromEnv(ctx context.Context, env *env.Env) (Storage, error) {
	var opts []option.ClientOption
	if env.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(env.Endpoint))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create gcs client")
	}
	return &gcsStore{client: client, root: newRoot(env.Path)}, nil
}

func (s *gcsStore) object(key string) *storage.ObjectHandle {
	return s.client.Bucket(s.root.bucket).Object(s.root.full(key))
}

// BucketName implements Storage.
func (s *gcsStore) BucketName() string {
	return s.root.bucket
}

// Put implements Storage. The object is committed when the writer is closed;
// an aborted upload leaves any previous object in place.
func (s *gcsStore) Put(ctx context.Context, key string, r io.Reader, _ int64) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	w := s.object(key).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		cancel()
		_ = w.Close()
		return gcsError(err, key)
	}
	return gcsError(w.Close(), key)
}

// Get implements Storage.
func (s *gcsStore) Get(ctx context.Context, key string, w io.Writer) (int64, error) {
	rc, err := s.object(key).NewReader(ctx)
	if err != nil {
		return 0, gcsError(err, key)
	}
	defer rc.Close()
	n, err := io.Copy(w, rc)
	return n, gcsError(err, key)
}

// Stat implements Storage.
func (s *gcsStore) Stat(ctx context.Context, key string) (Object, error) {
	attrs, err := s.object(key).Attrs(ctx)
	if err != nil {
		return Object{}, gcsError(err, key)
	}
	return Object{Key: key, Size: attrs.Size, LastModified: attrs.Updated}, nil
}

// List implements Storage.
func (s *gcsStore) List(ctx context.Context, prefix string) iter.Seq2[Object, error] {
	return func(yield func(Object, error) bool) {
		it := s.client.Bucket(s.root.bucket).Objects(ctx, &storage.Query{Prefix: s.root.full(prefix)})
		for {
			attrs, err := it.Next()
			if errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				yield(Object{}, gcsError(err, prefix))
				return
			}
			obj := Object{Key: s.root.rel(attrs.Name), Size: attrs.Size, LastModified: attrs.Updated}
			if !yield(obj, nil) {
				return
			}
		}
	}
}

// Delete implements Storage.
func (s *gcsStore) Delete(ctx context.Context, key string) error {
	err := s.object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return gcsError(err, key)
}

// Close implements Storage.
func (s *gcsStore) Close() error {
	return s.client.Close()
}

func gcsError(err error, key string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrObjectNotExist) {
		return errors.Wrapf(ErrNotFound, "%q", key)
	}
	return errors.Wrapf(err, "gcs %q", key)
}
