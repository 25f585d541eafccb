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
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/cockroachdb/errors"
	"github.com/cockroachlabs-field/backupfs/internal/env"
)

type minioStore struct {
	client *minio.Client
	root   root
}

var _ Storage = &minioStore{}

// MinioFromEnv creates a store backed by a MinIO server. It reads the same
// credential variables as the S3 store.
func MinioFromEnv(ctx context.Context, env *env.Env) (Storage, error) {
	creds, ok := lookupEnv(env, []string{AccountParam, SecretParam}, []string{TokenParam, RegionParam})
	if !ok {
		return nil, ErrMissingParam
	}
	endpoint, err := url.Parse(env.Endpoint)
	if err != nil || endpoint.Host == "" {
		return nil, errors.Newf("invalid minio endpoint %q", env.Endpoint)
	}
	client, err := minio.New(endpoint.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(creds[AccountParam], creds[SecretParam], creds[TokenParam]),
		Secure: endpoint.Scheme == "https",
		Region: creds[RegionParam],
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create minio client")
	}
	s := &minioStore{client: client, root: newRoot(env.Path)}
	found, err := client.BucketExists(ctx, s.root.bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check bucket %q", s.root.bucket)
	}
	if !found {
		return nil, errors.Newf("bucket %q does not exist", s.root.bucket)
	}
	return s, nil
}

// BucketName implements Storage.
func (s *minioStore) BucketName() string {
	return s.root.bucket
}

// Put implements Storage.
func (s *minioStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.root.bucket, s.root.full(key), r, size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	return minioError(err, key)
}

// Get implements Storage.
func (s *minioStore) Get(ctx context.Context, key string, w io.Writer) (int64, error) {
	obj, err := s.client.GetObject(ctx, s.root.bucket, s.root.full(key), minio.GetObjectOptions{})
	if err != nil {
		return 0, minioError(err, key)
	}
	defer obj.Close()
	n, err := io.Copy(w, obj)
	return n, minioError(err, key)
}

// Stat implements Storage.
func (s *minioStore) Stat(ctx context.Context, key string) (Object, error) {
	info, err := s.client.StatObject(ctx, s.root.bucket, s.root.full(key), minio.StatObjectOptions{})
	if err != nil {
		return Object{}, minioError(err, key)
	}
	return Object{Key: key, Size: info.Size, LastModified: info.LastModified}, nil
}

// List implements Storage.
func (s *minioStore) List(ctx context.Context, prefix string) iter.Seq2[Object, error] {
	return func(yield func(Object, error) bool) {
		// Cancelling drains the listing goroutine when the caller stops early.
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		for info := range s.client.ListObjects(ctx, s.root.bucket, minio.ListObjectsOptions{
			Prefix:    s.root.full(prefix),
			Recursive: true,
		}) {
			if info.Err != nil {
				yield(Object{}, minioError(info.Err, prefix))
				return
			}
			obj := Object{Key: s.root.rel(info.Key), Size: info.Size, LastModified: info.LastModified}
			if !yield(obj, nil) {
				return
			}
		}
	}
}

// Delete implements Storage.
func (s *minioStore) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.root.bucket, s.root.full(key), minio.RemoveObjectOptions{})
	return minioError(err, key)
}

// Close implements Storage.
func (s *minioStore) Close() error {
	return nil
}

func minioError(err error, key string) error {
	if err == nil {
		return nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return errors.Wrapf(ErrNotFound, "%q", key)
	}
	return errors.Wrapf(err, "minio %q", key)
}
