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
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/require"

	"github.com/cockroachlabs-field/backupfs/internal/env"
)

// minioEndpointVar names the variable holding the endpoint of a MinIO
// server used by integration tests (e.g. http://localhost:29000).
const minioEndpointVar = "BACKUPFS_TEST_MINIO_ENDPOINT"

func createMinioBucket(t *testing.T, endpoint string, vars Params, bucketName string) {
	u, err := url.Parse(endpoint)
	require.NoError(t, err)
	minioClient, err := minio.New(u.Host, &minio.Options{
		Creds: credentials.NewStaticV4(vars[AccountParam], vars[SecretParam], ""),
	})
	require.NoError(t, err)
	found, err := minioClient.BucketExists(t.Context(), bucketName)
	require.NoError(t, err)
	if found {
		slog.Debug("Bucket already exists", slog.String("bucket", bucketName))
		return
	}
	require.NoError(t, minioClient.MakeBucket(t.Context(), bucketName,
		minio.MakeBucketOptions{
			Region:        "us-east-1",
			ObjectLocking: false,
		},
	))
}

// TestMinio exercises the S3 and MinIO adapters against a MinIO instance.
func TestMinio(t *testing.T) {
	endpoint, ok := os.LookupEnv(minioEndpointVar)
	if !ok {
		t.Skipf("%s not set", minioEndpointVar)
	}
	vars := Params{
		AccountParam: "cockroach",
		SecretParam:  "cockroach",
		RegionParam:  "us-east-1",
	}
	lookup := func(key string) (string, bool) {
		val, ok := vars[key]
		return val, ok
	}
	bucketName := fmt.Sprintf("bucket-%d", time.Now().UnixMilli())
	createMinioBucket(t, endpoint, vars, bucketName)

	for _, provider := range []string{env.ProviderS3, env.ProviderMinio} {
		t.Run(provider, func(t *testing.T) {
			r := require.New(t)
			ctx := t.Context()
			e := &env.Env{
				Endpoint:  endpoint,
				LookupEnv: lookup,
				Path:      bucketName + "/" + provider,
				Provider:  provider,
				Testing:   true,
			}
			store, err := FromEnv(ctx, e)
			r.NoError(err)
			defer store.Close()

			key := "b/r/c/SNAP/20240101000000/f1"
			r.NoError(store.Put(ctx, key, strings.NewReader("hello"), 5))
			obj, err := store.Stat(ctx, key)
			r.NoError(err)
			r.Equal(int64(5), obj.Size)

			var buf bytes.Buffer
			_, err = store.Get(ctx, key, &buf)
			r.NoError(err)
			r.Equal("hello", buf.String())

			var keys []string
			for obj, err := range store.List(ctx, "b/") {
				r.NoError(err)
				keys = append(keys, obj.Key)
			}
			r.Equal([]string{key}, keys)

			r.NoError(store.Delete(ctx, key))
			_, err = store.Stat(ctx, key)
			r.ErrorIs(err, ErrNotFound)
		})
	}
}
