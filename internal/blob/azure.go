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
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/cockroachdb/errors"
	"github.com/cockroachlabs-field/backupfs/internal/env"
)

const (
	// AzureAccountParam is the storage account name.
	AzureAccountParam = "AZURE_STORAGE_ACCOUNT"
	// AzureSASParam is a container SAS token.
	AzureSASParam = "AZURE_STORAGE_SAS"
	// AzureClientIDParam is the service principal client ID.
	AzureClientIDParam = "AZURE_CLIENT_ID"
	// AzureClientSecretParam is the service principal secret.
	AzureClientSecretParam = "AZURE_CLIENT_SECRET"
	// AzureTenantIDParam is the service principal tenant.
	AzureTenantIDParam = "AZURE_TENANT_ID"
)

type azureStore struct {
	client *azblob.Client
	root   root
}

var _ Storage = &azureStore{}

// AzureFromEnv creates a store backed by an Azure Blob Storage container.
// The first path segment names the container.
// Credentials are picked in order: SAS, service principal, default credential chain.
func AzureFromEnv(_ context.Context, env *env.Env) (Storage, error) {
	vars, ok := lookupEnv(env, []string{AzureAccountParam},
		[]string{AzureSASParam, AzureClientIDParam, AzureClientSecretParam, AzureTenantIDParam})
	if !ok {
		return nil, errors.Newf("%s must be set", AzureAccountParam)
	}
	endpoint := env.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.blob.core.windows.net/", vars[AzureAccountParam])
	}
	client, err := newAzureClient(endpoint, vars)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create azure client")
	}
	return &azureStore{client: client, root: newRoot(env.Path)}, nil
}

func newAzureClient(endpoint string, vars map[string]string) (*azblob.Client, error) {
	if sas := strings.TrimPrefix(strings.TrimSpace(vars[AzureSASParam]), "?"); sas != "" {
		return azblob.NewClientWithNoCredential(endpoint+"?"+sas, nil)
	}
	if vars[AzureClientIDParam] != "" && vars[AzureClientSecretParam] != "" && vars[AzureTenantIDParam] != "" {
		cred, err := azidentity.NewClientSecretCredential(
			vars[AzureTenantIDParam], vars[AzureClientIDParam], vars[AzureClientSecretParam], nil,
		)
		if err != nil {
			return nil, err
		}
		return azblob.NewClient(endpoint, cred, nil)
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	return azblob.NewClient(endpoint, cred, nil)
}

// BucketName implements Storage.
func (s *azureStore) BucketName() string {
	return s.root.bucket
}

// Put implements Storage.
func (s *azureStore) Put(ctx context.Context, key string, r io.Reader, _ int64) error {
	_, err := s.client.UploadStream(ctx, s.root.bucket, s.root.full(key), r, nil)
	return azureError(err, key)
}

// Get implements Storage.
func (s *azureStore) Get(ctx context.Context, key string, w io.Writer) (int64, error) {
	resp, err := s.client.DownloadStream(ctx, s.root.bucket, s.root.full(key), nil)
	if err != nil {
		return 0, azureError(err, key)
	}
	defer resp.Body.Close()
	n, err := io.Copy(w, resp.Body)
	return n, azureError(err, key)
}

// Stat implements Storage.
func (s *azureStore) Stat(ctx context.Context, key string) (Object, error) {
	props, err := s.client.ServiceClient().
		NewContainerClient(s.root.bucket).
		NewBlobClient(s.root.full(key)).
		GetProperties(ctx, nil)
	if err != nil {
		return Object{}, azureError(err, key)
	}
	obj := Object{Key: key}
	if props.ContentLength != nil {
		obj.Size = *props.ContentLength
	}
	if props.LastModified != nil {
		obj.LastModified = *props.LastModified
	}
	return obj, nil
}

// List implements Storage.
func (s *azureStore) List(ctx context.Context, prefix string) iter.Seq2[Object, error] {
	return func(yield func(Object, error) bool) {
		pager := s.client.NewListBlobsFlatPager(s.root.bucket, &azblob.ListBlobsFlatOptions{
			Prefix: to.Ptr(s.root.full(prefix)),
		})
		for pager.More() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				yield(Object{}, azureError(err, prefix))
				return
			}
			for _, item := range page.Segment.BlobItems {
				if item.Name == nil {
					continue
				}
				obj := Object{Key: s.root.rel(*item.Name)}
				if item.Properties != nil {
					if item.Properties.ContentLength != nil {
						obj.Size = *item.Properties.ContentLength
					}
					if item.Properties.LastModified != nil {
						obj.LastModified = *item.Properties.LastModified
					}
				}
				if !yield(obj, nil) {
					return
				}
			}
		}
	}
}

// Delete implements Storage.
func (s *azureStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteBlob(ctx, s.root.bucket, s.root.full(key), nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return nil
	}
	return azureError(err, key)
}

// Close implements Storage.
func (s *azureStore) Close() error {
	return nil
}

func azureError(err error, key string) error {
	if err == nil {
		return nil
	}
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return errors.Wrapf(ErrNotFound, "%q", key)
	}
	return errors.Wrapf(err, "azure %q", key)
}
