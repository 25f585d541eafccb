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

	"github.com/cockroachdb/errors"
	"github.com/cockroachlabs-field/backupfs/internal/env"
)

// FromEnv opens the store selected by env.Provider.
func FromEnv(ctx context.Context, e *env.Env) (Storage, error) {
	switch e.Provider {
	case env.ProviderS3, "":
		return S3FromEnv(ctx, e)
	case env.ProviderMinio:
		return MinioFromEnv(ctx, e)
	case env.ProviderAzure:
		return AzureFromEnv(ctx, e)
	case env.ProviderGCS:
		return GCSFromEnv(ctx, e)
	case env.ProviderMemory:
		return NewMemory(newRoot(e.Path).bucket), nil
	default:
		return nil, errors.Newf("unsupported provider %q", e.Provider)
	}
}
