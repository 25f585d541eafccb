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
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/cockroachlabs-field/backupfs/internal/backuppath"
)

// writeManifest writes the remote keys of every SNAP artifact in the scope
// of meta to localPath as a JSON array, in enumeration order.
func (e *Engine) writeManifest(ctx context.Context, meta backuppath.Path, localPath string) (int64, error) {
	keys, err := e.snapshotKeys(ctx, meta.Scope())
	if err != nil {
		return 0, err
	}
	data, err := json.Marshal(keys)
	if err != nil {
		return 0, errors.Wrap(err, "encoding manifest")
	}
	n, err := writeAtomic(localPath, func(w io.Writer) (int64, error) {
		n, err := w.Write(data)
		return int64(n), err
	})
	if err != nil {
		return 0, transferError(err, "writing manifest to %q", localPath)
	}
	return n, nil
}

func (e *Engine) snapshotKeys(ctx context.Context, scope backuppath.Scope) ([]string, error) {
	keys := make([]string, 0)
	seen := make(map[string]struct{})
	for p, err := range e.walk(ctx, scope.Prefix()) {
		if err != nil {
			return nil, err
		}
		if p.Type() != backuppath.Snap || p.Scope() != scope {
			continue
		}
		key := e.codec.Format(p)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys, nil
}

// ReadManifest decodes a manifest produced by downloading a META artifact.
func ReadManifest(r io.Reader) ([]string, error) {
	var keys []string
	if err := json.NewDecoder(r).Decode(&keys); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decoding manifest"), backuppath.ErrParse)
	}
	return keys, nil
}
