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

package validate

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/cockroachlabs-field/backupfs/internal/backuppath"
	"github.com/cockroachlabs-field/backupfs/internal/remotefs"
)

const manifestName = "meta.json"

// uploadManifest uploads a META artifact next to the snapshots.
func (v *Validator) uploadManifest(ctx *stopper.Context) (int64, error) {
	meta, err := backuppath.New(v.scope, backuppath.Meta, v.at, manifestName)
	if err != nil {
		return 0, err
	}
	local := filepath.Join(v.dir, manifestName)
	if err := os.WriteFile(local, []byte("{}"), 0o600); err != nil {
		return 0, errors.Wrap(err, "failed to write manifest")
	}
	n, err := v.fs.Upload(ctx, local, meta.RemotePath())
	if err != nil {
		return 0, err
	}
	v.meta = meta
	return n, nil
}

// checkList verifies that the time window returns every uploaded artifact.
func (v *Validator) checkList(ctx *stopper.Context) (int64, error) {
	got, err := v.fs.List(ctx, "/"+v.scope.String(), v.at, v.at.Add(time.Second))
	if err != nil {
		return 0, err
	}
	want := append(v.uploadedKeys(), v.meta.RemotePath())
	if err := sameKeys(want, remoteKeys(got)); err != nil {
		return 0, errors.Wrap(err, "listing")
	}
	// The window excludes its end.
	after, err := v.fs.List(ctx, "/"+v.scope.String(), v.at.Add(time.Second), v.at.Add(time.Hour))
	if err != nil {
		return 0, err
	}
	if len(after) != 0 {
		return 0, errors.Newf("listing after the backup returned %d artifacts", len(after))
	}
	return 0, nil
}

// checkPrefixes verifies that the validation scope is enumerated.
func (v *Validator) checkPrefixes(ctx *stopper.Context) (int64, error) {
	prefixes, err := v.fs.ListPrefixes(ctx, v.at)
	if err != nil {
		return 0, err
	}
	if !slices.Contains(prefixes, v.scope.String()) {
		return 0, errors.Newf("prefix %q not listed", v.scope.String())
	}
	return 0, nil
}

// checkDownloads downloads every snapshot and compares it with the local copy.
func (v *Validator) checkDownloads(ctx *stopper.Context) (int64, error) {
	var total int64
	for _, up := range v.uploads {
		key := up.Path.RemotePath()
		size, err := v.fs.GetFileSize(ctx, key)
		if err != nil {
			return total, err
		}
		if size != up.Bytes {
			return total, errors.Newf("%q: size %d, uploaded %d", key, size, up.Bytes)
		}
		dest := up.Local + ".restored"
		if err := v.fs.Download(ctx, key, dest); err != nil {
			return total, err
		}
		want, err := os.ReadFile(up.Local)
		if err != nil {
			return total, errors.WithStack(err)
		}
		got, err := os.ReadFile(dest)
		if err != nil {
			return total, errors.WithStack(err)
		}
		if !bytes.Equal(want, got) {
			return total, errors.Newf("%q: downloaded content differs", key)
		}
		total += int64(len(got))
	}
	return total, nil
}

// checkManifest downloads the META artifact and checks that it names
// every snapshot.
func (v *Validator) checkManifest(ctx *stopper.Context) (int64, error) {
	dest := filepath.Join(v.dir, "manifest.restored")
	if err := v.fs.Download(ctx, v.meta.RemotePath(), dest); err != nil {
		return 0, err
	}
	f, err := os.Open(dest)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	defer f.Close()
	keys, err := remotefs.ReadManifest(f)
	if err != nil {
		return 0, err
	}
	if err := sameKeys(v.uploadedKeys(), keys); err != nil {
		return 0, errors.Wrap(err, "manifest")
	}
	info, err := f.Stat()
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return info.Size(), nil
}

// checkNotFound verifies that missing artifacts are reported as such.
func (v *Validator) checkNotFound(ctx *stopper.Context) (int64, error) {
	missing, err := backuppath.New(v.scope, backuppath.Snap, v.at, "missing")
	if err != nil {
		return 0, err
	}
	_, err = v.fs.GetFileSize(ctx, missing.RemotePath())
	if !errors.Is(err, remotefs.ErrNotFound) {
		return 0, errors.Newf("expected not found for %q, got %v", missing.RemotePath(), err)
	}
	return 0, nil
}

func (v *Validator) uploadedKeys() []string {
	keys := make([]string, 0, len(v.uploads))
	for _, up := range v.uploads {
		keys = append(keys, up.Path.RemotePath())
	}
	return keys
}

func remoteKeys(paths []backuppath.Path) []string {
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		keys = append(keys, p.RemotePath())
	}
	return keys
}

// sameKeys compares two key sets, ignoring order.
func sameKeys(want, got []string) error {
	want, got = slices.Sorted(slices.Values(want)), slices.Sorted(slices.Values(got))
	if !slices.Equal(want, got) {
		return errors.Newf("expected %d keys, got %d: %v", len(want), len(got), got)
	}
	return nil
}
