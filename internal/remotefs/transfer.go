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
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/cockroachlabs-field/backupfs/internal/backuppath"
)

// Download implements FileSystem. A META key is answered with a manifest
// of the SNAP artifacts in its scope rather than with stored bytes.
func (e *Engine) Download(ctx context.Context, remoteKey, localPath string) error {
	path, err := e.codec.Parse(remoteKey)
	if err != nil {
		return err
	}
	n, err := e.download(ctx, path, localPath)
	e.finish(ctx, path, Download, n, err)
	return err
}

func (e *Engine) download(ctx context.Context, path backuppath.Path, localPath string) (int64, error) {
	key := e.codec.Format(path)
	if err := ctx.Err(); err != nil {
		return 0, transferError(err, "downloading %q", key)
	}
	if path.Type() == backuppath.Meta {
		return e.writeManifest(ctx, path, localPath)
	}
	if _, err := e.store.Stat(ctx, key); err != nil {
		return 0, transferError(err, "downloading %q", key)
	}
	n, err := writeAtomic(localPath, func(w io.Writer) (int64, error) {
		return e.store.Get(ctx, key, w)
	})
	if err != nil {
		return 0, transferError(err, "downloading %q to %q", key, localPath)
	}
	return n, nil
}

// Upload implements FileSystem. Re-uploading to the same key replaces the
// previous object.
func (e *Engine) Upload(ctx context.Context, localPath, remoteKey string) (int64, error) {
	path, err := e.codec.Parse(remoteKey)
	if err != nil {
		return 0, err
	}
	n, err := e.upload(ctx, localPath, path)
	e.finish(ctx, path, Upload, n, err)
	return n, err
}

func (e *Engine) upload(ctx context.Context, localPath string, path backuppath.Path) (int64, error) {
	key := e.codec.Format(path)
	if err := ctx.Err(); err != nil {
		return 0, transferError(err, "uploading %q", key)
	}
	f, err := os.Open(localPath)
	if err != nil {
		return 0, transferError(err, "opening %q", localPath)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return 0, transferError(err, "stat %q", localPath)
	}
	if err := e.store.Put(ctx, key, f, info.Size()); err != nil {
		return 0, transferError(err, "uploading %q to %q", localPath, key)
	}
	return info.Size(), nil
}

// GetFileSize implements FileSystem.
func (e *Engine) GetFileSize(ctx context.Context, remoteKey string) (int64, error) {
	obj, err := e.store.Stat(ctx, remoteKey)
	if err != nil {
		return 0, transferError(err, "stat %q", remoteKey)
	}
	return obj.Size, nil
}

// writeAtomic fills a temporary file next to dest and renames it into
// place. dest is untouched unless fill succeeds.
func writeAtomic(dest string, fill func(io.Writer) (int64, error)) (int64, error) {
	f, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return 0, err
	}
	n, err := fill(f)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(f.Name(), dest)
	}
	if err != nil {
		if rerr := os.Remove(f.Name()); rerr != nil && !os.IsNotExist(rerr) {
			err = errors.Join(err, rerr)
		}
		return 0, err
	}
	return n, nil
}
