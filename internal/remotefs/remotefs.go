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

// Package remotefs implements the remote backup file system: time-windowed
// listing of backup artifacts, uploads, downloads with manifest
// reconstruction, size queries and retention cleanup, on top of a
// blob.Storage.
package remotefs

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachlabs-field/backupfs/internal/backuppath"
	"github.com/cockroachlabs-field/backupfs/internal/blob"
)

var (
	// ErrTransfer marks I/O and network failures. The underlying cause
	// remains reachable through errors.Is.
	ErrTransfer = errors.New("transfer failed")
	// ErrNotFound marks operations on a key that does not exist.
	ErrNotFound = errors.New("backup artifact not found")
)

// FileSystem is the remote backup file system.
type FileSystem interface {
	// List returns the artifacts of scope whose time falls in [start, till).
	List(ctx context.Context, scope string, start, till time.Time) ([]backuppath.Path, error)
	// ListPrefixes returns the distinct scopes having an artifact at or before asOf.
	ListPrefixes(ctx context.Context, asOf time.Time) ([]string, error)
	// Download copies the artifact at remoteKey to localPath.
	Download(ctx context.Context, remoteKey, localPath string) error
	// Upload copies localPath to remoteKey and returns the number of bytes sent.
	Upload(ctx context.Context, localPath, remoteKey string) (int64, error)
	// GetFileSize returns the size of the artifact at remoteKey.
	GetFileSize(ctx context.Context, remoteKey string) (int64, error)
	// Cleanup removes stale artifacts and returns how many were removed.
	Cleanup(ctx context.Context) (int, error)
}

// Codec maps remote keys to paths and back.
type Codec interface {
	Parse(remoteKey string) (backuppath.Path, error)
	Format(p backuppath.Path) string
}

// transferError classifies a store failure.
func transferError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	wrapped := errors.Wrapf(err, format, args...)
	if errors.Is(err, blob.ErrNotFound) {
		return errors.Mark(wrapped, ErrNotFound)
	}
	return errors.Mark(wrapped, ErrTransfer)
}
