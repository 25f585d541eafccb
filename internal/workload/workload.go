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

// Package workload uploads synthetic snapshot artifacts to a remote backup
// file system.
package workload

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/cockroachlabs-field/backupfs/internal/backuppath"
	"github.com/cockroachlabs-field/backupfs/internal/remotefs"
)

// DefaultMaxSize bounds the size of generated artifacts.
const DefaultMaxSize = 64 << 10

// Upload is an artifact written by the workload.
type Upload struct {
	Path  backuppath.Path
	Local string // local copy of the uploaded content
	Bytes int64
}

// Workload represents a workload to be run.
type Workload struct {
	// FS receives the uploads.
	FS remotefs.FileSystem
	// Scope and At place every artifact.
	Scope backuppath.Scope
	At    time.Time
	// Dir holds the generated local files.
	Dir string
	// MaxSize bounds the size of each artifact; zero selects DefaultMaxSize.
	MaxSize int
}

// Run uploads SNAP artifacts until done is closed or ctx is stopping.
func (w *Workload) Run(ctx *stopper.Context, done <-chan bool) ([]Upload, error) {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	var res []Upload
	for {
		up, err := w.upload(ctx, len(res))
		if err != nil {
			return res, err
		}
		res = append(res, up)
		select {
		case <-done:
			return res, nil
		case <-ctx.Stopping():
			return res, nil
		case <-ticker.C:
		}
	}
}

func (w *Workload) upload(ctx *stopper.Context, seq int) (Upload, error) {
	name := uuid.NewString()
	path, err := backuppath.New(w.Scope, backuppath.Snap, w.At, name)
	if err != nil {
		return Upload{}, err
	}
	maxSize := w.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	// Sizes cycle so that the empty artifact is always covered.
	data := make([]byte, (seq*4099)%maxSize)
	if _, err := rand.Read(data); err != nil {
		return Upload{}, errors.Wrap(err, "failed to generate artifact content")
	}
	local := filepath.Join(w.Dir, name)
	if err := os.WriteFile(local, data, 0o600); err != nil {
		return Upload{}, errors.Wrap(err, "failed to write artifact")
	}
	n, err := w.FS.Upload(ctx, local, path.RemotePath())
	if err != nil {
		return Upload{}, err
	}
	return Upload{Path: path, Local: local, Bytes: n}, nil
}
