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

// Package validate runs an end-to-end round trip against a remote backup
// file system.
package validate

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/cockroachlabs-field/backupfs/internal/backuppath"
	"github.com/cockroachlabs-field/backupfs/internal/blob"
	"github.com/cockroachlabs-field/backupfs/internal/env"
	"github.com/cockroachlabs-field/backupfs/internal/remotefs"
	"github.com/cockroachlabs-field/backupfs/internal/workload"
)

const (
	// BaseDir is the namespace holding validation artifacts.
	BaseDir = "_backupfs"
	region  = "verify"
)

// Stat describes one validation step.
type Stat struct {
	Step     string
	Bytes    int64
	Duration time.Duration
}

// Throughput returns the transfer rate of the step, or "-" when the step
// moved no data.
func (s *Stat) Throughput() string {
	if s.Bytes == 0 || s.Duration <= 0 {
		return "-"
	}
	return fmt.Sprintf("%s/s", humanize.Bytes(uint64(float64(s.Bytes)/s.Duration.Seconds())))
}

// Report contains the results of a validation run.
type Report struct {
	SuggestedParams blob.Params
	Stats           []*Stat
}

// Validator verifies upload, listing and download against a store.
type Validator struct {
	env   *env.Env
	store blob.Storage
	fs    remotefs.FileSystem
	scope backuppath.Scope
	at    time.Time
	dir   string

	uploads []workload.Upload
	meta    backuppath.Path
}

// New creates a new Validator. Artifacts are written under a fresh scope
// so that concurrent runs against the same bucket do not interfere.
func New(
	ctx *stopper.Context, env *env.Env, store blob.Storage, fs remotefs.FileSystem,
) (*Validator, error) {
	if err := preflight(env, store, fs); err != nil {
		return nil, err
	}
	dir, err := os.MkdirTemp("", "backupfs-verify-")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create scratch directory")
	}
	scope := backuppath.Scope{BaseDir: BaseDir, Region: region, ClusterName: uuid.NewString()}
	slog.Debug("validation scope", slog.String("scope", scope.String()), slog.String("dir", dir))
	return &Validator{
		env:   env,
		store: store,
		fs:    fs,
		scope: scope,
		at:    time.Now().UTC().Truncate(time.Second),
		dir:   dir,
	}, nil
}

// preflight validates the input parameters for New.
func preflight(env *env.Env, store blob.Storage, fs remotefs.FileSystem) error {
	if env == nil {
		return errors.New("environment cannot be nil")
	}
	if store == nil {
		return errors.New("blob storage cannot be nil")
	}
	if fs == nil {
		return errors.New("file system cannot be nil")
	}
	if env.Workers < 0 {
		return errors.New("workers count cannot be negative")
	}
	if env.WorkloadDuration <= 0 {
		return errors.New("workload duration must be positive")
	}
	return nil
}

// Scope returns the scope holding the validation artifacts.
func (v *Validator) Scope() backuppath.Scope {
	return v.scope
}

// Clean removes all resources created by the validator.
func (v *Validator) Clean(ctx *stopper.Context) error {
	slog.Debug("Starting cleanup of validator resources")
	var errs []error
	for obj, err := range v.store.List(ctx, v.scope.Prefix()) {
		if err != nil {
			errs = append(errs, errors.Wrap(err, "failed to list validation artifacts"))
			break
		}
		if err := v.store.Delete(ctx, obj.Key); err != nil {
			errs = append(errs, errors.Wrapf(err, "failed to delete %q", obj.Key))
		}
	}
	if err := os.RemoveAll(v.dir); err != nil {
		errs = append(errs, errors.Wrap(err, "failed to remove scratch directory"))
	}
	return errors.Join(errs...)
}

// validationStepFn is a function that performs a validation step and
// returns the number of bytes it moved.
type validationStepFn func(ctx *stopper.Context) (int64, error)

// validationStep represents a step in the validation process.
type validationStep struct {
	name string
	fn   validationStepFn
}

// Validate uploads a synthetic backup, lists it back, downloads every
// artifact and checks the reconstructed manifest.
func (v *Validator) Validate(ctx *stopper.Context) (*Report, error) {
	steps := []validationStep{
		{name: "upload snapshots", fn: v.runWorkload},
		{name: "upload manifest", fn: v.uploadManifest},
		{name: "list window", fn: v.checkList},
		{name: "list prefixes", fn: v.checkPrefixes},
		{name: "download snapshots", fn: v.checkDownloads},
		{name: "reconstruct manifest", fn: v.checkManifest},
		{name: "size missing artifact", fn: v.checkNotFound},
	}

	var stats []*Stat
	for _, step := range steps {
		if ctx.IsStopping() {
			return nil, ctx.Err()
		}
		slog.Info("running step", slog.String("step", step.name))
		start := time.Now()
		n, err := step.fn(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed during step: %s", step.name)
		}
		stats = append(stats, &Stat{Step: step.name, Bytes: n, Duration: time.Since(start)})
	}

	report := &Report{Stats: stats}
	if d, ok := v.store.(blob.Describer); ok {
		report.SuggestedParams = d.Params()
	}
	return report, nil
}
