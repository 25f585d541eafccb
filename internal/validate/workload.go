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
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/cockroachlabs-field/backupfs/internal/workload"
)

// runWorkload runs the upload workers concurrently for the workload duration.
func (v *Validator) runWorkload(ctx *stopper.Context) (int64, error) {
	var mu sync.Mutex
	var errs []error
	done := make(chan bool)
	g := sync.WaitGroup{}
	for w := range v.env.Workers {
		g.Add(1)
		ctx.Go(func(ctx *stopper.Context) error {
			defer g.Done()
			uploads, err := v.runWorkloadWorker(ctx, w, done)
			mu.Lock()
			defer mu.Unlock()
			v.uploads = append(v.uploads, uploads...)
			if err != nil {
				errs = append(errs, err)
			}
			return err
		})
	}
	select {
	case <-time.After(v.env.WorkloadDuration):
		// signal workload to stop
		close(done)
	case <-ctx.Stopping():
	}
	g.Wait()
	slog.Info("workers done", slog.Int("uploads", len(v.uploads)))
	if err := errors.Join(errs...); err != nil {
		return 0, err
	}
	var total int64
	for _, up := range v.uploads {
		total += up.Bytes
	}
	return total, nil
}

// runWorkloadWorker runs a single worker instance.
func (v *Validator) runWorkloadWorker(
	ctx *stopper.Context, workerID int, done <-chan bool,
) ([]workload.Upload, error) {
	slog.Debug("starting", "worker", workerID)
	w := workload.Workload{
		FS:    v.fs,
		Scope: v.scope,
		At:    v.at,
		Dir:   v.dir,
	}
	uploads, err := w.Run(ctx, done)
	if err != nil {
		slog.Error("worker failed", "worker", workerID, "error", err)
		return uploads, errors.Wrapf(err, "worker %d failed", workerID)
	}
	return uploads, nil
}
