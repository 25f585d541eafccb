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

// Package fs provides the commands operating on the remote backup file system.
package fs

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/cockroachlabs-field/backupfs/internal/backuppath"
	"github.com/cockroachlabs-field/backupfs/internal/env"
	"github.com/cockroachlabs-field/backupfs/internal/session"
)

const stopGracePeriod = 5 * time.Second

type runFn func(cmd *cobra.Command, ctx *stopper.Context, s *session.Session, args []string) error

// withSession opens a session for the duration of fn.
func withSession(env *env.Env, fn runFn) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		ctx := stopper.WithContext(cmd.Context())
		defer func() {
			ctx.Stop(stopGracePeriod)
			if werr := ctx.Wait(); werr != nil && err == nil {
				err = werr
			}
		}()
		s, err := session.Open(ctx, env)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, s.Close()) }()
		return fn(cmd, ctx, s, args)
	}
}

// parseTime accepts RFC 3339 or the remote key time layout. An empty
// string returns def.
func parseTime(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(backuppath.TimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, errors.Newf("invalid time %q: use RFC 3339 or %s", s, backuppath.TimeLayout)
	}
	return t, nil
}

// endOfNow is the exclusive window end covering the current second.
func endOfNow() time.Time {
	return time.Now().UTC().Truncate(time.Second).Add(time.Second)
}

// Add the commands.
func Add(env *env.Env, parent *cobra.Command) {
	parent.AddCommand(
		listCommand(env),
		prefixesCommand(env),
		uploadCommand(env),
		downloadCommand(env),
		sizeCommand(env),
		cleanupCommand(env),
		historyCommand(env),
	)
}
