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

package fs

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/cockroachlabs-field/backupfs/internal/env"
	"github.com/cockroachlabs-field/backupfs/internal/format"
	"github.com/cockroachlabs-field/backupfs/internal/session"
)

func listCommand(env *env.Env) *cobra.Command {
	var start, till string
	cmd := &cobra.Command{
		Use:   "list <scope>",
		Short: "Lists the artifacts of a scope in a time window",
		Long: `Lists the artifacts whose backup time falls in [start, till).
The scope is a path whose 2nd, 3rd and 4th segments name the base
directory, the region and the cluster, e.g. /backups/us-east-1/main.
A scope with a single segment matches every cluster.`,
		Args: cobra.ExactArgs(1),
		RunE: withSession(env, func(cmd *cobra.Command, ctx *stopper.Context, s *session.Session, args []string) error {
			from, err := parseTime(start, time.Time{})
			if err != nil {
				return err
			}
			to, err := parseTime(till, endOfNow())
			if err != nil {
				return err
			}
			paths, err := s.FS.List(ctx, args[0], from, to)
			if err != nil {
				return err
			}
			format.Artifacts(cmd.OutOrStdout(), paths)
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&start, "start", "", "window start, inclusive (default: the beginning of time)")
	f.StringVar(&till, "till", "", "window end, exclusive (default: now)")
	return cmd
}

func prefixesCommand(env *env.Env) *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "prefixes",
		Short: "Lists the scopes holding artifacts",
		Args:  cobra.NoArgs,
		RunE: withSession(env, func(cmd *cobra.Command, ctx *stopper.Context, s *session.Session, _ []string) error {
			at, err := parseTime(asOf, time.Now().UTC())
			if err != nil {
				return err
			}
			prefixes, err := s.FS.ListPrefixes(ctx, at)
			if err != nil {
				return err
			}
			format.Prefixes(cmd.OutOrStdout(), prefixes)
			return nil
		}),
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "only consider artifacts at or before this time (default: now)")
	return cmd
}
