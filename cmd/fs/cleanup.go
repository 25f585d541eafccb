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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/cockroachlabs-field/backupfs/internal/env"
	"github.com/cockroachlabs-field/backupfs/internal/format"
	"github.com/cockroachlabs-field/backupfs/internal/session"
)

func cleanupCommand(env *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Removes artifacts older than the retention period",
		Args:  cobra.NoArgs,
		RunE: withSession(env, func(cmd *cobra.Command, ctx *stopper.Context, s *session.Session, _ []string) error {
			removed, err := s.FS.Cleanup(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d artifacts\n", removed)
			return nil
		}),
	}
}

func historyCommand(env *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Prints the transfers recorded in the ledger",
		Args:  cobra.NoArgs,
		RunE: withSession(env, func(cmd *cobra.Command, ctx *stopper.Context, s *session.Session, _ []string) error {
			entries, err := s.Ledger.Entries(ctx)
			if err != nil {
				return err
			}
			format.Transfers(cmd.OutOrStdout(), entries)
			return nil
		}),
	}
}
