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

// Package verify provides the end-to-end validation command.
package verify

import (
	"github.com/spf13/cobra"

	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/cockroachlabs-field/backupfs/internal/env"
	"github.com/cockroachlabs-field/backupfs/internal/format"
	"github.com/cockroachlabs-field/backupfs/internal/session"
	"github.com/cockroachlabs-field/backupfs/internal/validate"
)

func command(env *env.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Performs an upload, list and download round trip against the object store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := stopper.WithContext(cmd.Context())
			s, err := session.Open(ctx, env)
			if err != nil {
				return err
			}
			defer s.Close()
			validator, err := validate.New(ctx, env, s.Store, s.FS)
			if err != nil {
				return err
			}
			defer validator.Clean(ctx)
			report, err := validator.Validate(ctx)
			if err != nil {
				return err
			}
			format.Report(cmd.OutOrStdout(), report)
			return nil
		},
	}
	return cmd
}

// Add the command.
func Add(env *env.Env, parent *cobra.Command) {
	cmd := command(env)
	parent.AddCommand(cmd)
}
