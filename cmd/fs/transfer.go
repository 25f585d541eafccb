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

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/cockroachlabs-field/backupfs/internal/env"
	"github.com/cockroachlabs-field/backupfs/internal/session"
)

func uploadCommand(env *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <local file> <remote key>",
		Short: "Uploads a local file as a backup artifact",
		Args:  cobra.ExactArgs(2),
		RunE: withSession(env, func(cmd *cobra.Command, ctx *stopper.Context, s *session.Session, args []string) error {
			n, err := s.FS.Upload(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s to %s\n", humanize.Bytes(uint64(n)), args[1])
			return nil
		}),
	}
}

func downloadCommand(env *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "download <remote key> <local file>",
		Short: "Downloads a backup artifact",
		Long: `Downloads a backup artifact. Downloading a META artifact writes a JSON
array naming every SNAP artifact of its scope.`,
		Args: cobra.ExactArgs(2),
		RunE: withSession(env, func(cmd *cobra.Command, ctx *stopper.Context, s *session.Session, args []string) error {
			if err := s.FS.Download(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "downloaded %s to %s\n", args[0], args[1])
			return nil
		}),
	}
}

func sizeCommand(env *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "size <remote key>",
		Short: "Prints the size of a backup artifact",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(env, func(cmd *cobra.Command, ctx *stopper.Context, s *session.Session, args []string) error {
			n, err := s.FS.GetFileSize(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d (%s)\n", n, humanize.Bytes(uint64(n)))
			return nil
		}),
	}
}
