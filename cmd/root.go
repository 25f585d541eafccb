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

// Package cmd wires the command line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cockroachlabs-field/backupfs/cmd/fs"
	"github.com/cockroachlabs-field/backupfs/cmd/verify"
	"github.com/cockroachlabs-field/backupfs/internal/env"
)

var verbosity int
var envConfig = &env.Env{
	LookupEnv: os.LookupEnv,
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "backupfs",
	Short: "backupfs manages database backup artifacts stored in an object store",
	Long: `backupfs lists, uploads and downloads backup artifacts laid out as
base/region/cluster/type/time/file in an object store, reconstructs
snapshot manifests, applies a retention period, and verifies that a
storage provider supports the full round trip.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if envConfig.EnvFile != "" {
			if err := godotenv.Load(envConfig.EnvFile); err != nil {
				return errors.Wrapf(err, "loading %s", envConfig.EnvFile)
			}
		}
		if envConfig.Path == "" && envConfig.Provider != env.ProviderMemory {
			return errors.New("path cannot be blank")
		}
		if envConfig.RetryAttempts < 0 {
			return errors.New("retries cannot be negative")
		}
		if verbosity > 0 {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
		if verbosity > 1 {
			envConfig.Verbose = true
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	fs.Add(envConfig, rootCmd)
	verify.Add(envConfig, rootCmd)
	f := rootCmd.PersistentFlags()
	f.StringVar(&envConfig.Provider, "provider", env.ProviderS3,
		"object store provider: s3, minio, azure, gcs or memory")
	f.StringVar(&envConfig.Path, "path", envConfig.Path, "destination path (e.g. bucket/folder)")
	f.StringVar(&envConfig.Endpoint, "endpoint", envConfig.Endpoint, "http endpoint")
	f.StringVar(&envConfig.EnvFile, "env-file", "", "dotenv file holding the provider credentials")
	f.StringVar(&envConfig.LedgerURL, "ledger", "",
		"transfer ledger: sqlite://<file> or a CockroachDB postgresql:// URL (default: in memory)")
	f.StringVar(&envConfig.MetricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	f.BoolVar(&envConfig.Compat, "compat", false,
		"use the legacy listing semantics, which may include artifacts of other clusters")
	f.DurationVar(&envConfig.Retention, "retention", 0, "cleanup removes artifacts older than this")
	f.IntVar(&envConfig.RetryAttempts, "retries", 3, "maximum attempts per transfer")
	f.BoolVar(&envConfig.Testing, "testing", false, "relax TLS verification for test endpoints")
	f.CountVarP(&verbosity, "verbosity", "v", "increase logging verbosity to debug")
	f.IntVar(&envConfig.Workers, "workers", 5, "number of concurrent workers for verify")
	f.DurationVar(&envConfig.WorkloadDuration, "workload-duration", 5*time.Second, "duration of the verify workload")
	err := rootCmd.Execute()

	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
