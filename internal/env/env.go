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

package env

import "time"

// LookupEnv is a function that retrieves the value of an environment variable.
type LookupEnv func(key string) (string, bool)

// Supported storage providers.
const (
	ProviderAzure  = "azure"
	ProviderGCS    = "gcs"
	ProviderMemory = "memory"
	ProviderMinio  = "minio"
	ProviderS3     = "s3"
)

// Env holds the environment configuration.
type Env struct {
	Compat           bool          // reproduce the legacy listing window semantics
	Endpoint         string        // the object store endpoint
	EnvFile          string        // optional dotenv file loaded before credential lookup
	LedgerURL        string        // transfer ledger location; empty keeps it in memory
	LookupEnv        LookupEnv     // allows injection of environment variable lookup for testing
	MetricsAddr      string        // address serving prometheus metrics; empty disables it
	Path             string        // the bucket path (bucket/prefix)
	Provider         string        // one of the Provider constants
	Retention        time.Duration // artifacts older than this are removed by cleanup; zero disables it
	RetryAttempts    int           // maximum attempts per transfer; values below 2 disable retries
	Testing          bool          // enables testing mode
	Verbose          bool          // enables verbose logging
	Workers          int           // number of concurrent workers
	WorkloadDuration time.Duration // duration to run the workload
}
