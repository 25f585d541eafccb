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

package backuppath

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Scope identifies the backup namespace of one cluster.
type Scope struct {
	BaseDir     string
	Region      string
	ClusterName string
}

// ParseScope extracts a Scope from a scope string. The first segment is
// ignored; the next three supply BaseDir, Region and ClusterName.
// A string with fewer than two segments carries no scope constraint, and
// ok is false. Two or three segments are an error.
func ParseScope(s string) (scope Scope, ok bool, err error) {
	parts := strings.Split(s, Separator)
	if len(parts) < 2 {
		return Scope{}, false, nil
	}
	if len(parts) < 4 {
		return Scope{}, false, errors.Mark(
			errors.Newf("scope %q: expected at least 4 segments, got %d", s, len(parts)), ErrParse)
	}
	scope = Scope{BaseDir: parts[1], Region: parts[2], ClusterName: parts[3]}
	if err := scope.validate(); err != nil {
		return Scope{}, false, errors.Wrapf(err, "scope %q", s)
	}
	return scope, true, nil
}

// Prefix returns the store enumeration prefix for the scope.
func (s Scope) Prefix() string {
	return s.String() + Separator
}

// String returns baseDir/region/clusterName.
func (s Scope) String() string {
	return strings.Join([]string{s.BaseDir, s.Region, s.ClusterName}, Separator)
}

func (s Scope) validate() error {
	if err := validField("base dir", s.BaseDir); err != nil {
		return err
	}
	if err := validField("region", s.Region); err != nil {
		return err
	}
	return validField("cluster name", s.ClusterName)
}
