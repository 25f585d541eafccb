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
	"time"

	"github.com/cockroachdb/errors"
)

const fieldCount = 6

// Codec maps a Path to its remote key and back:
//
//	{baseDir}/{region}/{clusterName}/{type}/{time}/{fileName}
type Codec struct{}

// Format encodes p as a remote key.
func (Codec) Format(p Path) string {
	return strings.Join([]string{
		p.scope.BaseDir,
		p.scope.Region,
		p.scope.ClusterName,
		p.typ.String(),
		p.time.UTC().Format(TimeLayout),
		p.fileName,
	}, Separator)
}

// Parse decodes a remote key. It is strict: keys with the wrong number of
// fields, an unknown type, or a time that does not round-trip are rejected.
func (Codec) Parse(remoteKey string) (Path, error) {
	fields := strings.Split(remoteKey, Separator)
	if len(fields) != fieldCount {
		return Path{}, errors.Mark(
			errors.Newf("key %q: expected %d fields, got %d", remoteKey, fieldCount, len(fields)), ErrParse)
	}
	typ, err := ParseFileType(fields[3])
	if err != nil {
		return Path{}, errors.Wrapf(err, "key %q", remoteKey)
	}
	t, err := time.ParseInLocation(TimeLayout, fields[4], time.UTC)
	if err != nil || t.Format(TimeLayout) != fields[4] {
		return Path{}, errors.Mark(errors.Newf("key %q: invalid time %q", remoteKey, fields[4]), ErrParse)
	}
	scope := Scope{BaseDir: fields[0], Region: fields[1], ClusterName: fields[2]}
	p, err := New(scope, typ, t, fields[5])
	if err != nil {
		return Path{}, errors.Wrapf(err, "key %q", remoteKey)
	}
	return p, nil
}
