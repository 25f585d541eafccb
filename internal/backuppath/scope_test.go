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
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScope(t *testing.T) {
	tests := []struct {
		name    string
		scope   string
		want    Scope
		ok      bool
		wantErr bool
	}{
		{name: "empty", scope: ""},
		{name: "single segment", scope: "bucket"},
		{name: "two segments", scope: "bucket/b", wantErr: true},
		{name: "three segments", scope: "bucket/b/r", wantErr: true},
		{
			name:  "full",
			scope: "bucket/b/r/c",
			want:  Scope{BaseDir: "b", Region: "r", ClusterName: "c"},
			ok:    true,
		},
		{
			name:  "extra segments",
			scope: "bucket/b/r/c/META",
			want:  Scope{BaseDir: "b", Region: "r", ClusterName: "c"},
			ok:    true,
		},
		{name: "empty region", scope: "bucket/b//c", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := ParseScope(tt.scope)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrParse))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScopePrefix(t *testing.T) {
	s := Scope{BaseDir: "b", Region: "r", ClusterName: "c"}
	assert.Equal(t, "b/r/c/", s.Prefix())
	assert.Equal(t, "b/r/c", s.String())
}
