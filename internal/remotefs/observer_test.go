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

package remotefs

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/cockroachlabs-field/backupfs/internal/backuppath"
	"github.com/stretchr/testify/assert"
)

func TestObservers(t *testing.T) {
	p := mustPath(t, testScope, backuppath.Snap, t1, "f")
	first, second := &recorder{}, &recorder{}
	Observers{first, Discard, second}.OnTransfer(p, Upload, Success, 3)

	want := []event{{p.RemotePath(), Upload, Success, 3}}
	assert.Equal(t, want, first.Events())
	assert.Equal(t, want, second.Events())
}

func TestLogNotifier(t *testing.T) {
	a := assert.New(t)
	var buf bytes.Buffer
	n := LogNotifier{Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	p := mustPath(t, testScope, backuppath.Meta, t1, "meta.json")

	n.OnTransfer(p, Download, Failure, 0)
	out := buf.String()
	a.Contains(out, "level=WARN")
	a.Contains(out, "key=b/r/c/META/20240301100000/meta.json")
	a.Contains(out, "direction=download")
	a.Contains(out, "outcome=failure")

	buf.Reset()
	n.OnTransfer(p, Upload, Success, 42)
	a.Contains(buf.String(), "level=INFO")
	a.Contains(buf.String(), "bytes=42")
}
