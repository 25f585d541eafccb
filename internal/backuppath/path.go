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

// Package backuppath defines the identity of a stored backup artifact and
// the codec that maps it to and from its remote key.
package backuppath

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Separator delimits the fields of a remote key. Field values may not
// contain it.
const Separator = "/"

// TimeLayout is the layout of the time field in a remote key.
const TimeLayout = "20060102150405"

// ErrParse marks malformed remote keys, scopes, types and time fields.
var ErrParse = errors.New("malformed backup path")

// FileType is the kind of artifact stored under a key.
type FileType int

// Known file types. Meta is a manifest describing a snapshot; every other
// type denotes a data payload.
const (
	Unknown FileType = iota
	Meta
	Snap
	SST
	CL
	SnapVerified
	SecondaryIndex
)

var fileTypeNames = map[FileType]string{
	Meta:           "META",
	Snap:           "SNAP",
	SST:            "SST",
	CL:             "CL",
	SnapVerified:   "SNAP_VERIFIED",
	SecondaryIndex: "SECONDARY_INDEX",
}

// String returns the name used in remote keys.
func (t FileType) String() string {
	if name, ok := fileTypeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsData reports whether the type denotes a data payload.
func (t FileType) IsData() bool {
	return t != Meta && t != Unknown
}

// ParseFileType returns the FileType for the given name.
func ParseFileType(s string) (FileType, error) {
	for t, name := range fileTypeNames {
		if name == s {
			return t, nil
		}
	}
	return Unknown, errors.Mark(errors.Newf("unknown file type %q", s), ErrParse)
}

// Path identifies one stored backup artifact. It is a value: once
// constructed none of its fields change.
type Path struct {
	scope    Scope
	typ      FileType
	time     time.Time
	fileName string
}

// New builds a Path from local knowledge before an upload.
// The time is normalized to UTC and truncated to the second; its year
// must fit the four digits of TimeLayout.
func New(scope Scope, typ FileType, t time.Time, fileName string) (Path, error) {
	if err := scope.validate(); err != nil {
		return Path{}, err
	}
	if _, ok := fileTypeNames[typ]; !ok {
		return Path{}, errors.Mark(errors.Newf("unknown file type %d", typ), ErrParse)
	}
	if err := validField("file name", fileName); err != nil {
		return Path{}, err
	}
	t = t.UTC().Truncate(time.Second)
	if y := t.Year(); y < 0 || y > 9999 {
		return Path{}, errors.Mark(errors.Newf("time %s outside years 0000-9999", t), ErrParse)
	}
	return Path{
		scope:    scope,
		typ:      typ,
		time:     t,
		fileName: fileName,
	}, nil
}

// BaseDir returns the top-level namespace.
func (p Path) BaseDir() string { return p.scope.BaseDir }

// Region returns the region of the owning cluster.
func (p Path) Region() string { return p.scope.Region }

// ClusterName returns the name of the owning cluster.
func (p Path) ClusterName() string { return p.scope.ClusterName }

// Scope returns the (baseDir, region, clusterName) triple.
func (p Path) Scope() Scope { return p.scope }

// Type returns the artifact kind.
func (p Path) Type() FileType { return p.typ }

// Time returns the time of the backup event, in UTC.
func (p Path) Time() time.Time { return p.time }

// FileName returns the leaf identifier.
func (p Path) FileName() string { return p.fileName }

// RemotePath returns the canonical remote key.
func (p Path) RemotePath() string {
	return Codec{}.Format(p)
}

// String implements fmt.Stringer.
func (p Path) String() string {
	return p.RemotePath()
}

// Equal reports whether both paths identify the same artifact.
func (p Path) Equal(o Path) bool {
	return p.scope == o.scope &&
		p.typ == o.typ &&
		p.time.Equal(o.time) &&
		p.fileName == o.fileName
}

// IsZero reports whether p is the zero Path.
func (p Path) IsZero() bool {
	return p.typ == Unknown
}

func validField(name, value string) error {
	if value == "" {
		return errors.Mark(errors.Newf("%s cannot be empty", name), ErrParse)
	}
	if strings.Contains(value, Separator) {
		return errors.Mark(errors.Newf("%s %q contains %q", name, value, Separator), ErrParse)
	}
	return nil
}
