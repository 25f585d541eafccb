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
	"context"
	"iter"
	"time"

	"github.com/cockroachlabs-field/backupfs/internal/backuppath"
)

// List implements FileSystem.
func (e *Engine) List(
	ctx context.Context, scope string, start, till time.Time,
) ([]backuppath.Path, error) {
	sc, constrained, err := backuppath.ParseScope(scope)
	if err != nil {
		return nil, err
	}
	prefix := ""
	if constrained && e.mode == ListStrict {
		prefix = sc.Prefix()
	}
	res := make([]backuppath.Path, 0)
	for p, err := range e.walk(ctx, prefix) {
		if err != nil {
			return nil, err
		}
		if e.matches(p, sc, constrained, start, till) {
			res = append(res, p)
		}
	}
	return res, nil
}

func (e *Engine) matches(
	p backuppath.Path, scope backuppath.Scope, constrained bool, start, till time.Time,
) bool {
	t := p.Time()
	inScope := !constrained || p.Scope() == scope
	if e.mode == ListCompat {
		return (t.After(start) && t.Before(till)) || (t.Equal(start) && inScope)
	}
	return inScope && !t.Before(start) && t.Before(till)
}

// ListPrefixes implements FileSystem.
func (e *Engine) ListPrefixes(ctx context.Context, asOf time.Time) ([]string, error) {
	seen := make(map[string]struct{})
	res := make([]string, 0)
	for p, err := range e.walk(ctx, "") {
		if err != nil {
			return nil, err
		}
		if p.Time().After(asOf) {
			continue
		}
		prefix := p.Scope().String()
		if _, ok := seen[prefix]; ok {
			continue
		}
		seen[prefix] = struct{}{}
		res = append(res, prefix)
	}
	return res, nil
}

// walk decodes every key under prefix, skipping keys that do not parse.
// A store error is yielded once and ends the sequence.
func (e *Engine) walk(ctx context.Context, prefix string) iter.Seq2[backuppath.Path, error] {
	return func(yield func(backuppath.Path, error) bool) {
		for obj, err := range e.store.List(ctx, prefix) {
			if err != nil {
				yield(backuppath.Path{}, transferError(err, "listing %q", prefix))
				return
			}
			p, err := e.codec.Parse(obj.Key)
			if err != nil {
				e.skipped(obj.Key, err)
				continue
			}
			if !yield(p, nil) {
				return
			}
		}
	}
}
