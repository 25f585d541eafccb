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

package retry

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

var errFlaky = errors.New("flaky")

func fast(attempts int) Options {
	return Options{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
		Jitter:       true,
	}
}

func TestDo(t *testing.T) {
	tests := []struct {
		name         string
		failures     int
		attempts     int
		retryable    IsRetryableFunc
		wantAttempts int
		wantErr      bool
	}{
		{name: "first try", failures: 0, attempts: 3, wantAttempts: 1},
		{name: "eventually", failures: 2, attempts: 3, wantAttempts: 3},
		{name: "exhausted", failures: 5, attempts: 3, wantAttempts: 3, wantErr: true},
		{
			name:         "not retryable",
			failures:     5,
			attempts:     3,
			retryable:    func(error) bool { return false },
			wantAttempts: 1,
			wantErr:      true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			n, err := Do(context.Background(), fast(tt.attempts), tt.retryable, func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return errFlaky
				}
				return nil
			})
			assert.Equal(t, tt.wantAttempts, n)
			assert.Equal(t, tt.wantAttempts, calls)
			if tt.wantErr {
				assert.ErrorIs(t, err, errFlaky)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDoCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	opts := Options{MaxAttempts: 10, InitialDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 2}
	calls := 0
	n, err := Do(ctx, opts, nil, func(context.Context) error {
		calls++
		cancel()
		return errFlaky
	})
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, errFlaky)
}

func TestDelay(t *testing.T) {
	opts := Options{
		MaxAttempts:  10,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2,
	}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{60, time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, opts.Delay(tt.attempt), "attempt %d", tt.attempt)
	}

	flat := opts
	flat.Multiplier = 0.5
	assert.Equal(t, 100*time.Millisecond, flat.Delay(3))

	jittered := opts
	jittered.Jitter = true
	for i := 0; i < 50; i++ {
		d := jittered.sleep(2)
		assert.GreaterOrEqual(t, d, 160*time.Millisecond)
		assert.LessOrEqual(t, d, 240*time.Millisecond)
	}
}
