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

// Package retry runs an operation with exponential backoff.
package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Options configures exponential backoff for retries.
type Options struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Jitter spreads each delay by up to 20% in either direction.
	Jitter bool
}

// Default backoff settings used when MaxAttempts is not positive.
var Default = Options{
	MaxAttempts:  5,
	InitialDelay: 300 * time.Millisecond,
	MaxDelay:     8 * time.Second,
	Multiplier:   2.0,
	Jitter:       true,
}

// IsRetryableFunc reports whether an error is worth another attempt.
type IsRetryableFunc func(error) bool

func (o Options) normalize() Options {
	if o.MaxAttempts <= 0 {
		return Default
	}
	if o.Multiplier < 1 {
		o.Multiplier = 1
	}
	return o
}

// Delay returns the unjittered wait after the given failed attempt,
// counting from 1, capped at MaxDelay.
func (o Options) Delay(attempt int) time.Duration {
	o = o.normalize()
	d := float64(o.InitialDelay)
	for i := 1; i < attempt; i++ {
		d *= o.Multiplier
		if o.MaxDelay > 0 && d >= float64(o.MaxDelay) {
			return o.MaxDelay
		}
	}
	if o.MaxDelay > 0 && d > float64(o.MaxDelay) {
		return o.MaxDelay
	}
	return time.Duration(d)
}

func (o Options) sleep(attempt int) time.Duration {
	d := o.Delay(attempt)
	if !o.Jitter || d <= 0 {
		return d
	}
	spread := int64(d) / 5
	d += time.Duration(rand.Int64N(2*spread+1) - spread)
	if o.MaxDelay > 0 && d > o.MaxDelay {
		d = o.MaxDelay
	}
	return d
}

// Do calls fn until it succeeds, returns an error isRetryable rejects,
// exhausts the attempts, or ctx is done while waiting. It returns the
// number of calls made and the last error.
func Do(
	ctx context.Context, opts Options, isRetryable IsRetryableFunc, fn func(context.Context) error,
) (int, error) {
	opts = opts.normalize()
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		switch {
		case err == nil:
			return attempt, nil
		case isRetryable != nil && !isRetryable(err):
			return attempt, err
		case attempt >= opts.MaxAttempts:
			return attempt, err
		}

		timer := time.NewTimer(opts.sleep(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, err
		case <-timer.C:
		}
	}
}
