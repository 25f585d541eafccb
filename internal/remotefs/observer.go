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
	"log/slog"

	"github.com/cockroachlabs-field/backupfs/internal/backuppath"
)

// Direction of a transfer.
type Direction int

// Transfer directions.
const (
	Upload Direction = iota
	Download
)

func (d Direction) String() string {
	if d == Upload {
		return "upload"
	}
	return "download"
}

// Outcome of a transfer.
type Outcome int

// Transfer outcomes.
const (
	Success Outcome = iota
	Failure
)

func (o Outcome) String() string {
	if o == Success {
		return "success"
	}
	return "failure"
}

// Observer receives one call per completed transfer, synchronously, after
// the operation has reached its final state.
type Observer interface {
	OnTransfer(path backuppath.Path, dir Direction, outcome Outcome, bytes int64)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(path backuppath.Path, dir Direction, outcome Outcome, bytes int64)

// OnTransfer implements Observer.
func (f ObserverFunc) OnTransfer(path backuppath.Path, dir Direction, outcome Outcome, bytes int64) {
	f(path, dir, outcome, bytes)
}

// Discard ignores every event.
var Discard Observer = ObserverFunc(func(backuppath.Path, Direction, Outcome, int64) {})

// Observers fans an event out to each observer in order.
type Observers []Observer

// OnTransfer implements Observer.
func (o Observers) OnTransfer(path backuppath.Path, dir Direction, outcome Outcome, bytes int64) {
	for _, obs := range o {
		obs.OnTransfer(path, dir, outcome, bytes)
	}
}

// LogNotifier publishes transfer notifications as structured log records.
type LogNotifier struct {
	Logger *slog.Logger
}

// OnTransfer implements Observer.
func (n LogNotifier) OnTransfer(path backuppath.Path, dir Direction, outcome Outcome, bytes int64) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if outcome == Failure {
		level = slog.LevelWarn
	}
	logger.LogAttrs(context.Background(), level, "backup transfer",
		slog.String("key", path.RemotePath()),
		slog.String("type", path.Type().String()),
		slog.String("direction", dir.String()),
		slog.String("outcome", outcome.String()),
		slog.Int64("bytes", bytes),
	)
}
