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

// Package format renders listings and reports as tables.
package format

import (
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/cockroachlabs-field/backupfs/internal/backuppath"
	"github.com/cockroachlabs-field/backupfs/internal/ledger"
	"github.com/cockroachlabs-field/backupfs/internal/validate"
)

func newTable(w io.Writer, title string) table.Writer {
	style := table.StyleLight
	style.Format.Header = text.FormatLower
	style.Format.Footer = text.FormatDefault
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(style)
	return t
}

// Artifacts renders the result of a listing.
func Artifacts(w io.Writer, paths []backuppath.Path) {
	t := newTable(w, "Artifacts")
	t.AppendHeader(table.Row{"Scope", "Type", "Time", "File"})
	for _, p := range paths {
		t.AppendRow(table.Row{p.Scope().String(), p.Type().String(), p.Time().Format(time.RFC3339), p.FileName()})
	}
	t.AppendFooter(table.Row{"", "", "Total", len(paths)})
	t.Render()
}

// Prefixes renders the scopes returned by a prefix listing.
func Prefixes(w io.Writer, prefixes []string) {
	t := newTable(w, "Prefixes")
	t.AppendHeader(table.Row{"Prefix"})
	for _, p := range prefixes {
		t.AppendRow(table.Row{p})
	}
	t.Render()
}

// Transfers renders ledger entries.
func Transfers(w io.Writer, entries []ledger.Entry) {
	t := newTable(w, "Transfers")
	t.AppendHeader(table.Row{"Key", "Direction", "Size", "At"})
	var total int64
	for _, e := range entries {
		t.AppendRow(table.Row{e.Key, e.Direction, humanize.Bytes(uint64(e.Bytes)), e.At.Format(time.RFC3339)})
		total += e.Bytes
	}
	t.AppendFooter(table.Row{"", "Total", humanize.Bytes(uint64(total)), ""})
	t.Render()
}

// Report generates a report from the validation results.
func Report(w io.Writer, report *validate.Report) {
	if report.SuggestedParams != nil {
		t := newTable(w, "Suggested Parameters")
		t.AppendHeader(table.Row{"Parameter", "Value"})
		for k, v := range report.SuggestedParams.Iter() {
			t.AppendRow(table.Row{k, v})
		}
		t.Render()
	}
	if report.Stats != nil {
		t := newTable(w, "Statistics")
		t.AppendHeader(table.Row{"Step", "Size", "Duration", "Throughput"})
		for _, stat := range report.Stats {
			t.AppendRow(table.Row{
				stat.Step,
				humanize.Bytes(uint64(stat.Bytes)),
				stat.Duration.Round(time.Millisecond).String(),
				stat.Throughput(),
			})
		}
		t.Render()
	}
}
