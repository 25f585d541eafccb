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

// Package metrics exports transfer events as prometheus metrics.
package metrics

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/cockroachlabs-field/backupfs/internal/backuppath"
	"github.com/cockroachlabs-field/backupfs/internal/remotefs"
)

const (
	namespace       = "backupfs"
	shutdownTimeout = 5 * time.Second
)

// Observer is a remotefs.Observer that counts transfers.
type Observer struct {
	registry *prometheus.Registry
	now      func() time.Time

	transfers   *prometheus.CounterVec
	bytes       *prometheus.CounterVec
	sizes       *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
}

var _ remotefs.Observer = &Observer{}

// New registers the transfer metrics with registry. A nil registry
// creates a private one that also carries the go and process collectors.
func New(registry *prometheus.Registry) *Observer {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	o := &Observer{
		registry: registry,
		now:      time.Now,
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Completed backup transfers",
		}, []string{"direction", "type", "outcome"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transferred_bytes_total",
			Help:      "Bytes moved by successful backup transfers",
		}, []string{"direction", "type"}),
		sizes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "artifact_size_bytes",
			Help:      "Size of successfully transferred backup artifacts",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		}, []string{"direction"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful transfer",
		}, []string{"direction"}),
	}
	registry.MustRegister(o.transfers, o.bytes, o.sizes, o.lastSuccess)
	return o
}

// OnTransfer implements remotefs.Observer.
func (o *Observer) OnTransfer(
	path backuppath.Path, dir remotefs.Direction, outcome remotefs.Outcome, bytes int64,
) {
	o.transfers.WithLabelValues(dir.String(), path.Type().String(), outcome.String()).Inc()
	if outcome != remotefs.Success {
		return
	}
	o.bytes.WithLabelValues(dir.String(), path.Type().String()).Add(float64(bytes))
	o.sizes.WithLabelValues(dir.String()).Observe(float64(bytes))
	o.lastSuccess.WithLabelValues(dir.String()).Set(float64(o.now().Unix()))
}

// Registry returns the registry holding the metrics.
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

// Handler serves the registry in the prometheus exposition format.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is stopped. It returns the
// address actually bound.
func (o *Observer) Serve(ctx *stopper.Context, addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to listen on %s", addr)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", o.Handler())
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	ctx.Go(func(ctx *stopper.Context) error {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
			return err
		}
		return nil
	})
	ctx.Go(func(ctx *stopper.Context) error {
		<-ctx.Stopping()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	slog.Info("serving metrics", slog.String("addr", ln.Addr().String()))
	return ln.Addr(), nil
}
