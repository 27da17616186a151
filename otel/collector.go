// Package otel provides OpenTelemetry integration for xanthus concurrency
// metrics.
//
// This package implements the xanthus.MetricsCollector interface using
// OpenTelemetry, enabling enterprise-grade observability of the hybrid
// locking primitives with automatic percentile calculation (p50, p95, p99)
// and multi-backend support (Prometheus, Jaeger, DataDog, Grafana).
//
// # Features
//
//   - Automatic percentile calculation via OTEL Histograms
//   - Contention and cleanup counters
//   - Chain-length distribution for overflow-array probing
//   - Thread-safe, lock-free implementation
//   - Optional: separate module, no impact on core xanthus performance
//
// # Usage
//
//	import (
//	    "github.com/agilira/xanthus"
//	    xanthusotel "github.com/agilira/xanthus/otel"
//	    "go.opentelemetry.io/otel/exporters/prometheus"
//	    "go.opentelemetry.io/otel/sdk/metric"
//	)
//
//	exporter, _ := prometheus.New()
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//
//	collector, _ := xanthusotel.NewOTelMetricsCollector(provider)
//
//	cfg := xanthus.Config{MetricsCollector: collector}
//	cell := xanthus.NewCell[string, int](false, cfg)
//
// # Metrics Exposed
//
//   - xanthus_lock_wait_ns: Histogram of exclusive-lock wait latency
//   - xanthus_slock_wait_ns: Histogram of shared-lock wait latency
//   - xanthus_queue_push_ns: Histogram of Queue.Push/PushIf latency
//   - xanthus_queue_pop_ns: Histogram of Queue.Pop/PopIf latency
//   - xanthus_lock_contended_total: Counter of acquisitions that had to park
//   - xanthus_queue_cleanup_total: Counter of lazy physical unlinks
//   - xanthus_chain_length: Histogram of overflow-chain probe depth
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package otel

import (
	"context"
	"errors"

	"github.com/agilira/xanthus"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetricsCollector implements xanthus.MetricsCollector using
// OpenTelemetry.
//
// Thread-safety: safe for concurrent use by multiple goroutines, same as
// the underlying OTEL instruments.
type OTelMetricsCollector struct {
	lockWait      metric.Int64Histogram
	slockWait     metric.Int64Histogram
	queuePush     metric.Int64Histogram
	queuePop      metric.Int64Histogram
	chainLength   metric.Int64Histogram
	lockContended metric.Int64Counter
	queueCleanup  metric.Int64Counter
}

// Options configures OTelMetricsCollector.
type Options struct {
	// MeterName is the name of the OpenTelemetry meter.
	// Default: "github.com/agilira/xanthus"
	MeterName string
}

// Option is a functional option for configuring OTelMetricsCollector.
type Option func(*Options)

// WithMeterName sets a custom meter name, useful when distinguishing
// metrics across multiple xanthus instances in the same process.
func WithMeterName(name string) Option {
	return func(o *Options) {
		o.MeterName = name
	}
}

// NewOTelMetricsCollector creates a new OpenTelemetry-backed collector.
// provider must not be nil.
func NewOTelMetricsCollector(provider metric.MeterProvider, opts ...Option) (*OTelMetricsCollector, error) {
	if provider == nil {
		return nil, errors.New("meter provider cannot be nil")
	}

	options := Options{MeterName: "github.com/agilira/xanthus"}
	for _, opt := range opts {
		opt(&options)
	}

	meter := provider.Meter(options.MeterName)
	collector := &OTelMetricsCollector{}

	var err error
	collector.lockWait, err = meter.Int64Histogram(
		"xanthus_lock_wait_ns",
		metric.WithDescription("Latency of exclusive lock acquisition when contended"),
		metric.WithUnit("ns"),
	)
	if err != nil {
		return nil, err
	}

	collector.slockWait, err = meter.Int64Histogram(
		"xanthus_slock_wait_ns",
		metric.WithDescription("Latency of shared lock acquisition when contended"),
		metric.WithUnit("ns"),
	)
	if err != nil {
		return nil, err
	}

	collector.queuePush, err = meter.Int64Histogram(
		"xanthus_queue_push_ns",
		metric.WithDescription("Latency of Queue Push/PushIf"),
		metric.WithUnit("ns"),
	)
	if err != nil {
		return nil, err
	}

	collector.queuePop, err = meter.Int64Histogram(
		"xanthus_queue_pop_ns",
		metric.WithDescription("Latency of Queue Pop/PopIf"),
		metric.WithUnit("ns"),
	)
	if err != nil {
		return nil, err
	}

	collector.chainLength, err = meter.Int64Histogram(
		"xanthus_chain_length",
		metric.WithDescription("Number of DataArrays probed per Cell.Search"),
	)
	if err != nil {
		return nil, err
	}

	collector.lockContended, err = meter.Int64Counter(
		"xanthus_lock_contended_total",
		metric.WithDescription("Total lock/rlock acquisitions that had to park"),
	)
	if err != nil {
		return nil, err
	}

	collector.queueCleanup, err = meter.Int64Counter(
		"xanthus_queue_cleanup_total",
		metric.WithDescription("Total lazy physical unlinks performed by cleanupOldest"),
	)
	if err != nil {
		return nil, err
	}

	return collector, nil
}

// ObserveLockWait records the wait latency of a contended exclusive lock
// acquisition, in nanoseconds.
func (c *OTelMetricsCollector) ObserveLockWait(ns int64) {
	c.lockWait.Record(context.Background(), ns)
}

// ObserveSLockWait records the wait latency of a contended shared lock
// acquisition, in nanoseconds.
func (c *OTelMetricsCollector) ObserveSLockWait(ns int64) {
	c.slockWait.Record(context.Background(), ns)
}

// IncLockContended increments the count of acquisitions that had to park
// on the WaitQueue instead of succeeding on the first try.
func (c *OTelMetricsCollector) IncLockContended() {
	c.lockContended.Add(context.Background(), 1)
}

// ObserveChainLength records how many DataArrays a Cell.Search probed,
// including the main array, before resolving.
func (c *OTelMetricsCollector) ObserveChainLength(n int) {
	c.chainLength.Record(context.Background(), int64(n))
}

// ObserveQueuePush records Queue.Push/PushIf latency in nanoseconds.
func (c *OTelMetricsCollector) ObserveQueuePush(ns int64) {
	c.queuePush.Record(context.Background(), ns)
}

// ObserveQueuePop records Queue.Pop/PopIf latency in nanoseconds.
func (c *OTelMetricsCollector) ObserveQueuePop(ns int64) {
	c.queuePop.Record(context.Background(), ns)
}

// IncQueueCleanup increments the count of lazy physical unlinks performed
// by cleanupOldest.
func (c *OTelMetricsCollector) IncQueueCleanup() {
	c.queueCleanup.Add(context.Background(), 1)
}

var _ xanthus.MetricsCollector = (*OTelMetricsCollector)(nil)
