// Package otel provides OpenTelemetry integration for xanthus's
// concurrency metrics.
//
// # Overview
//
// This package implements the xanthus.MetricsCollector interface using
// OpenTelemetry, enabling enterprise-grade observability of lock
// contention, wait latency, and queue throughput with automatic
// percentile calculation and multi-backend support (Prometheus, Jaeger,
// DataDog, Grafana).
//
// The package is a separate module to keep the xanthus core lightweight.
// Applications that don't need metrics collection don't pay for the
// OTEL dependencies.
//
// # Features
//
//   - Automatic Percentiles: OTEL Histograms calculate p50, p95, p99 wait latencies
//   - Multi-Backend Support: works with Prometheus, Jaeger, DataDog, any OTEL-compatible backend
//   - Contention Tracking: counts acquisitions that had to park on a WaitQueue
//   - Chain-Length Histogram: overflow-array probe depth per Cell.Search
//   - Thread-Safe: lock-free, safe for concurrent use
//   - Industry Standard: uses OpenTelemetry (CNCF standard)
//
// # Installation
//
//	go get github.com/agilira/xanthus/otel
//
// # Quick Start
//
// Basic setup with a Prometheus exporter:
//
//	import (
//	    "github.com/agilira/xanthus"
//	    xanthusotel "github.com/agilira/xanthus/otel"
//	    "go.opentelemetry.io/otel/exporters/prometheus"
//	    "go.opentelemetry.io/otel/sdk/metric"
//	)
//
//	exporter, err := prometheus.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//
//	collector, err := xanthusotel.NewOTelMetricsCollector(provider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg := xanthus.Config{MetricsCollector: collector}
//	cell := xanthus.NewCell[string, int](false, cfg)
//
// # Exported Metrics
//
//   - xanthus_lock_wait_ns (histogram)
//   - xanthus_slock_wait_ns (histogram)
//   - xanthus_queue_push_ns (histogram)
//   - xanthus_queue_pop_ns (histogram)
//   - xanthus_chain_length (histogram)
//   - xanthus_lock_contended_total (counter)
//   - xanthus_queue_cleanup_total (counter)
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package otel
