// config.go: configuration for xanthus
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package xanthus

import (
	"github.com/agilira/go-timecache"
)

// DefaultSpinLimit is the SpinLimit that Validate and DefaultConfig apply
// when none is set.
const DefaultSpinLimit = 64

// Config holds configuration parameters shared by a Cell's Locker and
// Reader, and by a Queue.
type Config struct {
	// SpinLimit is a spin-tuning value that is validated and can be
	// hot-reloaded through HotTuning. No Cell, Locker, Reader or Queue
	// reads it: Lock, RLock and TryLockOrWait park on the WaitQueue
	// without spinning. Must be >= 0. Default: DefaultSpinLimit.
	SpinLimit int

	// Logger is used for debugging and monitoring.
	// If nil, NoOpLogger is used. Default: NoOpLogger.
	Logger Logger

	// TimeProvider supplies the clock used to timestamp metrics. It is
	// never consulted for correctness decisions. If nil, a default
	// implementation is used. Default: system time.
	TimeProvider TimeProvider

	// MetricsCollector is used for collecting operation metrics (lock
	// wait latency, contention counts, queue push/pop latency).
	// If nil, NoOpMetricsCollector is used (zero overhead). Default: NoOpMetricsCollector.
	// Use this to integrate with Prometheus, DataDog, StatsD, or other monitoring systems.
	MetricsCollector MetricsCollector
}

// Validate checks configuration parameters and applies sensible defaults.
//
// This method is automatically called by NewCell/NewQueue,
// so you typically don't need to call it manually. However, it's provided
// as a public API if you want to inspect the normalized configuration
// before wiring it into a component.
//
// Default values applied:
//   - SpinLimit: DefaultSpinLimit if 0 (a negative value instead returns
//     an ErrCodeInvalidSpinLimit error before any default is applied)
//   - Logger: NoOpLogger{} if nil
//   - TimeProvider: systemTimeProvider{} if nil
//   - MetricsCollector: NoOpMetricsCollector{} if nil
func (c *Config) Validate() error {
	if c.SpinLimit < 0 {
		return NewErrInvalidSpinLimit(c.SpinLimit)
	}
	if c.SpinLimit == 0 {
		c.SpinLimit = DefaultSpinLimit
	}

	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}

	if c.TimeProvider == nil {
		c.TimeProvider = &systemTimeProvider{}
	}

	if c.MetricsCollector == nil {
		c.MetricsCollector = NoOpMetricsCollector{}
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SpinLimit:        DefaultSpinLimit,
		Logger:           NoOpLogger{},
		TimeProvider:     &systemTimeProvider{},
		MetricsCollector: NoOpMetricsCollector{},
	}
}

// systemTimeProvider is the default time provider using go-timecache.
// This provides ~121x faster time access compared to time.Now() with zero allocations.
type systemTimeProvider struct{}

func (t *systemTimeProvider) Now() int64 {
	return timecache.CachedTimeNano()
}
