// interfaces.go: public interfaces for xanthus
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package xanthus

// Logger defines a minimal logging interface with zero overhead.
// Implementations should use structured logging and be allocation-free.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keyvals ...interface{})

	// Info logs an info message with optional key-value pairs.
	Info(msg string, keyvals ...interface{})

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keyvals ...interface{})

	// Error logs an error message with optional key-value pairs.
	Error(msg string, keyvals ...interface{})
}

// NoOpLogger is a logger that does nothing. Used as default to avoid nil checks.
type NoOpLogger struct{}

func (NoOpLogger) Debug(msg string, keyvals ...interface{}) {}
func (NoOpLogger) Info(msg string, keyvals ...interface{})  {}
func (NoOpLogger) Warn(msg string, keyvals ...interface{})  {}
func (NoOpLogger) Error(msg string, keyvals ...interface{}) {}

// TimeProvider provides current time with caching for performance. Used
// only to timestamp metrics; no correctness decision in xanthus ever
// depends on wall-clock time.
type TimeProvider interface {
	// Now returns the current time in nanoseconds since epoch.
	// This method must be very fast and allocation-free.
	Now() int64
}

// MetricsCollector receives observability signals from the hybrid
// lock/lock-free data structures. All methods must be safe for
// concurrent use and cheap enough to call on the hot path; a collector
// that needs to do expensive work should buffer internally.
type MetricsCollector interface {
	// ObserveLockWait records the nanoseconds a Cell.Lock call spent
	// waiting before acquiring the exclusive lock.
	ObserveLockWait(nanos int64)

	// ObserveSLockWait records the nanoseconds a Cell.RLock call spent
	// waiting before acquiring a shared lock.
	ObserveSLockWait(nanos int64)

	// IncLockContended counts a Lock/RLock/TryLockOrWait/TryRLockOrWait
	// call whose first attempt found the cell already locked and had to
	// retry or park.
	IncLockContended()

	// ObserveChainLength records the number of DataArrays (main array
	// included) probed by one Cell.Search.
	ObserveChainLength(length int)

	// ObserveQueuePush records the nanoseconds a Queue.Push/PushIf call
	// spent, including any CAS retries against concurrent poppers.
	ObserveQueuePush(nanos int64)

	// ObserveQueuePop records the nanoseconds a Queue.Pop/PopIf call
	// spent.
	ObserveQueuePop(nanos int64)

	// IncQueueCleanup counts a lazy-cleanup pass that advanced the
	// queue's head past logically-removed entries.
	IncQueueCleanup()
}

// NoOpMetricsCollector discards every observation. Used as the default
// collector so callers never need a nil check.
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) ObserveLockWait(nanos int64)      {}
func (NoOpMetricsCollector) ObserveSLockWait(nanos int64)     {}
func (NoOpMetricsCollector) IncLockContended()                {}
func (NoOpMetricsCollector) ObserveChainLength(length int)    {}
func (NoOpMetricsCollector) ObserveQueuePush(nanos int64)     {}
func (NoOpMetricsCollector) ObserveQueuePop(nanos int64)      {}
func (NoOpMetricsCollector) IncQueueCleanup()                 {}

// AsyncWaitHandle is the caller-supplied resumption hook for
// PushAsyncEntry: Notify is invoked (at most once) when the condition
// this handle was registered for might now hold, so the caller should
// re-attempt its operation. Notify must not block and must be safe to
// call from any goroutine, including the one that is itself about to
// release the cell's lock.
type AsyncWaitHandle interface {
	Notify()
}
