// errors.go: structured error handling for xanthus's lock-free/hybrid
// primitives.
//
// This file provides structured error types using the go-errors library,
// the same library and call shape balios uses for its own cache errors,
// adapted to the error conditions a Cell, Locker, Reader and Queue can
// actually raise.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package xanthus

import (
	goerrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes for xanthus operations.
const (
	// Configuration errors (1xxx)
	ErrCodeInvalidConfig    errors.ErrorCode = "XANTHUS_INVALID_CONFIG"
	ErrCodeInvalidSpinLimit errors.ErrorCode = "XANTHUS_INVALID_SPIN_LIMIT"

	// Cell / lock errors (2xxx)
	ErrCodeCellKilled        errors.ErrorCode = "XANTHUS_CELL_KILLED"
	ErrCodeLockUnavailable   errors.ErrorCode = "XANTHUS_LOCK_UNAVAILABLE"
	ErrCodeSharedLockOverflow errors.ErrorCode = "XANTHUS_SLOCK_OVERFLOW"
	ErrCodeExtractOnLockFree errors.ErrorCode = "XANTHUS_EXTRACT_ON_LOCK_FREE"

	// Queue errors (3xxx)
	ErrCodeConditionRejected errors.ErrorCode = "XANTHUS_CONDITION_REJECTED"
	ErrCodeQueueEmpty        errors.ErrorCode = "XANTHUS_QUEUE_EMPTY"
	ErrCodeEntryRemoved      errors.ErrorCode = "XANTHUS_ENTRY_REMOVED"

	// Internal errors (5xxx)
	ErrCodeInternalError      errors.ErrorCode = "XANTHUS_INTERNAL_ERROR"
	ErrCodePanicRecovered     errors.ErrorCode = "XANTHUS_PANIC_RECOVERED"
	ErrCodeEntryCountOverflow errors.ErrorCode = "XANTHUS_ENTRY_COUNT_OVERFLOW"
)

// Common error messages.
const (
	msgInvalidSpinLimit      = "invalid spin limit: must be non-negative"
	msgCellKilled            = "cell was killed while waiting for the lock"
	msgLockUnavailable       = "lock could not be acquired without blocking"
	msgSharedLockOverflow    = "shared lock count would exceed the maximum encodable in the cell state word"
	msgExtractOnLockFree     = "extract called on a cell governed by a lock-free data array"
	msgConditionRejected     = "push/pop condition rejected the candidate value"
	msgQueueEmpty            = "queue is empty"
	msgEntryRemoved          = "entry was already logically removed"
	msgInternalError         = "internal xanthus error"
	msgPanicRecovered        = "panic recovered during xanthus operation"
	msgEntryCountOverflow    = "cell entry count would overflow its fixed-width counter"
)

// =============================================================================
// CONFIGURATION ERRORS
// =============================================================================

// NewErrInvalidSpinLimit creates an error for a negative spin limit.
func NewErrInvalidSpinLimit(limit int) error {
	return errors.NewWithContext(ErrCodeInvalidSpinLimit, msgInvalidSpinLimit, map[string]interface{}{
		"provided_limit": limit,
		"minimum":        0,
	})
}

// =============================================================================
// CELL / LOCK ERRORS
// =============================================================================

// NewErrCellKilled creates an error reported to a waiter parked on a cell
// that was killed (its DataArray slot removed) before the lock could be
// granted.
func NewErrCellKilled(reason string) error {
	return errors.NewWithField(ErrCodeCellKilled, msgCellKilled, "reason", reason)
}

// NewErrLockUnavailable creates an error for a non-blocking TryLock that
// found the cell already exclusively or shared-locked.
func NewErrLockUnavailable(mode string) error {
	return errors.NewWithField(ErrCodeLockUnavailable, msgLockUnavailable, "mode", mode).AsRetryable()
}

// NewErrSharedLockOverflow creates an error when incrementing the shared
// lock counter would exceed SLOCK_MAX.
func NewErrSharedLockOverflow(current, max int) error {
	return errors.NewWithContext(ErrCodeSharedLockOverflow, msgSharedLockOverflow, map[string]interface{}{
		"current_count": current,
		"max_count":     max,
	}).AsRetryable()
}

// NewErrExtractOnLockFree creates an error raised when Extract is invoked
// on a Locker whose DataArray was constructed as lock-free; Go has no
// compile-time borrow checker to reject this at the call site, so the
// violation surfaces as a runtime error instead.
func NewErrExtractOnLockFree(op string) error {
	return errors.NewWithField(ErrCodeExtractOnLockFree, msgExtractOnLockFree, "operation", op)
}

// =============================================================================
// QUEUE ERRORS
// =============================================================================

// NewErrConditionRejected creates an error when a PushIf/PopIf condition
// function rejects the candidate value.
func NewErrConditionRejected(op string) error {
	return errors.NewWithField(ErrCodeConditionRejected, msgConditionRejected, "operation", op)
}

// NewErrQueueEmpty creates an error for Pop/Peek on an empty queue.
func NewErrQueueEmpty(op string) error {
	return errors.NewWithField(ErrCodeQueueEmpty, msgQueueEmpty, "operation", op)
}

// NewErrEntryRemoved creates an error when Remove targets an already
// logically-removed entry.
func NewErrEntryRemoved(op string) error {
	return errors.NewWithField(ErrCodeEntryRemoved, msgEntryRemoved, "operation", op)
}

// =============================================================================
// INTERNAL ERRORS
// =============================================================================

// NewErrInternal creates a generic internal error.
func NewErrInternal(operation string, cause error) error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeInternalError, msgInternalError).
			WithContext("operation", operation).
			WithSeverity("warning")
	}
	return errors.NewWithField(ErrCodeInternalError, msgInternalError, "operation", operation).
		WithSeverity("warning")
}

// NewErrPanicRecovered creates an error when a panic is recovered.
func NewErrPanicRecovered(operation string, panicValue interface{}) error {
	return errors.NewWithContext(ErrCodePanicRecovered, msgPanicRecovered, map[string]interface{}{
		"operation":   operation,
		"panic_value": fmt.Sprintf("%v", panicValue),
	}).WithSeverity("critical")
}

// NewErrEntryCountOverflow creates the error backing the overflow panic
// raised when a Cell's fixed-width entry counter would wrap.
func NewErrEntryCountOverflow(current, limit int) error {
	return errors.NewWithContext(ErrCodeEntryCountOverflow, msgEntryCountOverflow, map[string]interface{}{
		"current_count": current,
		"limit":         limit,
	}).WithSeverity("critical")
}

// =============================================================================
// ERROR CHECKING HELPERS
// =============================================================================

// IsCellKilled checks if error is a cell-killed error.
func IsCellKilled(err error) bool {
	return errors.HasCode(err, ErrCodeCellKilled)
}

// IsConditionRejected checks if error is a PushIf/PopIf rejection.
func IsConditionRejected(err error) bool {
	return errors.HasCode(err, ErrCodeConditionRejected)
}

// IsQueueEmpty checks if error is a queue-empty error.
func IsQueueEmpty(err error) bool {
	return errors.HasCode(err, ErrCodeQueueEmpty)
}

// IsExtractOnLockFree checks if error is the Extract-on-lock-free misuse
// error.
func IsExtractOnLockFree(err error) bool {
	return errors.HasCode(err, ErrCodeExtractOnLockFree)
}

// IsRetryable checks if the error can be retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryable errors.Retryable
	if goerrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ""
}

// GetErrorContext extracts context from an error.
func GetErrorContext(err error) map[string]interface{} {
	if err == nil {
		return nil
	}
	var xErr *errors.Error
	if goerrors.As(err, &xErr) {
		return xErr.Context
	}
	return nil
}
