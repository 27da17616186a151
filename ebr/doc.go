// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

// Package ebr provides epoch-based reclamation: barriers (guard scopes),
// atomic owning references, and lifetime-bounded borrowed pointers.
//
// A Barrier pins the calling goroutine to the current epoch for the
// scope of its use. Every BorrowedPtr obtained from an AtomicOwned while
// a Barrier is pinned stays dereferenceable for as long as that Barrier
// is held, regardless of concurrent detach/reclaim traffic on the same
// AtomicOwned from other goroutines. Reclaim requests registered through
// a Barrier wait for every goroutine pinned at the time of the request
// to release its Barrier before running.
//
// The session bookkeeping mirrors the access-barrier scheme used by
// Couchbase's nitro skiplist (activeSeqno / session pointer / freeSeqno /
// isDestructorRunning), adapted to a generic AtomicOwned instead of a
// single freelist node type.
package ebr
