// Package xanthus provides hybrid lock-free/lock-based concurrency
// primitives for building high-throughput concurrent hash maps and
// queues: an epoch-based reclamation substrate (see the ebr
// subpackage), a packed-state Cell supporting both exclusive (Locker)
// and shared (Reader) access, a fixed-capacity DataArray slot table
// chained into overflow arrays, and a Michael-Scott lock-free Queue.
//
// # Overview
//
// A Cell is one bucket of a concurrent hash map. It holds an inline
// main DataArray plus a chain of overflow DataArrays, a packed 32-bit
// state word (kill flag, waiter flag, and either an exclusive-lock bit
// or a shared-lock counter), and a WaitQueue for parking contenders
// instead of spinning indefinitely.
//
// Two access disciplines are supported per Cell, selected at
// construction:
//
//   - Lock-based: Locker.Erase clears the slot's occupied bit and moves
//     the (key, value) out; an overflow array that empties entirely is
//     unlinked and reclaimed.
//   - Lock-free: readers never take a lock at all; Cell.Search walks the
//     occupied/removed bitmaps directly, relying on the EBR barrier to
//     keep any array a concurrent reader might still be probing alive.
//
// # Usage
//
//	cfg := xanthus.DefaultConfig()
//	cell := xanthus.NewCell[string, int](false, cfg)
//
//	l := cell.Lock()
//	l.Insert("answer", 42, partialHash("answer"))
//	l.Unlock()
//
//	b := ebr.Pin()
//	defer b.Release()
//	v, ok := cell.Search(b, "answer", partialHash("answer"))
//
// Queue is a separate, standalone lock-free FIFO built on the same EBR
// substrate, usable independently of Cell:
//
//	q := xanthus.NewQueue[int](cfg)
//	q.Push(1)
//	q.Push(2)
//	e, _ := q.Pop() // e.Value() == 1
//
// # Configuration
//
// Config carries a SpinLimit, a Logger, a TimeProvider (go-timecache by
// default) and a MetricsCollector. HotTuning wraps a Config with
// argus-based live reload of the subset of fields it's safe to tune at
// runtime (SpinLimit only — bit-layout constants like SLOCKMax and the
// DataArray capacities are compile-time and never hot-reloadable).
//
// # Observability
//
// MetricsCollector receives lock-wait latency, contention counts,
// overflow-chain probe depth, and queue push/pop latency. The
// github.com/agilira/xanthus/otel subpackage implements it on top of
// OpenTelemetry.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package xanthus
