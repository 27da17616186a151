// cell.go: Cell, the hybrid-locking hash-map bucket, and its read-side
// operations.
//
// The packed state word follows the same bit-packing discipline as
// ebr.AtomicOwned's tagged pointer: independent fields (KILLED, WAITING,
// LOCK, SLOCK_COUNT) crammed into one uint32 so every acquisition is a
// single CAS instead of a multi-word transaction, the same tradeoff
// balios's sketch.go makes for its counting-sketch frequency words.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package xanthus

import (
	"math"
	"math/bits"
	"sync/atomic"

	"github.com/agilira/xanthus/ebr"
)

const (
	stateKilled  uint32 = 1 << 31
	stateWaiting uint32 = 1 << 30
	stateLock    uint32 = 1 << 29
	// SLOCKMax is the maximum number of concurrent Readers a Cell can hold.
	SLOCKMax     uint32 = stateLock - 1
	stateLockMask = stateLock | SLOCKMax
)

// Cell is one bucket of a concurrent hash map: an inline main DataArray,
// a chain of overflow DataArrays reachable through the main array's
// link, a packed state word carrying the lock/kill/waiter bits, and a
// WaitQueue for parking contenders.
type Cell[K comparable, V any] struct {
	main         dataArray[K, V]
	state        uint32
	numEntries   uint32
	lockFree     bool
	waitQueue    WaitQueue
	metrics      MetricsCollector
	timeProvider TimeProvider
}

// NewCell constructs an empty Cell. lockFree selects whether erase is
// logical (bit in removed, searches honor both bitmaps) or physical
// (erase moves the value out, removed is unused); see spec §6. cfg
// supplies the MetricsCollector and TimeProvider used to observe lock
// wait latency; a zero Config is normalized to its defaults.
func NewCell[K comparable, V any](lockFree bool, cfg Config) *Cell[K, V] {
	_ = cfg.Validate()
	c := &Cell[K, V]{lockFree: lockFree, metrics: cfg.MetricsCollector, timeProvider: cfg.TimeProvider}
	c.main.length = MainArrayLen
	return c
}

// IsKilled reports whether the cell has been purged and is now
// terminal.
func (c *Cell[K, V]) IsKilled() bool {
	return atomic.LoadUint32(&c.state)&stateKilled != 0
}

// NumEntries returns the authoritative live-entry count, valid between
// structural operations (mutated only under an exclusive Locker).
func (c *Cell[K, V]) NumEntries() uint32 {
	return atomic.LoadUint32(&c.numEntries)
}

// Search implements spec.md §4.3's Cell::search: short-circuit on an
// empty cell, otherwise probe the main array and then walk the overflow
// chain via acquire loads of link.
func (c *Cell[K, V]) Search(b *ebr.Barrier, key K, partialHash uint8) (V, bool) {
	var zero V
	if atomic.LoadUint32(&c.numEntries) == 0 {
		return zero, false
	}

	var chainLen int
	if _, e := searchArray[K, V](&c.main, c.lockFree, key, partialHash, &chainLen); e != nil {
		c.metrics.ObserveChainLength(chainLen)
		return e.value, true
	}

	arr := c.main.link.Load(b)
	for !arr.IsNull() {
		d := *arr.Deref()
		if _, e := searchArray[K, V](d, c.lockFree, key, partialHash, &chainLen); e != nil {
			c.metrics.ObserveChainLength(chainLen)
			return e.value, true
		}
		arr = d.link.Load(b)
	}

	c.metrics.ObserveChainLength(chainLen)
	return zero, false
}

// EntryIterator walks a Cell's main array then its overflow chain in
// slot order, remembering which array and predecessor it is positioned
// over so an erase can unlink an emptied overflow array. An iterator
// obtained from Cell.Iter is positioned "before the first" entry.
type EntryIterator[K comparable, V any] struct {
	barrier *ebr.Barrier
	cell    *Cell[K, V]

	predecessor *dataArray[K, V] // nil when current is the main array
	current     *dataArray[K, V] // nil means "the main array"
	index       int              // -1 == before-first sentinel
	done        bool
}

const beforeFirst = -1

// Iter creates an iterator positioned before the first entry.
func (c *Cell[K, V]) Iter(b *ebr.Barrier) *EntryIterator[K, V] {
	return &EntryIterator[K, V]{barrier: b, cell: c, index: beforeFirst}
}

// Get returns an EntryIterator positioned at the slot matching key, or
// nil if no match exists. This is the exclusive entry point for later
// erasing or extracting the found entry.
func (c *Cell[K, V]) Get(b *ebr.Barrier, key K, partialHash uint8) *EntryIterator[K, V] {
	if atomic.LoadUint32(&c.numEntries) == 0 {
		return nil
	}

	var predecessor *dataArray[K, V]
	current := &c.main
	var cur *dataArray[K, V] // nil denotes "main"

	for {
		if i, _ := searchArray[K, V](current, c.lockFree, key, partialHash, nil); i >= 0 {
			return &EntryIterator[K, V]{barrier: b, cell: c, predecessor: predecessor, current: cur, index: i}
		}

		next := current.link.Load(b)
		if next.IsNull() {
			return nil
		}
		predecessor = current
		current = *next.Deref()
		cur = current
	}
}

func (c *Cell[K, V]) arrayAt(it *EntryIterator[K, V]) *dataArray[K, V] {
	if it.current == nil {
		return &c.main
	}
	return it.current
}

// Next advances the iterator and reports whether a live entry was
// found. On success, Key/Value/PartialHash describe the current slot.
func (it *EntryIterator[K, V]) Next() bool {
	if it.done {
		return false
	}

	arr := it.cell.arrayAt(it)
	from := it.index + 1
	if it.index == beforeFirst {
		from = 0
	}

	for {
		live := arr.live(it.cell.lockFree)
		mask := ^uint32(0) << uint(from) // shifting by >= 32 yields 0, per the Go spec
		candidates := live & mask
		if candidates != 0 {
			i := bits.TrailingZeros32(candidates)
			if i < arr.length {
				it.index = i
				return true
			}
		}

		next := arr.link.Load(it.barrier)
		if next.IsNull() {
			it.done = true
			it.cell = nil
			return false
		}
		it.predecessor = arr
		it.current = *next.Deref()
		arr = it.current
		from = 0
		it.index = beforeFirst
	}
}

// Key returns the key at the iterator's current position.
func (it *EntryIterator[K, V]) Key() K {
	arr := it.cell.arrayAt(it)
	return arr.slots[it.index].key
}

// Value returns the value at the iterator's current position.
func (it *EntryIterator[K, V]) Value() V {
	arr := it.cell.arrayAt(it)
	return arr.slots[it.index].value
}

// PartialHash returns the fingerprint byte at the iterator's current
// position.
func (it *EntryIterator[K, V]) PartialHash() uint8 {
	arr := it.cell.arrayAt(it)
	return arr.partial[it.index]
}

// maxEntries is the overflow-detection ceiling from spec.md §4.5/§7:
// Cell::insert panics if num_entries would exceed this.
const maxEntries = math.MaxUint32
