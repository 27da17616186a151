// data_array.go: fixed-capacity slot table chained into a Cell's
// overflow list.
//
// Grounded on balios's own SeqLock-style entry layout in cache.go (one
// byte-wide fingerprint array next to the payload slots, occupancy
// published with an explicit fence rather than through a mutex) and on
// bmwtsn098-nitro's bitmap-probing idiom for locating free/occupied
// slots with bit tricks instead of a loop-and-branch scan.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package xanthus

import (
	"math/bits"
	"sync/atomic"

	"github.com/agilira/xanthus/ebr"
)

// MainArrayLen is the fixed capacity of a Cell's inline main DataArray.
const MainArrayLen = 32

// OverflowArrayLen is the fixed capacity of every linked overflow
// DataArray (main/4).
const OverflowArrayLen = MainArrayLen / 4

// entry is one (key, value) pair stored in a DataArray slot.
type entry[K comparable, V any] struct {
	key   K
	value V
}

// dataArray is a contiguous slot table of length `length` (MainArrayLen
// for the array embedded in a Cell, OverflowArrayLen for every linked
// overflow array). occupied and removed are accessed with the plain
// sync/atomic package functions, matching balios/sketch.go's own choice
// of atomic package functions over the wrapper types, so a dataArray can
// be embedded by value inside Cell without tripping a copylock check
// before the Cell itself is ever referenced by pointer.
type dataArray[K comparable, V any] struct {
	link      ebr.AtomicOwned[*dataArray[K, V]]
	occupied  uint32
	removed   uint32
	partial   [MainArrayLen]uint8
	slots     [MainArrayLen]entry[K, V]
	length    int
}

func newDataArray[K comparable, V any](length int) *dataArray[K, V] {
	return &dataArray[K, V]{length: length}
}

// live returns the bitmap of slots that currently hold a readable
// value: always occupied in non-lock-free mode, occupied-minus-removed
// in lock-free mode.
func (d *dataArray[K, V]) live(lockFree bool) uint32 {
	occ := atomic.LoadUint32(&d.occupied)
	if !lockFree {
		return occ
	}
	rem := atomic.LoadUint32(&d.removed)
	return occ &^ rem
}

// searchArray implements spec.md §4.3's search_array: probe the
// preferred slot first, then scan the remaining live bits in ascending
// order.
func searchArray[K comparable, V any](d *dataArray[K, V], lockFree bool, key K, partialHash uint8, chainLen *int) (int, *entry[K, V]) {
	live := d.live(lockFree)
	if chainLen != nil {
		*chainLen++
	}

	preferred := int(partialHash) % d.length
	if live&(1<<uint(preferred)) != 0 &&
		d.partial[preferred] == partialHash &&
		d.slots[preferred].key == key {
		return preferred, &d.slots[preferred]
	}

	remaining := live &^ (1 << uint(preferred))
	for remaining != 0 {
		i := bits.TrailingZeros32(remaining)
		remaining &^= 1 << uint(i)
		if d.partial[i] == partialHash && d.slots[i].key == key {
			return i, &d.slots[i]
		}
	}

	return -1, nil
}

// firstFree returns the lowest-index zero bit of occupied, or -1 if the
// array is full.
func (d *dataArray[K, V]) firstFree() int {
	mask := uint32(1)<<uint(d.length) - 1 // wraps to 0xFFFFFFFF when length == 32
	occ := atomic.LoadUint32(&d.occupied)
	i := bits.TrailingZeros32(^occ & mask)
	if i >= d.length {
		return -1
	}
	return i
}

// insertEntry writes (key, value) into slot i and then publishes it by
// setting the occupied bit with an atomic CAS (in both modes), so that a
// concurrent lock-free search which observes the occupied bit also
// observes fully-initialized data (spec.md §3 invariant).
func (d *dataArray[K, V]) insertEntry(i int, key K, value V, partialHash uint8, lockFree bool) {
	d.slots[i] = entry[K, V]{key: key, value: value}
	d.partial[i] = partialHash
	// Go's atomic operations are themselves sequentially consistent, so
	// the CompareAndSwapUint32 below already publishes the writes above
	// before any goroutine can observe the occupied bit going high.
	for {
		old := atomic.LoadUint32(&d.occupied)
		nw := old | (1 << uint(i))
		if atomic.CompareAndSwapUint32(&d.occupied, old, nw) {
			return
		}
	}
}

// markRemoved sets slot i's bit in the removed bitmap (lock-free erase).
func (d *dataArray[K, V]) markRemoved(i int) {
	for {
		old := atomic.LoadUint32(&d.removed)
		nw := old | (1 << uint(i))
		if atomic.CompareAndSwapUint32(&d.removed, old, nw) {
			return
		}
	}
}

// clearOccupied clears slot i's bit in the occupied bitmap (non-lock-free
// erase/extract) and zeroes the slot so it holds no dangling references.
func (d *dataArray[K, V]) clearOccupied(i int) entry[K, V] {
	taken := d.slots[i]
	var zero entry[K, V]
	d.slots[i] = zero
	for {
		old := atomic.LoadUint32(&d.occupied)
		nw := old &^ (1 << uint(i))
		if atomic.CompareAndSwapUint32(&d.occupied, old, nw) {
			return taken
		}
	}
}

// isEmpty reports whether the array has no readable entries left
// (occupied &^ removed == 0 in lock-free mode, occupied == 0 otherwise).
func (d *dataArray[K, V]) isEmpty(lockFree bool) bool {
	return d.live(lockFree) == 0
}
