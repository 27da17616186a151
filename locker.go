// locker.go: Locker, the exclusive guard over a Cell, and its mutation
// operations (insert/erase/extract/purge).
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package xanthus

import (
	"sync/atomic"

	"github.com/agilira/xanthus/ebr"
)

// LockResult reports the outcome of a lock acquisition attempt.
type LockResult int

const (
	// LockAcquired means the caller now holds the lock.
	LockAcquired LockResult = iota
	// LockKilled means the cell was already purged; there is nothing to
	// lock and the caller should treat the bucket as gone.
	LockKilled
	// LockRetry means the attempt lost a CAS race (TryLock) or was
	// registered for a later wake-up (TryLockOrWait) and must be retried
	// or awaited by the caller.
	LockRetry
)

// Locker is an exclusive guard over a Cell, obtained through
// Cell.TryLock/Lock/TryLockOrWait. The zero value is not usable.
type Locker[K comparable, V any] struct {
	cell *Cell[K, V]
}

// TryLock attempts to acquire the exclusive lock without blocking.
func (c *Cell[K, V]) TryLock() (*Locker[K, V], LockResult) {
	state := atomic.LoadUint32(&c.state)
	if state&stateKilled != 0 {
		return nil, LockKilled
	}
	if state&stateLockMask != 0 {
		return nil, LockRetry
	}
	expected := state &^ stateLockMask
	if !atomic.CompareAndSwapUint32(&c.state, expected, expected|stateLock) {
		return nil, LockRetry
	}
	return &Locker[K, V]{cell: c}, LockAcquired
}

// Lock blocks until the exclusive lock is acquired or the cell is
// killed, parking on the cell's WaitQueue between attempts.
func (c *Cell[K, V]) Lock() *Locker[K, V] {
	if l, res := c.TryLock(); res != LockRetry {
		return l
	}

	start := c.timeProvider.Now()
	c.metrics.IncLockContended()
	c.setWaiting()

	l := WaitSync(&c.waitQueue, func() (*Locker[K, V], bool) {
		// A release clears WAITING; set it again before every re-check so
		// the next release still signals this waiter.
		c.setWaiting()
		l, res := c.TryLock()
		return l, res != LockRetry
	})
	c.metrics.ObserveLockWait(c.timeProvider.Now() - start)
	return l
}

// TryLockOrWait is the cooperative counterpart to Lock: on contention it
// registers handle with the WaitQueue and returns LockRetry to signal
// the caller should suspend; handle.Notify() fires when a retry is
// worth attempting.
func (c *Cell[K, V]) TryLockOrWait(handle AsyncWaitHandle) (*Locker[K, V], LockResult) {
	if l, res := c.TryLock(); res != LockRetry {
		return l, res
	}

	start := c.timeProvider.Now()
	c.metrics.IncLockContended()
	c.setWaiting()

	l, done := PushAsyncEntry(&c.waitQueue, handle, func() (*Locker[K, V], bool) {
		l, res := c.TryLock()
		return l, res != LockRetry
	})
	if !done {
		return nil, LockRetry
	}
	c.metrics.ObserveLockWait(c.timeProvider.Now() - start)
	if l == nil {
		return nil, LockKilled
	}
	return l, LockAcquired
}

func (c *Cell[K, V]) setWaiting() {
	for {
		old := atomic.LoadUint32(&c.state)
		if old&stateWaiting != 0 {
			return
		}
		if atomic.CompareAndSwapUint32(&c.state, old, old|stateWaiting) {
			return
		}
	}
}

// Unlock releases the exclusive lock, signalling the WaitQueue if any
// contender had set WAITING.
func (l *Locker[K, V]) Unlock() {
	c := l.cell
	for {
		old := atomic.LoadUint32(&c.state)
		nw := old &^ (stateLock | stateWaiting)
		if atomic.CompareAndSwapUint32(&c.state, old, nw) {
			if old&stateWaiting != 0 {
				c.waitQueue.Signal()
			}
			return
		}
	}
}

// Insert writes (key, value) into the cell, probing main-preferred,
// main-first-free, then each overflow array preferred-then-first-free,
// prepending a fresh overflow array if every existing array is full.
func (l *Locker[K, V]) Insert(key K, value V, partialHash uint8) {
	c := l.cell
	if atomic.LoadUint32(&c.numEntries) == maxEntries {
		panic(NewErrEntryCountOverflow(int(maxEntries), int(maxEntries)))
	}

	if i := preferredFree(&c.main, partialHash); i >= 0 {
		c.main.insertEntry(i, key, value, partialHash, c.lockFree)
		atomic.AddUint32(&c.numEntries, 1)
		return
	}

	link := &c.main.link
	for {
		cur := link.Load(nil)
		if cur.IsNull() {
			break
		}
		arr := *cur.Deref()
		if i := preferredFree(arr, partialHash); i >= 0 {
			arr.insertEntry(i, key, value, partialHash, c.lockFree)
			atomic.AddUint32(&c.numEntries, 1)
			return
		}
		link = &arr.link
	}

	fresh := newDataArray[K, V](OverflowArrayLen)
	i := fresh.firstFree()
	fresh.insertEntry(i, key, value, partialHash, c.lockFree)

	// Prepend at the head of the chain rooted in the main array's link.
	oldHead := c.main.link.Swap(ebr.New[*dataArray[K, V]](fresh), ebr.TagNone)
	fresh.link.Store(oldHead, ebr.TagNone)
	atomic.AddUint32(&c.numEntries, 1)
}

// preferredFree returns the preferred slot if free, else the array's
// first free slot, else -1.
func preferredFree[K comparable, V any](d *dataArray[K, V], partialHash uint8) int {
	preferred := int(partialHash) % d.length
	occ := atomic.LoadUint32(&d.occupied)
	if occ&(1<<uint(preferred)) == 0 {
		return preferred
	}
	return d.firstFree()
}

// Erase removes the entry at it's position. In lock-free mode this only
// sets the removed bit; otherwise it clears occupied and returns the
// removed (key, value). If this empties an overflow array, that array
// is unlinked and handed to the barrier for reclaim.
func (l *Locker[K, V]) Erase(it *EntryIterator[K, V]) (K, V) {
	c := l.cell
	arr := c.arrayAt(it)

	var k K
	var v V
	if c.lockFree {
		k, v = arr.slots[it.index].key, arr.slots[it.index].value
		arr.markRemoved(it.index)
	} else {
		taken := arr.clearOccupied(it.index)
		k, v = taken.key, taken.value
	}
	atomic.AddUint32(&c.numEntries, ^uint32(0)) // decrement

	if it.predecessor != nil && arr.isEmpty(c.lockFree) {
		b := it.barrier
		// Splice arr out of the chain: predecessor.link takes over
		// arr's own link (whatever comes after arr), and the Owned
		// that used to point at arr is handed to the barrier.
		next := arr.link.Swap(ebr.Owned[*dataArray[K, V]]{}, ebr.TagNone)
		old := it.predecessor.link.Swap(next, ebr.TagNone)
		if !old.IsNull() {
			ebr.Reclaim(b, old)
		}
	}

	return k, v
}

// Extract is Erase's non-lock-free-only counterpart used during rehash:
// it always moves the (K,V) out by value rather than honoring the
// removed-bit indirection. Calling Extract on a lock-free cell panics —
// Go has no compile-time borrow checker to reject the call at the site
// spec.md documents as forbidden, so the violation surfaces at runtime.
func (l *Locker[K, V]) Extract(it *EntryIterator[K, V]) (K, V) {
	if l.cell.lockFree {
		panic(NewErrExtractOnLockFree("Locker.Extract"))
	}
	return l.Erase(it)
}

// Purge marks the cell terminal: every occupied main-array bit is moved
// into removed (lock-free bookkeeping, kept consistent even in
// non-lock-free mode since nothing reads it again), KILLED is set,
// num_entries is zeroed, and the overflow chain is handed to the
// barrier for reclaim.
func (l *Locker[K, V]) Purge(b *ebr.Barrier) {
	c := l.cell

	occ := atomic.LoadUint32(&c.main.occupied)
	atomic.StoreUint32(&c.main.removed, occ)

	old := c.main.link.Swap(ebr.Owned[*dataArray[K, V]]{}, ebr.TagNone)
	if !old.IsNull() {
		reclaimChain(b, old)
	}

	atomic.StoreUint32(&c.numEntries, 0)

	for {
		state := atomic.LoadUint32(&c.state)
		if atomic.CompareAndSwapUint32(&c.state, state, state|stateKilled) {
			return
		}
	}
}

// reclaimChain hands every array in the overflow chain rooted at head to
// the barrier for deferred reclaim.
func reclaimChain[K comparable, V any](b *ebr.Barrier, head ebr.Owned[*dataArray[K, V]]) {
	cur := head
	for !cur.IsNull() {
		next := (*cur.Get()).link.Swap(ebr.Owned[*dataArray[K, V]]{}, ebr.TagNone)
		ebr.Reclaim(b, cur)
		cur = next
	}
}
