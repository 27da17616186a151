// queue.go: Queue, a Michael-Scott lock-free FIFO with logical removal
// and lazy physical unlinking.
//
// Grounded on tef-crow/roundabout.go's lock-free coordination style (CAS
// retry loops that re-derive their target from the freshly observed
// value on failure) and on ebr's tagged AtomicOwned for the
// logical-removal bit threaded through Entry.next.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package xanthus

import (
	"github.com/agilira/xanthus/ebr"
)

// Entry is one node of a Queue[T]'s singly-linked chain. next's tag bit
// TagFirst marks the entry that *owns* this field as logically removed;
// a removed entry is therefore detected by inspecting its own next tag,
// not anything on its predecessor.
type Entry[T any] struct {
	instance T
	next     ebr.AtomicOwned[*Entry[T]]
}

// Value returns the payload carried by this entry.
func (e *Entry[T]) Value() T { return e.instance }

// IsRemoved reports whether Remove has already succeeded for this
// entry. Once true, it stays true forever.
func (e *Entry[T]) IsRemoved() bool {
	b := ebr.Pin()
	defer b.Release()
	return e.next.Load(b).Tag() == ebr.TagFirst
}

// Remove atomically transitions this entry's own next-tag from None to
// First. Returns true iff this call performed the transition — only one
// caller, ever, gets true for a given entry.
func (e *Entry[T]) Remove() bool {
	return e.next.UpdateTagIf(func(t ebr.Tag) bool { return t == ebr.TagNone }, ebr.TagFirst)
}

// Queue is a lock-free FIFO. The zero value is an empty, ready-to-use
// queue with no metrics collection; prefer NewQueue to wire a
// MetricsCollector and TimeProvider.
type Queue[T any] struct {
	oldest  ebr.AtomicOwned[*Entry[T]]
	newest  ebr.AtomicOwned[*Entry[T]]
	metrics MetricsCollector
	clock   TimeProvider
}

// NewQueue constructs an empty Queue using cfg's MetricsCollector and
// TimeProvider; a zero Config is normalized to its defaults.
func NewQueue[T any](cfg Config) *Queue[T] {
	_ = cfg.Validate()
	return &Queue[T]{metrics: cfg.MetricsCollector, clock: cfg.TimeProvider}
}

func (q *Queue[T]) observability() (MetricsCollector, TimeProvider) {
	m, c := q.metrics, q.clock
	if m == nil {
		m = NoOpMetricsCollector{}
	}
	if c == nil {
		c = &systemTimeProvider{}
	}
	return m, c
}

// IsEmpty reports whether the queue currently has no reachable entries.
func (q *Queue[T]) IsEmpty() bool {
	b := ebr.Pin()
	defer b.Release()
	return q.oldest.Load(b).IsNull()
}

// nullNext is the expected BorrowedPtr value for "this entry's next
// field holds null with no tag" — exactly the zero BorrowedPtr.
func nullNext[T any]() ebr.BorrowedPtr[*Entry[T]] { return ebr.BorrowedPtr[*Entry[T]]{} }

// cleanupOldest advances oldest past a logically-removed head, handing
// the detached entry to the barrier for reclaim. Returns the (possibly
// unchanged) current oldest pointer.
func (q *Queue[T]) cleanupOldest(b *ebr.Barrier) ebr.BorrowedPtr[*Entry[T]] {
	for {
		head := q.oldest.Load(b)
		if head.IsNull() || (*head.Deref()).next.Load(b).Tag() != ebr.TagFirst {
			return head
		}

		nextOwned := (*head.Deref()).next.GetShared(b)
		detached := head.GetShared()

		ok, newHead := q.oldest.CompareAndSwapFromBorrowed(head, nextOwned, ebr.TagNone)
		if !ok {
			ebr.Reclaim(b, nextOwned)
			ebr.Reclaim(b, detached)
			continue
		}

		ebr.Reclaim(b, detached)
		if newHead.IsNull() {
			q.newest.Store(ebr.Owned[*Entry[T]]{}, ebr.TagNone)
		}
		return newHead
	}
}

// trueTail walks from newest (or oldest if newest is null) to the true
// tail, re-scanning via next-loads since newest is only an eventual
// hint. Returns the tail's BorrowedPtr (null if the queue is empty) and
// its *Entry[T] for cond evaluation.
func (q *Queue[T]) trueTail(b *ebr.Barrier) (ebr.BorrowedPtr[*Entry[T]], *Entry[T]) {
	cur := q.newest.Load(b)
	if cur.IsNull() {
		cur = q.oldest.Load(b)
	}
	if cur.IsNull() {
		return cur, nil
	}
	for {
		next := (*cur.Deref()).next.Load(b)
		if next.IsNull() {
			return cur, *cur.Deref()
		}
		cur = next
	}
}

// publishNewest makes fresh the new newest hint, then resets it to null
// if a racing pop fully drained the queue out from under this push.
func (q *Queue[T]) publishNewest(b *ebr.Barrier, fresh ebr.Owned[*Entry[T]]) {
	q.newest.Swap(fresh, ebr.TagNone)
	if q.oldest.Load(b).IsNull() {
		q.newest.Store(ebr.Owned[*Entry[T]]{}, ebr.TagNone)
	}
}

// PushIf appends val if cond accepts the current true tail (nil if the
// queue is empty). On success it returns the new entry and true. On
// rejection it returns nil and false without installing val.
func (q *Queue[T]) PushIf(val T, cond func(tail *Entry[T]) bool) (*Entry[T], bool) {
	b := ebr.Pin()
	defer b.Release()

	metrics, clock := q.observability()
	start := clock.Now()
	defer func() { metrics.ObserveQueuePush(clock.Now() - start) }()

	fresh := ebr.New(&Entry[T]{instance: val})

	for {
		tailPtr, tailEntry := q.trueTail(b)

		if !cond(tailEntry) {
			return nil, false
		}

		var ok bool
		var observed ebr.BorrowedPtr[*Entry[T]]
		if tailPtr.IsNull() {
			ok, observed = q.oldest.CompareAndSwapFromBorrowed(tailPtr, fresh, ebr.TagNone)
		} else {
			ok, observed = (*tailPtr.Deref()).next.CompareAndSwapFromBorrowed(nullNext[T](), fresh, ebr.TagNone)
		}

		if ok {
			q.publishNewest(b, fresh)
			return *fresh.Get(), true
		}

		// Lost the race: if what we observed is a logically-removed
		// head/tail, help unlink it before retrying from scratch.
		if observed.Tag() == ebr.TagFirst {
			q.cleanupOldest(b)
		}
	}
}

// Push is PushIf with an always-true condition.
func (q *Queue[T]) Push(val T) *Entry[T] {
	e, _ := q.PushIf(val, func(*Entry[T]) bool { return true })
	return e
}

// PopIf removes and returns the head entry if cond accepts it.
//
//   - Empty queue: returns (nil, true) — Go's stand-in for spec.md's
//     Ok(None); there was nothing to reject.
//   - cond rejects the live head: returns (head, false) without removing it.
//   - cond accepts and the removal succeeds: returns (head, true).
func (q *Queue[T]) PopIf(cond func(head *Entry[T]) bool) (*Entry[T], bool) {
	b := ebr.Pin()
	defer b.Release()

	metrics, clock := q.observability()
	start := clock.Now()
	defer func() { metrics.ObserveQueuePop(clock.Now() - start) }()

	for {
		head := q.oldest.Load(b)
		if head.IsNull() {
			return nil, true
		}

		if (*head.Deref()).next.Load(b).Tag() == ebr.TagFirst {
			metrics.IncQueueCleanup()
			q.cleanupOldest(b)
			continue
		}

		entry := *head.Deref()
		if !cond(entry) {
			return entry, false
		}

		if entry.Remove() {
			metrics.IncQueueCleanup()
			q.cleanupOldest(b)
			return entry, true
		}
		// Another goroutine removed it concurrently between our load
		// and our Remove attempt; help cleanup and retry from the head.
		q.cleanupOldest(b)
	}
}

// Pop is PopIf with an always-true condition.
func (q *Queue[T]) Pop() (*Entry[T], bool) {
	return q.PopIf(func(*Entry[T]) bool { return true })
}

// Peek returns f applied to the live head entry, skipping
// logically-removed heads via cleanupOldest, without removing anything.
// Returns the zero value and false on an empty queue.
func (q *Queue[T]) Peek(f func(*Entry[T]) T) (T, bool) {
	b := ebr.Pin()
	defer b.Release()

	for {
		head := q.oldest.Load(b)
		if head.IsNull() {
			var zero T
			return zero, false
		}
		if (*head.Deref()).next.Load(b).Tag() == ebr.TagFirst {
			q.cleanupOldest(b)
			continue
		}
		return f(*head.Deref()), true
	}
}
