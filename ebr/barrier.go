// barrier.go: epoch pinning and deferred reclamation.
//
// The scheme below is a direct generalization of the access-barrier
// algorithm used by Couchbase's nitro skiplist
// (skiplist.AccessBarrier in bmwtsn098-nitro/skiplist/access_barrier.go):
// a session tracks the live count of goroutines currently pinned to it;
// closing a session adds a large offset to its live count so that late
// arrivals detect the close and retry against the new session; the
// goroutine whose release makes the live count land exactly on the
// offset is the one responsible for running that session's deferred
// work, and a single CAS-guarded flag serializes draining across
// sessions that close out of order.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package ebr

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// closeOffset is added to a session's live count when it is closed, so
// that a goroutine which already incremented the count against a
// since-closed session can tell it needs to retry against a fresh one.
const closeOffset = 1 << 30

type session struct {
	live    int32
	seq     uint64
	pending []func()
}

// domain is the process-wide epoch coordinator. Lazily initialized on
// first use and never torn down, matching spec.md's "global state"
// design note.
type domain struct {
	mu             sync.Mutex
	current        unsafe.Pointer // *session
	activeSeq      uint64
	freeSeq        uint64
	closedSessions []*session
	draining       int32
}

var global = newDomain()

func newDomain() *domain {
	d := &domain{}
	d.current = unsafe.Pointer(&session{})
	return d
}

// Barrier is a lexically scoped participation token in the reclamation
// protocol. Obtain one with Pin and call Release when done (typically
// via defer). Every BorrowedPtr read while a Barrier is held remains
// valid for the Barrier's entire lifetime.
type Barrier struct {
	s *session
}

// Pin pins the calling goroutine to the current epoch and returns a
// Barrier representing that participation.
func Pin() *Barrier {
	return global.pin()
}

// Release ends this Barrier's participation in its epoch. If this was
// the last participant of a closed session, Release runs deferred
// reclamation callbacks in session sequence order: that session's, once
// every earlier session has drained, followed by those of any later
// closed sessions that were waiting on it.
func (b *Barrier) Release() {
	if b == nil || b.s == nil {
		return
	}
	global.release(b.s)
	b.s = nil
}

// Reclaim schedules fn to run once every Barrier pinned at the moment
// of this call has been released. fn must not block and must not pin a
// new Barrier.
func (b *Barrier) Reclaim(fn func()) {
	global.reclaim(fn)
}

func (d *domain) pin() *Barrier {
	for {
		sp := (*session)(atomic.LoadPointer(&d.current))
		lc := atomic.AddInt32(&sp.live, 1)
		if lc > closeOffset {
			d.release(sp)
			continue
		}
		return &Barrier{s: sp}
	}
}

func (d *domain) release(s *session) {
	lc := atomic.AddInt32(&s.live, -1)
	switch {
	case lc == closeOffset:
		// Last accessor of a closed session: queue it for draining and
		// try to become the drainer.
		d.mu.Lock()
		d.closedSessions = append(d.closedSessions, s)
		if atomic.CompareAndSwapInt32(&d.draining, 0, 1) {
			d.drainLocked()
			atomic.StoreInt32(&d.draining, 0)
		}
		d.mu.Unlock()
	case lc < 0 || lc == closeOffset-1:
		panic("ebr: unsafe reclamation detected (live count underflow)")
	}
}

// drainLocked runs the pending callbacks of every closed session whose
// sequence number is the next expected one, in order, so a session
// never drains ahead of an earlier session that is still live. Callers
// must hold d.mu.
func (d *domain) drainLocked() {
	for {
		idx := -1
		var next *session
		for i, s := range d.closedSessions {
			if s.seq == d.freeSeq+1 {
				idx = i
				next = s
				break
			}
		}
		if next == nil {
			return
		}
		d.freeSeq++
		for _, fn := range next.pending {
			fn()
		}
		d.closedSessions = append(d.closedSessions[:idx], d.closedSessions[idx+1:]...)
	}
}

// reclaim closes the current session, attaches fn as its deferred work,
// installs a fresh session as the new current one, then releases its
// own (synthetic) participation in the closed session so that draining
// proceeds once every already-pinned Barrier has released.
func (d *domain) reclaim(fn func()) {
	d.mu.Lock()
	oldS := (*session)(atomic.LoadPointer(&d.current))
	newS := &session{}
	atomic.CompareAndSwapPointer(&d.current, unsafe.Pointer(oldS), unsafe.Pointer(newS))
	d.activeSeq++
	oldS.seq = d.activeSeq
	oldS.pending = append(oldS.pending, fn)
	d.mu.Unlock()

	atomic.AddInt32(&oldS.live, closeOffset+1)
	d.release(oldS)
}

// Reclaim is a package-level convenience wrapping Barrier.Reclaim,
// capturing an Owned[T] value: once every Barrier pinned at the moment
// of the call has released, the reference count on o is dropped and,
// if it reaches zero, o's storage is cleared so the backing allocation
// is free to be collected.
func Reclaim[T any](b *Barrier, o Owned[T]) {
	if o.h == nil {
		return
	}
	h := o.h
	b.Reclaim(func() {
		if atomic.AddInt64(&h.strong, -1) == 0 {
			var zero T
			h.value = zero
		}
	})
}
