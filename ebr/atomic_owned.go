// atomic_owned.go: AtomicOwned, Owned and BorrowedPtr.
//
// AtomicOwned packs a heap pointer and a 2-bit tag into a single
// uintptr, following the corpus's own convention of reaching for
// unsafe.Pointer tricks over plain fields when an atomic primitive
// needs to publish more than a pointer's worth of state (see
// github.com/agilira/balios's entry.keyData/entry.version SeqLock
// fields in cache.go, and the header-packing in
// tef-crow/roundabout.go's Header.pack/unpack). Reads and
// read-modify-writes go through the plain sync/atomic package
// functions rather than the newer atomic.Uintptr wrapper type, the
// same choice balios's sketch.go makes for its frequency table, so
// that header[T]/AtomicOwned[T] values can be constructed and moved by
// value before anything takes their address.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package ebr

import (
	"sync/atomic"
	"unsafe"
)

// Tag is a 2-bit marker carried alongside a pointer. Queue uses TagFirst
// to mark an Entry as logically removed without touching its payload.
type Tag uint8

const (
	TagNone Tag = iota
	TagFirst
	TagSecond
	TagBoth
)

const tagMask = uintptr(0x3)

// header is the allocation behind every Owned[T]/AtomicOwned[T] value:
// a strong reference count next to the payload, matching the
// "refcount + atomic-owner" design note in spec.md §9.
type header[T any] struct {
	strong int64
	value  T
}

func packPtr[T any](h *header[T], tag Tag) uintptr {
	return uintptr(unsafe.Pointer(h)) | uintptr(tag)
}

func unpackPtr[T any](w uintptr) (*header[T], Tag) {
	return (*header[T])(unsafe.Pointer(w &^ tagMask)), Tag(w & tagMask)
}

// Owned is exclusive or shared ownership of a heap-allocated T. The
// zero Owned[T] represents "no value" (null).
type Owned[T any] struct {
	h *header[T]
}

// New allocates a new Owned[T] holding v with a strong count of one.
func New[T any](v T) Owned[T] {
	return Owned[T]{h: &header[T]{strong: 1, value: v}}
}

// IsNull reports whether o holds no value.
func (o Owned[T]) IsNull() bool { return o.h == nil }

// Get returns a pointer to the owned value. Calling Get on a null Owned
// is a programmer error and panics, mirroring the panic a nil
// dereference would produce.
func (o Owned[T]) Get() *T { return &o.h.value }

// BorrowedPtr is a lifetime-bounded pointer into an AtomicOwned's
// current value, valid for as long as the Barrier it was read under
// remains held. Reading a BorrowedPtr never touches the refcount; only
// GetShared does.
type BorrowedPtr[T any] struct {
	h   *header[T]
	tag Tag
}

// IsNull reports whether the pointer is null.
func (p BorrowedPtr[T]) IsNull() bool { return p.h == nil }

// Tag returns the 2-bit tag carried by this pointer.
func (p BorrowedPtr[T]) Tag() Tag { return p.tag }

// Deref returns a pointer to the pointed-to value. Valid only while the
// Barrier used to obtain p is still held.
func (p BorrowedPtr[T]) Deref() *T { return &p.h.value }

// GetShared upgrades a borrowed pointer into an owned, refcounted
// handle that outlives the current Barrier.
func (p BorrowedPtr[T]) GetShared() Owned[T] {
	if p.h == nil {
		return Owned[T]{}
	}
	atomic.AddInt64(&p.h.strong, 1)
	return Owned[T]{h: p.h}
}

// AtomicOwned holds either null or exclusive ownership of a heap cell
// carrying a T, accessible atomically by any number of concurrent
// goroutines. The zero value is null.
type AtomicOwned[T any] struct {
	word uintptr
}

// NewAtomicOwned constructs an AtomicOwned initialized to v.
func NewAtomicOwned[T any](v T) *AtomicOwned[T] {
	a := &AtomicOwned[T]{}
	a.word = packPtr(&header[T]{strong: 1, value: v}, TagNone)
	return a
}

// IsNull reports whether the current value is null, without needing a
// Barrier (a plain atomic load of the word is enough to answer this).
func (a *AtomicOwned[T]) IsNull() bool {
	h, _ := unpackPtr[T](atomic.LoadUintptr(&a.word))
	return h == nil
}

// Load returns a BorrowedPtr to the current value, valid for the
// lifetime of b.
func (a *AtomicOwned[T]) Load(_ *Barrier) BorrowedPtr[T] {
	h, t := unpackPtr[T](atomic.LoadUintptr(&a.word))
	return BorrowedPtr[T]{h: h, tag: t}
}

// GetShared atomically loads the current value and upgrades it to an
// owned, refcounted handle in one step.
func (a *AtomicOwned[T]) GetShared(_ *Barrier) Owned[T] {
	h, _ := unpackPtr[T](atomic.LoadUintptr(&a.word))
	if h == nil {
		return Owned[T]{}
	}
	atomic.AddInt64(&h.strong, 1)
	return Owned[T]{h: h}
}

// Swap atomically replaces the current value with newOwned tagged tag,
// returning the previous owner so the caller can hand it to
// Barrier.Reclaim/ebr.Reclaim.
func (a *AtomicOwned[T]) Swap(newOwned Owned[T], tag Tag) Owned[T] {
	nw := packPtr(newOwned.h, tag)
	old := atomic.SwapUintptr(&a.word, nw)
	oh, _ := unpackPtr[T](old)
	return Owned[T]{h: oh}
}

// Store is a non-atomic-returning-previous-value store, used during
// construction before the AtomicOwned is published to other goroutines.
func (a *AtomicOwned[T]) Store(newOwned Owned[T], tag Tag) {
	atomic.StoreUintptr(&a.word, packPtr(newOwned.h, tag))
}

// CompareAndSwap attempts to replace (curH, curTag) with (newOwned,
// newTag). On failure it returns the BorrowedPtr observed instead, so
// the caller can retry or inspect what beat it.
func (a *AtomicOwned[T]) CompareAndSwap(curH *header[T], curTag Tag, newOwned Owned[T], newTag Tag) (bool, BorrowedPtr[T]) {
	old := packPtr(curH, curTag)
	nw := packPtr(newOwned.h, newTag)
	if atomic.CompareAndSwapUintptr(&a.word, old, nw) {
		return true, BorrowedPtr[T]{h: newOwned.h, tag: newTag}
	}
	oh, ot := unpackPtr[T](atomic.LoadUintptr(&a.word))
	return false, BorrowedPtr[T]{h: oh, tag: ot}
}

// CompareAndSwapFromBorrowed is CompareAndSwap taking the expected
// state as a BorrowedPtr, the common case of "CAS against what I just
// loaded".
func (a *AtomicOwned[T]) CompareAndSwapFromBorrowed(cur BorrowedPtr[T], newOwned Owned[T], newTag Tag) (bool, BorrowedPtr[T]) {
	return a.CompareAndSwap(cur.h, cur.tag, newOwned, newTag)
}

// UpdateTagIf atomically replaces the tag bits (leaving the pointer
// untouched) with newTag, provided pred holds for the current tag. It
// retries internally on CAS races against concurrent tag or pointer
// changes to the *tag itself*; a concurrent full pointer swap simply
// makes pred re-evaluate against the new tag on the next loop
// iteration. Returns true iff this call performed the transition.
//
// This is the primitive behind Queue's logical-removal transition
// (Entry.next tag None -> First), per spec.md §4.7/§9.
func (a *AtomicOwned[T]) UpdateTagIf(pred func(Tag) bool, newTag Tag) bool {
	for {
		w := atomic.LoadUintptr(&a.word)
		h, t := unpackPtr[T](w)
		if !pred(t) {
			return false
		}
		nw := packPtr(h, newTag)
		if atomic.CompareAndSwapUintptr(&a.word, w, nw) {
			return true
		}
	}
}
