package xanthus

import (
	"sync"
	"testing"

	"github.com/agilira/xanthus/ebr"
)

func TestTryLockMutualExclusion(t *testing.T) {
	cell := NewCell[string, int](false, DefaultConfig())

	l1, res := cell.TryLock()
	if res != LockAcquired {
		t.Fatalf("expected first TryLock to succeed, got %v", res)
	}

	if _, res := cell.TryLock(); res != LockRetry {
		t.Fatalf("expected second TryLock to be rejected, got %v", res)
	}

	l1.Unlock()

	if _, res := cell.TryLock(); res != LockAcquired {
		t.Fatalf("expected TryLock to succeed after unlock, got %v", res)
	}
}

func TestLockBlocksUntilUnlock(t *testing.T) {
	cell := NewCell[string, int](false, DefaultConfig())
	l1 := cell.Lock()

	done := make(chan struct{})
	go func() {
		l2 := cell.Lock()
		l2.Unlock()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second Lock returned before the first was released")
	default:
	}

	l1.Unlock()
	<-done
}

func TestTryLockOrWaitCooperative(t *testing.T) {
	cell := NewCell[string, int](false, DefaultConfig())
	l1 := cell.Lock()

	h := &fakeHandle{}
	_, res := cell.TryLockOrWait(h)
	if res != LockRetry {
		t.Fatalf("expected LockRetry while locked, got %v", res)
	}

	l1.Unlock()

	if h.notified == 0 {
		t.Fatal("expected handle to be notified once the lock became available")
	}

	l2, res := cell.TryLockOrWait(h)
	if res != LockAcquired || l2 == nil {
		t.Fatalf("expected retry to now acquire the lock, got l=%v res=%v", l2, res)
	}
}

func TestLockerInsertPanicsOnOverflow(t *testing.T) {
	cell := NewCell[int, int](false, DefaultConfig())
	l := cell.Lock()
	cell.numEntries = maxEntries

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected Insert to panic once num_entries is at the overflow ceiling")
		}
		if code := GetErrorCode(r.(error)); code != ErrCodeEntryCountOverflow {
			t.Fatalf("expected ErrCodeEntryCountOverflow, got %v", code)
		}
	}()
	l.Insert(1, 1, 0)
}

func TestLockerExtractPanicsOnLockFreeCell(t *testing.T) {
	cell := NewCell[string, int](true, DefaultConfig())
	l := cell.Lock()
	l.Insert("a", 1, hashByte("a"))

	b := ebr.Pin()
	it := cell.Get(b, "a", hashByte("a"))
	defer b.Release()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected Extract to panic on a lock-free cell")
		}
		if !IsExtractOnLockFree(r.(error)) {
			t.Fatalf("expected IsExtractOnLockFree, got %v", r)
		}
	}()
	l.Extract(it)
}

func TestLockerConcurrentExclusiveInserts(t *testing.T) {
	const workers = 16
	cell := NewCell[int, int](false, DefaultConfig())

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			l := cell.Lock()
			l.Insert(id, id, uint8(id))
			l.Unlock()
		}(w)
	}
	wg.Wait()

	if cell.NumEntries() != workers {
		t.Fatalf("expected %d entries, got %d", workers, cell.NumEntries())
	}
}
