package ebr

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestPinReleaseBasic(t *testing.T) {
	b := Pin()
	if b == nil {
		t.Fatal("expected non-nil Barrier")
	}
	b.Release()
	b.Release() // must be safe to call twice
}

func TestReclaimRunsAfterAllBarriersReleased(t *testing.T) {
	b1 := Pin()
	b2 := Pin()

	var ran int32
	b1.Reclaim(func() { atomic.StoreInt32(&ran, 1) })

	// b1 and b2 were both pinned before Reclaim closed their session, so
	// the callback must not run until both release.
	b1.Release()
	if atomic.LoadInt32(&ran) != 0 {
		t.Fatal("reclaim callback ran before all pinned barriers released")
	}

	b2.Release()
	if atomic.LoadInt32(&ran) != 1 {
		t.Fatal("reclaim callback did not run after all pinned barriers released")
	}
}

func TestReclaimAfterAllAlreadyReleased(t *testing.T) {
	b := Pin()
	b.Release()

	var ran int32
	newB := Pin()
	defer newB.Release()
	newB.Reclaim(func() { atomic.StoreInt32(&ran, 1) })

	if atomic.LoadInt32(&ran) != 0 {
		t.Fatal("reclaim callback should wait for the pinned barrier that scheduled it")
	}
}

func TestAtomicOwnedReclaimClearsValueOnLastRelease(t *testing.T) {
	a := NewAtomicOwned(100)
	b := Pin()
	old := a.Swap(New(200), TagNone)
	Reclaim(b, old)
	b.Release()

	// b was the last participant of the session Reclaim closed, so the
	// drain already ran synchronously inside b.Release; a fresh
	// pin/release pair leaves that unchanged.
	drain := Pin()
	drain.Release()

	if got := *old.Get(); got != 0 {
		t.Fatalf("got %d after last release, want the value cleared to 0", got)
	}
}

func TestConcurrentPinAndReclaim(t *testing.T) {
	a := NewAtomicOwned(0)
	var wg sync.WaitGroup
	const n = 32
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			b := Pin()
			defer b.Release()
			old := a.Swap(New(i), TagNone)
			if !old.IsNull() {
				Reclaim(b, old)
			}
		}()
	}
	wg.Wait()
}
