package xanthus

import (
	"fmt"
	"sync"
	"testing"

	"github.com/agilira/xanthus/ebr"
)

func hashByte(s string) uint8 {
	var h uint8
	for i := 0; i < len(s); i++ {
		h = h*31 + s[i]
	}
	return h
}

func TestCellInsertAndSearch(t *testing.T) {
	cell := NewCell[string, int](false, DefaultConfig())

	l := cell.Lock()
	l.Insert("one", 1, hashByte("one"))
	l.Insert("two", 2, hashByte("two"))
	l.Unlock()

	b := ebr.Pin()
	defer b.Release()

	if v, ok := cell.Search(b, "one", hashByte("one")); !ok || v != 1 {
		t.Fatalf("expected one=1, got v=%d ok=%v", v, ok)
	}
	if v, ok := cell.Search(b, "two", hashByte("two")); !ok || v != 2 {
		t.Fatalf("expected two=2, got v=%d ok=%v", v, ok)
	}
	if _, ok := cell.Search(b, "three", hashByte("three")); ok {
		t.Fatalf("expected miss for unknown key")
	}
	if cell.NumEntries() != 2 {
		t.Fatalf("expected 2 entries, got %d", cell.NumEntries())
	}
}

func TestCellOverflowChain(t *testing.T) {
	cell := NewCell[int, int](false, DefaultConfig())

	l := cell.Lock()
	// Force every insert to collide on the same preferred slot so the
	// main array fills and an overflow array must be allocated.
	const n = MainArrayLen + OverflowArrayLen + 3
	for i := 0; i < n; i++ {
		l.Insert(i, i*10, 0)
	}
	l.Unlock()

	if cell.NumEntries() != uint32(n) {
		t.Fatalf("expected %d entries, got %d", n, cell.NumEntries())
	}

	b := ebr.Pin()
	defer b.Release()
	for i := 0; i < n; i++ {
		if v, ok := cell.Search(b, i, 0); !ok || v != i*10 {
			t.Fatalf("key %d: expected %d, got v=%d ok=%v", i, i*10, v, ok)
		}
	}
}

func TestCellEraseUnlinksEmptyOverflowArray(t *testing.T) {
	cell := NewCell[int, int](false, DefaultConfig())

	l := cell.Lock()
	for i := 0; i < MainArrayLen+1; i++ {
		l.Insert(i, i, 0)
	}
	l.Unlock()

	b := ebr.Pin()
	it := cell.Get(b, MainArrayLen, 0)
	if it == nil {
		t.Fatalf("expected to find the overflow entry")
	}

	l = cell.Lock()
	l.Erase(it)
	l.Unlock()
	b.Release()

	if cell.NumEntries() != uint32(MainArrayLen) {
		t.Fatalf("expected %d entries after erase, got %d", MainArrayLen, cell.NumEntries())
	}

	b = ebr.Pin()
	defer b.Release()
	if _, ok := cell.Search(b, MainArrayLen, 0); ok {
		t.Fatalf("expected erased key to be gone")
	}
	// The remaining main-array entries must still be reachable.
	if v, ok := cell.Search(b, 0, 0); !ok || v != 0 {
		t.Fatalf("expected key 0 still present, got v=%d ok=%v", v, ok)
	}
}

func TestCellPurgeKillsCell(t *testing.T) {
	cell := NewCell[string, int](false, DefaultConfig())

	l := cell.Lock()
	l.Insert("a", 1, hashByte("a"))
	b := ebr.Pin()
	l.Purge(b)
	b.Release()

	if !cell.IsKilled() {
		t.Fatalf("expected cell to report killed after purge")
	}
	if cell.NumEntries() != 0 {
		t.Fatalf("expected 0 entries after purge, got %d", cell.NumEntries())
	}

	if _, res := cell.TryLock(); res != LockKilled {
		t.Fatalf("expected TryLock on a killed cell to report LockKilled, got %v", res)
	}
}

// TestCellConcurrentMultiWriterRendezvous exercises 34 concurrent
// goroutines each inserting a distinct key then reading back its own
// insert; once all have finished, every key is read again, rehearsing
// the kind of multi-writer contention a real hash map bucket sees under
// load.
func TestCellConcurrentMultiWriterRendezvous(t *testing.T) {
	const workers = 34
	cell := NewCell[string, int](false, DefaultConfig())

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("worker-%d", id)

			l := cell.Lock()
			l.Insert(key, id, hashByte(key))
			l.Unlock()

			b := ebr.Pin()
			if v, ok := cell.Search(b, key, hashByte(key)); !ok || v != id {
				b.Release()
				t.Errorf("worker %d: expected to read back its own insert, got v=%d ok=%v", id, v, ok)
				return
			}
			b.Release()
		}(w)
	}
	wg.Wait()

	if cell.NumEntries() != workers {
		t.Fatalf("expected %d entries, got %d", workers, cell.NumEntries())
	}

	b := ebr.Pin()
	defer b.Release()
	for w := 0; w < workers; w++ {
		key := fmt.Sprintf("worker-%d", w)
		if v, ok := cell.Search(b, key, hashByte(key)); !ok || v != w {
			t.Errorf("post-rendezvous read of %s failed: v=%d ok=%v", key, v, ok)
		}
	}
}

func TestCellIteratorWalksAllEntries(t *testing.T) {
	cell := NewCell[int, int](false, DefaultConfig())
	l := cell.Lock()
	for i := 0; i < 5; i++ {
		l.Insert(i, i*2, uint8(i))
	}
	l.Unlock()

	b := ebr.Pin()
	defer b.Release()

	it := cell.Iter(b)
	seen := map[int]int{}
	for it.Next() {
		seen[it.Key()] = it.Value()
	}
	if len(seen) != 5 {
		t.Fatalf("expected 5 entries from iterator, got %d", len(seen))
	}
	for i := 0; i < 5; i++ {
		if seen[i] != i*2 {
			t.Errorf("key %d: expected %d, got %d", i, i*2, seen[i])
		}
	}
}
