package xanthus

import "testing"

func TestDataArrayInsertAndSearch(t *testing.T) {
	d := newDataArray[string, int](MainArrayLen)

	i := d.firstFree()
	if i != 0 {
		t.Fatalf("expected first free slot 0, got %d", i)
	}
	d.insertEntry(i, "alpha", 1, 7, false)

	idx, e := searchArray[string, int](d, false, "alpha", 7, nil)
	if idx != 0 || e == nil || e.value != 1 {
		t.Fatalf("searchArray failed: idx=%d e=%v", idx, e)
	}

	if _, e := searchArray[string, int](d, false, "missing", 7, nil); e != nil {
		t.Fatalf("expected miss, got %v", e)
	}
}

func TestDataArrayFirstFreeFillsAllSlots(t *testing.T) {
	d := newDataArray[int, int](MainArrayLen)
	for i := 0; i < MainArrayLen; i++ {
		slot := d.firstFree()
		if slot != i {
			t.Fatalf("expected slot %d, got %d", i, slot)
		}
		d.insertEntry(slot, i, i, uint8(i), false)
	}
	if d.firstFree() != -1 {
		t.Fatalf("expected -1 once full")
	}
}

func TestDataArrayLockFreeRemoval(t *testing.T) {
	d := newDataArray[string, int](MainArrayLen)
	d.insertEntry(0, "k", 9, 3, true)

	if idx, e := searchArray[string, int](d, true, "k", 3, nil); idx != 0 || e == nil {
		t.Fatalf("expected live entry before removal")
	}

	d.markRemoved(0)

	if _, e := searchArray[string, int](d, true, "k", 3, nil); e != nil {
		t.Fatalf("expected removed entry to be invisible under lock-free search")
	}
	if !d.isEmpty(true) {
		t.Fatalf("expected array to report empty once its only entry is removed")
	}
}

func TestDataArrayClearOccupiedZeroesSlot(t *testing.T) {
	d := newDataArray[string, int](MainArrayLen)
	d.insertEntry(0, "k", 9, 3, false)

	taken := d.clearOccupied(0)
	if taken.key != "k" || taken.value != 9 {
		t.Fatalf("unexpected taken entry: %+v", taken)
	}
	if d.slots[0].key != "" || d.slots[0].value != 0 {
		t.Fatalf("expected slot zeroed after clearOccupied")
	}
	if !d.isEmpty(false) {
		t.Fatalf("expected array empty after clearing its only entry")
	}
}

func TestDataArrayPreferredSlotHit(t *testing.T) {
	d := newDataArray[string, int](MainArrayLen)
	// partialHash 5 maps to preferred slot 5 for a 32-length array.
	d.insertEntry(5, "preferred", 100, 5, false)
	d.insertEntry(0, "collider", 200, 5, false)

	idx, e := searchArray[string, int](d, false, "preferred", 5, nil)
	if idx != 5 || e == nil || e.value != 100 {
		t.Fatalf("expected preferred-slot hit, got idx=%d e=%v", idx, e)
	}

	idx, e = searchArray[string, int](d, false, "collider", 5, nil)
	if idx != 0 || e == nil || e.value != 200 {
		t.Fatalf("expected fallback scan to find collider, got idx=%d e=%v", idx, e)
	}
}
