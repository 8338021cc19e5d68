package storage

import (
	"testing"
)

// TestLRUReplacerVictimOrder tests victim selection in LRU order
func TestLRUReplacerVictimOrder(t *testing.T) {
	replacer := NewLRUReplacer(5)

	replacer.SetEvictable(0, true)
	replacer.SetEvictable(1, true)
	replacer.SetEvictable(2, true)

	victim, ok := replacer.Evict()
	if !ok {
		t.Fatal("Should have a victim")
	}
	if victim != 0 {
		t.Errorf("Expected victim 0, got %d", victim)
	}

	victim, ok = replacer.Evict()
	if !ok {
		t.Fatal("Should have a victim")
	}
	if victim != 1 {
		t.Errorf("Expected victim 1, got %d", victim)
	}
}

// TestLRUReplacerAccessRefreshesRecency tests that RecordAccess on an
// evictable frame makes it most recently used
func TestLRUReplacerAccessRefreshesRecency(t *testing.T) {
	replacer := NewLRUReplacer(5)

	replacer.SetEvictable(0, true)
	replacer.SetEvictable(1, true)
	replacer.SetEvictable(2, true)

	// Frame 0 becomes most recently used
	replacer.RecordAccess(0, AccessUnknown)

	victim, ok := replacer.Evict()
	if !ok {
		t.Fatal("Should have a victim")
	}
	if victim != 1 {
		t.Errorf("Expected victim 1 (oldest), got %d", victim)
	}
}

// TestLRUReplacerPin tests that non-evictable frames are not chosen
func TestLRUReplacerPin(t *testing.T) {
	replacer := NewLRUReplacer(5)

	replacer.SetEvictable(0, true)
	replacer.SetEvictable(1, true)
	replacer.SetEvictable(2, true)

	if replacer.Size() != 3 {
		t.Errorf("Expected size 3, got %d", replacer.Size())
	}

	replacer.SetEvictable(1, false)

	if replacer.Size() != 2 {
		t.Errorf("Expected size 2 after pin, got %d", replacer.Size())
	}

	victim, ok := replacer.Evict()
	if !ok {
		t.Fatal("Should have a victim")
	}
	if victim != 0 {
		t.Errorf("Expected victim 0, got %d", victim)
	}

	victim, ok = replacer.Evict()
	if !ok {
		t.Fatal("Should have a victim")
	}
	if victim != 2 {
		t.Errorf("Expected victim 2 (frame 1 is pinned), got %d", victim)
	}
}

// TestLRUReplacerEmpty tests an empty replacer
func TestLRUReplacerEmpty(t *testing.T) {
	replacer := NewLRUReplacer(5)

	victim, ok := replacer.Evict()
	if ok {
		t.Errorf("Should not have a victim when empty, got %d", victim)
	}

	if replacer.Size() != 0 {
		t.Errorf("Expected size 0, got %d", replacer.Size())
	}
}

// TestLRUReplacerRemove tests dropping a frame from the order
func TestLRUReplacerRemove(t *testing.T) {
	replacer := NewLRUReplacer(5)

	replacer.SetEvictable(0, true)
	replacer.SetEvictable(1, true)

	replacer.Remove(0)

	victim, ok := replacer.Evict()
	if !ok {
		t.Fatal("Should have a victim")
	}
	if victim != 1 {
		t.Errorf("Expected victim 1, got %d", victim)
	}
}

// TestLRUReplacerOutOfRange tests that out-of-range frame ids panic
func TestLRUReplacerOutOfRange(t *testing.T) {
	replacer := NewLRUReplacer(3)

	defer func() {
		if recover() == nil {
			t.Fatal("SetEvictable on out-of-range frame should panic")
		}
	}()

	replacer.SetEvictable(3, true)
}

// TestReplacerFactory tests policy selection by name
func TestReplacerFactory(t *testing.T) {
	if _, ok := NewReplacerPolicy("lru", 4, 2).(*LRUReplacer); !ok {
		t.Error("Expected lru policy to build an LRUReplacer")
	}
	if _, ok := NewReplacerPolicy("lru-k", 4, 2).(*LRUKReplacer); !ok {
		t.Error("Expected lru-k policy to build an LRUKReplacer")
	}
	if _, ok := NewReplacerPolicy("unknown", 4, 2).(*LRUKReplacer); !ok {
		t.Error("Expected unknown policy to default to LRUKReplacer")
	}
}
