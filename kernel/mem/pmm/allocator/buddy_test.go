package allocator

import (
	"norn/kernel/mem"
	"norn/kernel/mem/pmm"
	"testing"
)

// withSimulatedFreeList substitutes headerNextGet/headerNextSet with a
// plain map so the free-list splice logic can be exercised without a
// direct-map mapping backing real physical memory.
func withSimulatedFreeList(t *testing.T, fn func()) {
	t.Helper()
	links := map[pmm.Frame]pmm.Frame{}

	origGet, origSet := headerNextGet, headerNextSet
	headerNextGet = func(f pmm.Frame) pmm.Frame {
		if next, ok := links[f]; ok {
			return next
		}
		return pmm.InvalidFrame
	}
	headerNextSet = func(f pmm.Frame, next pmm.Frame) { links[f] = next }
	defer func() { headerNextGet, headerNextSet = origGet, origSet }()

	fn()
}

func TestBuddyAllocSplitsLargerBlock(t *testing.T) {
	withSimulatedFreeList(t, func() {
		var b BuddyAllocator
		b.Init()
		b.AddRange(pmm.Frame(mem.ZoneDMALimit.Address()>>mem.PageShift), 16)

		f, err := b.AllocPages(0, mem.ZoneNormal)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !f.Valid() {
			t.Fatal("expected a valid frame")
		}

		// A single order-0 allocation out of a 16-frame (order-4) block
		// should have split the block down through every intermediate
		// order, leaving exactly one free block at each order below 4.
		for order := mem.PageOrder(0); order < 4; order++ {
			if got := b.FreeCount(mem.ZoneNormal, order); got != 1 {
				t.Errorf("order %d: expected 1 free block, got %d", order, got)
			}
		}
	})
}

func TestBuddyFreeCoalesces(t *testing.T) {
	withSimulatedFreeList(t, func() {
		var b BuddyAllocator
		b.Init()
		base := pmm.Frame(mem.ZoneDMALimit.Address() >> mem.PageShift)
		b.AddRange(base, 2)

		if b.FreeCount(mem.ZoneNormal, 1) != 1 {
			t.Fatalf("expected the 2-frame range to form a single order-1 block")
		}

		f0, err := b.AllocPages(0, mem.ZoneNormal)
		if err != nil {
			t.Fatalf("alloc 1: %v", err)
		}
		f1, err := b.AllocPages(0, mem.ZoneNormal)
		if err != nil {
			t.Fatalf("alloc 2: %v", err)
		}
		if b.FreeCount(mem.ZoneNormal, 0) != 0 || b.FreeCount(mem.ZoneNormal, 1) != 0 {
			t.Fatalf("expected both free lists drained after splitting and allocating both halves")
		}

		b.FreePages(f0, 0)
		if b.FreeCount(mem.ZoneNormal, 0) != 1 {
			t.Fatalf("expected one order-0 block free before the buddy returns")
		}

		b.FreePages(f1, 0)
		if b.FreeCount(mem.ZoneNormal, 0) != 0 {
			t.Fatalf("expected order-0 free list empty after coalescing")
		}
		if b.FreeCount(mem.ZoneNormal, 1) != 1 {
			t.Fatalf("expected the pair to have coalesced back into one order-1 block")
		}
	})
}

func TestBuddyOutOfMemory(t *testing.T) {
	withSimulatedFreeList(t, func() {
		var b BuddyAllocator
		b.Init()

		if _, err := b.AllocPages(0, mem.ZoneNormal); err == nil {
			t.Fatal("expected an error allocating from an empty zone")
		}
	})
}

func TestAddRangeRespectsAlignment(t *testing.T) {
	withSimulatedFreeList(t, func() {
		var b BuddyAllocator
		b.Init()
		// An odd-aligned start forces a single-frame block even though 3
		// frames are donated.
		base := pmm.Frame(mem.ZoneDMALimit.Address()>>mem.PageShift) + 1
		b.AddRange(base, 3)

		if b.FreeCount(mem.ZoneNormal, 0) != 1 {
			t.Fatalf("expected exactly one order-0 block from the misaligned frame")
		}
		if b.FreeCount(mem.ZoneNormal, 1) != 1 {
			t.Fatalf("expected exactly one order-1 block for the remaining aligned pair")
		}
	})
}
