package allocator

import (
	"norn/kernel"
	"norn/kernel/mem"
	"norn/kernel/mem/pmm"
	"norn/kernel/sync"
	"unsafe"
)

// freeBlockHeader is written into the first bytes of every free block so the
// free list threads through physical memory itself instead of requiring
// separate bookkeeping storage; the buddy allocator must remain usable
// before any general-purpose allocator exists to hand out that storage.
type freeBlockHeader struct {
	next pmm.Frame
}

func headerFor(f pmm.Frame) *freeBlockHeader {
	va := mem.PhysToDirectMap(mem.PA(f.Address()))
	return (*freeBlockHeader)(unsafe.Pointer(va.Address()))
}

var (
	// headerNextGet/headerNextSet read and write a free block's link field.
	// Tests substitute these with a plain map so the free-list logic can be
	// exercised without a direct-map mapping backing real memory, the same
	// way nextAddrFn/flushTLBEntryFn stand in for vmm's direct hardware
	// access in its own tests.
	headerNextGet = func(f pmm.Frame) pmm.Frame { return headerFor(f).next }
	headerNextSet = func(f pmm.Frame, next pmm.Frame) { headerFor(f).next = next }
)

var errBuddyOutOfMemory = &kernel.Error{Module: "buddy_alloc", Message: "out of memory", Kind: kernel.OutOfMemory}

// zoneFreeLists holds one free list per order for a single zone.
type zoneFreeLists struct {
	heads  [mem.MaxOrder]pmm.Frame
	counts [mem.MaxOrder]uint64
}

// BuddyAllocator is a per-zone, per-order free-list physical frame
// allocator with coalescing on free. All zone state is guarded by a single
// IRQ-safe spinlock: page allocation happens from both thread and interrupt
// context (the page-fault handler), so the lock must be acquired with
// LockDisableIRQ rather than Acquire.
type BuddyAllocator struct {
	mu    sync.Spinlock
	zones []zoneFreeLists
}

// Init resets the allocator to empty for every zone.
func (b *BuddyAllocator) Init() {
	b.zones = make([]zoneFreeLists, mem.ZoneCount())
	for z := range b.zones {
		for o := range b.zones[z].heads {
			b.zones[z].heads[o] = pmm.InvalidFrame
		}
	}
}

// AddRange donates count frames starting at start to the allocator. The
// range is greedily decomposed into the largest alignment- and
// size-respecting power-of-two blocks, each pushed onto its zone/order free
// list. AddRange must only be called with frames the caller knows to be
// free and not already tracked by the allocator (the handover from the
// bootstrap allocator calls this exactly once per untouched region).
func (b *BuddyAllocator) AddRange(start pmm.Frame, count uint64) {
	f, remaining := start, count
	for remaining > 0 {
		order := mem.PageOrder(0)
		for order+1 < mem.MaxOrder {
			blockFrames := uint64(1) << uint(order+1)
			if uint64(f)%blockFrames != 0 || blockFrames > remaining {
				break
			}
			order++
		}

		zone := mem.ZoneOf(mem.PA(f.Address()))
		b.push(zone, order, f)

		blockFrames := uint64(1) << uint(order)
		f += pmm.Frame(blockFrames)
		remaining -= blockFrames
	}
}

func (b *BuddyAllocator) push(zone mem.Zone, order mem.PageOrder, f pmm.Frame) {
	zl := &b.zones[zone]
	headerNextSet(f, zl.heads[order])
	zl.heads[order] = f
	zl.counts[order]++
}

func (b *BuddyAllocator) pop(zone mem.Zone, order mem.PageOrder) (pmm.Frame, bool) {
	zl := &b.zones[zone]
	f := zl.heads[order]
	if f == pmm.InvalidFrame {
		return pmm.InvalidFrame, false
	}
	zl.heads[order] = headerNextGet(f)
	zl.counts[order]--
	return f, true
}

// remove splices target out of zone/order's free list if present, returning
// whether it was found. Used by Free to test whether a block's buddy is
// currently free and eligible for coalescing.
func (b *BuddyAllocator) remove(zone mem.Zone, order mem.PageOrder, target pmm.Frame) bool {
	zl := &b.zones[zone]
	if zl.heads[order] == target {
		zl.heads[order] = headerNextGet(target)
		zl.counts[order]--
		return true
	}

	prev := zl.heads[order]
	for prev != pmm.InvalidFrame {
		next := headerNextGet(prev)
		if next == target {
			headerNextSet(prev, headerNextGet(target))
			zl.counts[order]--
			return true
		}
		prev = next
	}
	return false
}

func buddyOf(f pmm.Frame, order mem.PageOrder) pmm.Frame {
	blockFrames := pmm.Frame(uint64(1) << uint(order))
	return f ^ blockFrames
}

// AllocPages reserves a contiguous block of order.PageCount() frames from
// the given zone, splitting a larger free block if no exact match is
// available. It returns errBuddyOutOfMemory if the zone has no free block
// of sufficient size.
func (b *BuddyAllocator) AllocPages(order mem.PageOrder, zone mem.Zone) (pmm.Frame, *kernel.Error) {
	wasEnabled := b.mu.LockDisableIRQ()
	defer b.mu.UnlockRestoreIRQ(wasEnabled)

	for o := order; o < mem.MaxOrder; o++ {
		f, ok := b.pop(zone, o)
		if !ok {
			continue
		}

		for split := o; split > order; split-- {
			buddyFrame := f + pmm.Frame(mem.PageOrder(split-1).PageCount())
			b.push(zone, split-1, buddyFrame)
		}
		return f, nil
	}

	return pmm.InvalidFrame, errBuddyOutOfMemory
}

// FreePages returns a previously allocated block to the allocator, merging
// it with its buddy repeatedly for as long as the buddy is itself free and
// of the same order.
func (b *BuddyAllocator) FreePages(f pmm.Frame, order mem.PageOrder) {
	wasEnabled := b.mu.LockDisableIRQ()
	defer b.mu.UnlockRestoreIRQ(wasEnabled)

	zone := mem.ZoneOf(mem.PA(f.Address()))
	cur, curOrder := f, order
	for curOrder < mem.MaxOrder-1 {
		buddy := buddyOf(cur, curOrder)
		if !b.remove(zone, curOrder, buddy) {
			break
		}
		if buddy < cur {
			cur = buddy
		}
		curOrder++
	}

	b.push(zone, curOrder, cur)
}

// FreeCount returns the number of free blocks currently tracked at order in
// zone; exposed for diagnostics and tests.
func (b *BuddyAllocator) FreeCount(zone mem.Zone, order mem.PageOrder) uint64 {
	return b.zones[zone].counts[order]
}
