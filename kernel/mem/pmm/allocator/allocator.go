// Package allocator implements the two-tier physical frame allocator: a
// bootstrap bump allocator (bootMemAllocator) hands out single frames
// directly from the boot memory map until paging is fully established, at
// which point SwitchToBuddyAllocator seeds a BuddyAllocator with whatever
// the bump allocator never touched and all further allocation (and, for
// the first time, freeing) goes through it.
package allocator

import (
	"norn/kernel"
	"norn/kernel/boot"
	"norn/kernel/mem"
	"norn/kernel/mem/pmm"
)

var (
	buddy BuddyAllocator

	// frameAllocFn is swapped from the bump allocator to the buddy
	// allocator by SwitchToBuddyAllocator; AllocFrame always calls through
	// it so callers never need to know which tier is currently active.
	frameAllocFn = earlyAllocator.AllocFrame

	// frameFreeFn is nil until the buddy allocator takes over; calling
	// FreeFrame before that is a programming error.
	frameFreeFn func(pmm.Frame, mem.PageOrder)

	errFreeBeforeBuddy = &kernel.Error{Module: "allocator", Message: "FreeFrame called before the buddy allocator took over"}
)

// Init prepares the bootstrap allocator, excluding the kernel image's own
// frames from consideration.
func Init(kernelStart, kernelEnd uintptr) {
	earlyAllocator.init(kernelStart, kernelEnd)
}

// AllocFrame reserves and returns a single physical frame using whichever
// allocator tier is currently active.
func AllocFrame() (pmm.Frame, *kernel.Error) {
	return frameAllocFn()
}

// AllocPages reserves a contiguous block of 2^order frames from zone. Only
// meaningful once SwitchToBuddyAllocator has run: it always draws from the
// buddy allocator and never falls back to the bump allocator, whatever the
// order.
func AllocPages(order mem.PageOrder, zone mem.Zone) (pmm.Frame, *kernel.Error) {
	return buddy.AllocPages(order, zone)
}

// FreeFrame returns a single frame (order 0) to the buddy allocator.
func FreeFrame(f pmm.Frame) *kernel.Error {
	return FreePages(f, 0)
}

// FreePages returns a block of 2^order frames to the buddy allocator. It is
// an error to call this before SwitchToBuddyAllocator: the bump allocator
// has no notion of a free list to return frames to.
func FreePages(f pmm.Frame, order mem.PageOrder) *kernel.Error {
	if frameFreeFn == nil {
		return errFreeBeforeBuddy
	}
	frameFreeFn(f, order)
	return nil
}

// SwitchToBuddyAllocator seeds a fresh BuddyAllocator with every frame in
// rec's memory map that is both available and not yet claimed by the
// bootstrap allocator or the kernel image, then makes the buddy allocator
// the active tier for both AllocFrame and FreePages.
//
// A frame is free to donate iff it lies in an available descriptor, is
// past the bump allocator's high-water mark (lastAllocFrame advances
// monotonically in ascending address order, so every earlier frame in an
// already-visited region is necessarily spoken for) and falls outside the
// kernel image's own frame range.
func SwitchToBuddyAllocator(rec *boot.Record) {
	buddy.Init()

	boot.MemAvailable(rec, func(d boot.MemoryDescriptor) bool {
		regionStart := pmm.Frame(uint64(d.PhysicalStart.Address()) >> mem.PageShift)
		regionEnd := regionStart + pmm.Frame(d.NumPages) // exclusive

		runStart := pmm.InvalidFrame
		flush := func(end pmm.Frame) {
			if runStart != pmm.InvalidFrame && end > runStart {
				buddy.AddRange(runStart, uint64(end-runStart))
			}
			runStart = pmm.InvalidFrame
		}

		for f := regionStart; f < regionEnd; f++ {
			free := f > earlyAllocator.lastAllocFrame &&
				(f < earlyAllocator.kernelStartFrame || f > earlyAllocator.kernelEndFrame)

			switch {
			case free && runStart == pmm.InvalidFrame:
				runStart = f
			case !free:
				flush(f)
			}
		}
		flush(regionEnd)

		return true
	})

	frameAllocFn = func() (pmm.Frame, *kernel.Error) {
		return buddy.AllocPages(0, mem.ZoneNormal)
	}
	frameFreeFn = buddy.FreePages
}

// PrintMemoryMap logs the system memory map and bootstrap allocator
// bookkeeping via kfmt.Printf; useful while debugging boot.
func PrintMemoryMap() {
	earlyAllocator.printMemoryMap()
}
