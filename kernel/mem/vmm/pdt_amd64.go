package vmm

import (
	"norn/kernel"
	"norn/kernel/cpu"
	"norn/kernel/mem"
	"norn/kernel/mem/pmm"
)

// x86-64 uses 4-level paging (PML4 -> PDPT -> PD -> PT), each table holding
// 512 (2^9) entries, with the bottom 12 bits of a virtual address serving as
// the in-page offset.
const pageLevels = 4

var (
	pageLevelBits   = [pageLevels]uint8{9, 9, 9, 9}
	pageLevelShifts = [pageLevels]uint8{39, 30, 21, 12}
)

// ptePhysPageMask isolates the physical frame address bits (12-51) of a
// page table entry, excluding the flag bits in [0,11] and the NX bit (63).
const ptePhysPageMask = uintptr(0x000f_ffff_ffff_f000)

// pdtVirtualAddr is the virtual address at which the active PML4 table (and,
// via the standard recursive-mapping trick, every table beneath it) can be
// accessed: the PML4's own last entry points back to itself, so indexing
// through the hierarchy using that entry's index at every level yields the
// table for the level one below.
const pdtVirtualAddr = 0xffff_ff7f_bfdf_e000

// tempMappingAddr is a single fixed page, the last page of the vmalloc
// region, reserved for MapTemporary's short-lived mappings (inactive page
// table inspection, CoW fault servicing).
const tempMappingAddr = uintptr(mem.VMBase) + uintptr(mem.VMallocSize) - uintptr(mem.PageSize)

// The page table entry flags recognised by this package. Bits 9-11 are
// ignored by the MMU and available for OS use; FlagCopyOnWrite claims one
// of them.
const (
	FlagPresent PageTableEntryFlag = 1 << iota
	FlagRW
	FlagUser
	FlagWriteThrough
	FlagCacheDisable
	FlagAccessed
	FlagDirty
	FlagHugePage
	FlagGlobal
	FlagCopyOnWrite
	_
	_
)

// FlagNoExecute is the architecture's NX bit, stored separately since it
// occupies bit 63 rather than the low flag bits above.
const FlagNoExecute PageTableEntryFlag = 1 << 63

var (
	// mapFn/mapTemporaryFn/unmapFn/activePDTFn/switchPDTFn are indirected
	// through package vars, the same way every other hardware-touching
	// helper in this package is, so PageDirectoryTable's methods can be
	// exercised without a live MMU.
	mapFn          = Map
	mapTemporaryFn = MapTemporary
	unmapFn        = Unmap
	activePDTFn    = cpu.ActivePDT
	switchPDTFn    = cpu.SwitchPDT
)

// Page describes a virtual memory page index, not a raw address; Page+1 is
// the next page, matching the way MapRegion and the frame allocator step
// through a run of pages.
type Page uintptr

// Address returns the virtual address of the page's first byte.
func (p Page) Address() uintptr { return uintptr(p) << mem.PageShift }

// PageFromAddress returns the Page containing addr, rounding down if addr is
// not itself page-aligned.
func PageFromAddress(addr uintptr) Page {
	return Page(addr &^ uintptr(mem.PageSize-1) >> mem.PageShift)
}

// PageDirectoryTable represents a top-level (PML4) page table.
type PageDirectoryTable struct {
	frame pmm.Frame
}

// Init associates the table with the backing frame. Unless that frame backs
// the currently active table, Init also clears its contents, establishing
// the recursive self-mapping in its last entry.
func (pdt *PageDirectoryTable) Init(frame pmm.Frame) *kernel.Error {
	pdt.frame = frame

	// The active table holds live mappings; it is recorded, never cleared.
	if frame.Address() == activePDTFn() {
		return nil
	}

	tmpPage, err := mapTemporaryFn(frame)
	if err != nil {
		return err
	}
	defer unmapFn(tmpPage)

	mem.Memset(tmpPage.Address(), 0, mem.PageSize)

	lastEntry := (*pageTableEntry)(ptePtrFn(tmpPage.Address() + 511*(1<<mem.PointerShift)))
	*lastEntry = 0
	lastEntry.SetFrame(frame)
	lastEntry.SetFlags(FlagPresent | FlagRW)

	return nil
}

// Map installs a mapping in this (not necessarily active) page directory by
// temporarily activating it, delegating to the package-level Map, and
// restoring whichever table was active beforehand.
func (pdt *PageDirectoryTable) Map(page Page, frame pmm.Frame, flags PageTableEntryFlag) *kernel.Error {
	prev := activePDTFn()
	switchPDTFn(pdt.frame.Address())
	defer switchPDTFn(prev)

	return mapFn(page, frame, flags)
}

// Activate installs this page directory as the CPU's active one and flushes
// the TLB.
func (pdt *PageDirectoryTable) Activate() {
	switchPDTFn(pdt.frame.Address())
}
