package vmm

import (
	"norn/kernel"
	"norn/kernel/list"
	"norn/kernel/mem"
)

var (
	errVMAOverlap  = &kernel.Error{Module: "vmm", Message: "requested region overlaps an existing mapping", Kind: kernel.InvalidRegion}
	errVMANotFound = &kernel.Error{Module: "vmm", Message: "address does not belong to any mapping", Kind: kernel.InvalidRegion}
	errConcurrent  = &kernel.Error{Module: "vmm", Message: "concurrent access to a process's memory map"}

	// memMapFn/memUnmapFn/pteLookupFn are indirected through package vars,
	// the same swappable-seam convention pdt_amd64.go and map.go use, so
	// MemoryMap's methods can be exercised without a live MMU.
	memMapFn    = Map
	memUnmapFn  = Unmap
	pteLookupFn = pteForAddress
)

// MemoryMap owns the VMAs that make up a single process's address space. A
// process is driven by exactly one thread of control at a time (spec.md's
// single-threaded-per-process model), so concurrent access is caught with
// an assertion flag rather than guarded with a blocking mutex.
type MemoryMap struct {
	vmas   list.List[VMA]
	locked bool

	brk     *VMA
	brkAddr uintptr
}

// NewMemoryMap returns an empty address space whose heap starts (and, until
// the first sys_brk call that grows it, ends) at brkBase. Callers pick
// brkBase per-process; it plays the same role as ELF loaders choosing a
// load bias.
func NewMemoryMap(brkBase uintptr) *MemoryMap {
	m := &MemoryMap{}
	v := &VMA{Start: brkBase, End: brkBase, Flags: VMRead | VMWrite}
	m.vmas.Append(v)
	m.brk = v
	m.brkAddr = brkBase
	return m
}

// lockAssert panics if the map is already locked, then marks it locked;
// paired with unlock via defer at the top of every exported method.
func (m *MemoryMap) lockAssert() {
	if m.locked {
		panic(errConcurrent)
	}
	m.locked = true
}

func (m *MemoryMap) unlock() { m.locked = false }

func roundUpPage(addr uintptr) uintptr {
	return (addr + uintptr(mem.PageSize) - 1) &^ (uintptr(mem.PageSize) - 1)
}

func roundDownPage(addr uintptr) uintptr {
	return addr &^ (uintptr(mem.PageSize) - 1)
}

// find returns the VMA containing addr, or nil.
func (m *MemoryMap) find(addr uintptr) *VMA {
	for v := m.vmas.First(); v != nil; v = m.vmas.Next(v) {
		if v.Contains(addr) {
			return v
		}
	}
	return nil
}

// overlaps reports whether any existing VMA intersects [start, end).
func (m *MemoryMap) overlaps(start, end uintptr) bool {
	for v := m.vmas.First(); v != nil; v = m.vmas.Next(v) {
		if v.Overlaps(start, end) {
			return true
		}
	}
	return false
}

// insertSorted links v into the list in ascending Start order.
func (m *MemoryMap) insertSorted(v *VMA) {
	for mark := m.vmas.First(); mark != nil; mark = m.vmas.Next(mark) {
		if v.Start < mark.Start {
			m.vmas.InsertBefore(v, mark)
			return
		}
	}
	m.vmas.Append(v)
}

// Map establishes a new VMA covering [start, start+size) with the given
// protection flags. Backing frames are not allocated up front: every page
// is mapped present-but-CoW against ReservedZeroedFrame, and a real frame
// is assigned lazily the first time the page is written to (see map.go's
// documentation on ReservedZeroedFrame).
func (m *MemoryMap) Map(start uintptr, size mem.Size, flags VMFlags) (*VMA, *kernel.Error) {
	m.lockAssert()
	defer m.unlock()

	start = roundDownPage(start)
	end := roundUpPage(start + uintptr(size))

	if m.overlaps(start, end) {
		return nil, errVMAOverlap
	}

	v := &VMA{Start: start, End: end, Flags: flags}

	// RW is left to the CoW fault handler, which grants it on first write.
	mapFlags := (flags.ToPageFlags() &^ FlagRW) | FlagCopyOnWrite
	for page := PageFromAddress(start); page.Address() < end; page++ {
		if err := memMapFn(page, ReservedZeroedFrame, mapFlags); err != nil {
			return nil, err
		}
	}

	m.insertSorted(v)
	return v, nil
}

// Unmap tears down every page in [start, start+size) and removes any VMA
// wholly covered by the range. A VMA only partially covered is trimmed
// rather than removed; overlap at both ends splits it in two.
func (m *MemoryMap) Unmap(start uintptr, size mem.Size) *kernel.Error {
	m.lockAssert()
	defer m.unlock()

	start = roundDownPage(start)
	end := roundUpPage(start + uintptr(size))

	for page := PageFromAddress(start); page.Address() < end; page++ {
		if err := memUnmapFn(page); err != nil && err != ErrInvalidMapping {
			return err
		}
	}

	for v := m.vmas.First(); v != nil; {
		next := m.vmas.Next(v)
		switch {
		case v.Start >= start && v.End <= end:
			m.vmas.Remove(v)
		case v.Start < start && v.End > end:
			tail := &VMA{Start: end, End: v.End, Flags: v.Flags}
			v.End = start
			m.vmas.InsertAfter(tail, v)
		case v.Start < start && v.End > start:
			v.End = start
		case v.Start < end && v.End > end:
			v.Start = end
		}
		v = next
	}

	return nil
}

// Mprotect changes the protection flags for [start, start+size). Any VMA
// only partially covered by the range is split so the flag change applies
// to exactly the requested pages.
func (m *MemoryMap) Mprotect(start uintptr, size mem.Size, newFlags VMFlags) *kernel.Error {
	m.lockAssert()
	defer m.unlock()

	start = roundDownPage(start)
	end := roundUpPage(start + uintptr(size))

	for v := m.vmas.First(); v != nil; {
		next := m.vmas.Next(v)
		if !v.Overlaps(start, end) {
			v = next
			continue
		}

		if v.Start < start {
			head := &VMA{Start: v.Start, End: start, Flags: v.Flags}
			m.vmas.InsertBefore(head, v)
			v.Start = start
		}
		if v.End > end {
			tail := &VMA{Start: end, End: v.End, Flags: v.Flags}
			m.vmas.InsertAfter(tail, v)
			v.End = end
		}

		v.Flags = newFlags
		flags := newFlags.ToPageFlags()
		for page := PageFromAddress(v.Start); page.Address() < v.End; page++ {
			if err := remapFlags(page, flags); err != nil {
				return err
			}
		}

		v = next
	}

	return nil
}

// remapFlags updates a single page table entry's flags in place, preserving
// its frame mapping — unlike Map it never allocates a new table and unlike
// Unmap it never clears FlagPresent.
func remapFlags(page Page, flags PageTableEntryFlag) *kernel.Error {
	pte, err := pteLookupFn(page.Address())
	if err != nil {
		return err
	}
	frame := pte.Frame()
	return memMapFn(page, frame, flags)
}

// Brk implements the sys_brk contract: addr == 0 queries the current break
// without changing it; any other value at or above the heap's fixed base
// moves the break to that address rounded up to a page boundary, growing or
// shrinking the heap VMA to match. A request below the base leaves the break
// unchanged. It returns the break's value after the call.
func (m *MemoryMap) Brk(addr uintptr) (uintptr, *kernel.Error) {
	m.lockAssert()
	defer m.unlock()

	if addr == 0 {
		return m.brkAddr, nil
	}
	if addr < m.brk.Start {
		return m.brkAddr, nil
	}

	newEnd := roundUpPage(addr)
	switch {
	case newEnd > m.brk.End:
		if m.overlaps(m.brk.End, newEnd) {
			return m.brkAddr, errVMAOverlap
		}
		mapFlags := (m.brk.Flags.ToPageFlags() &^ FlagRW) | FlagCopyOnWrite
		for page := PageFromAddress(m.brk.End); page.Address() < newEnd; page++ {
			if err := memMapFn(page, ReservedZeroedFrame, mapFlags); err != nil {
				return m.brkAddr, err
			}
		}
		m.brk.End = newEnd
	case newEnd < m.brk.End:
		for page := PageFromAddress(newEnd); page.Address() < m.brk.End; page++ {
			if err := memUnmapFn(page); err != nil && err != ErrInvalidMapping {
				return m.brkAddr, err
			}
		}
		m.brk.End = newEnd
	}

	m.brkAddr = newEnd
	return m.brkAddr, nil
}

// Lookup returns the VMA containing addr, or errVMANotFound.
func (m *MemoryMap) Lookup(addr uintptr) (*VMA, *kernel.Error) {
	m.lockAssert()
	defer m.unlock()

	if v := m.find(addr); v != nil {
		return v, nil
	}
	return nil, errVMANotFound
}
