package vmm

import "norn/kernel/list"

// VMFlags describes the protection and sharing attributes of a VMA.
type VMFlags uint8

const (
	// VMRead marks a region as readable.
	VMRead VMFlags = 1 << iota
	// VMWrite marks a region as writable.
	VMWrite
	// VMExec marks a region as executable.
	VMExec
	// VMGrowsDown marks a region whose low end moves as it grows, used for
	// the process stack.
	VMGrowsDown
)

// ToPageFlags converts a VMA's protection bits into the PageTableEntryFlag
// set Map expects, always including FlagPresent.
func (f VMFlags) ToPageFlags() PageTableEntryFlag {
	flags := FlagPresent
	if f&VMWrite != 0 {
		flags |= FlagRW
	}
	if f&VMExec == 0 {
		flags |= FlagNoExecute
	}
	return flags
}

// VMA describes one contiguous, page-aligned region of a process's address
// space: the range [Start, End) and its protection flags. It records no
// backing frames; those are assigned lazily on fault via
// ReservedZeroedFrame/CopyOnWrite, the same mechanism Map documents.
type VMA struct {
	hook list.Hook[VMA]

	Start, End uintptr
	Flags      VMFlags
}

// ListHook implements list.HookOf so VMAs can be threaded into a MemoryMap's
// intrusive list without a separate node allocation.
func (v *VMA) ListHook() *list.Hook[VMA] { return &v.hook }

// Size returns the number of bytes the VMA spans.
func (v *VMA) Size() uintptr { return v.End - v.Start }

// Contains reports whether addr falls inside [Start, End).
func (v *VMA) Contains(addr uintptr) bool {
	return addr >= v.Start && addr < v.End
}

// Overlaps reports whether the VMA overlaps the half-open range [start, end).
func (v *VMA) Overlaps(start, end uintptr) bool {
	return v.Start < end && start < v.End
}
