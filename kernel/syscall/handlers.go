package syscall

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"norn/kernel"
	"norn/kernel/cpu"
	"norn/kernel/kfmt"
	"norn/kernel/mem"
	"norn/kernel/mem/vmm"
	"norn/kernel/sched"
)

var (
	errNoCurrentThread = &kernel.Error{Module: "syscall", Message: "no current thread", Kind: kernel.Unclassified}
	errBadFd           = &kernel.Error{Module: "syscall", Message: "unsupported file descriptor", Kind: kernel.BadFileDescriptor}

	// readTimestampFn is indirected through a package var, the same seam
	// convention kernel/sched's runqueue.go uses for cpu.ReadTimestamp, so
	// handleGetrandom can be exercised without a real RDTSC.
	readTimestampFn = cpu.ReadTimestamp
)

// userBytes views length bytes of the calling process's address space
// starting at addr as a Go byte slice. It assumes (as every handler in this
// package does) that the syscall boundary runs with the faulting process's
// page table already active, the same assumption map.go's ReservedZeroedFrame
// documentation makes about on-demand paging.
func userBytes(addr, length uint64) []byte {
	if length == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), int(length))
}

// handleWrite implements write(2) for the stdout/stderr file descriptors by
// forwarding to kfmt, the same sink the kernel's own logging uses; any other
// fd is rejected since there is no file descriptor table or VFS in this
// scope.
func handleWrite(fd, buf, count uint64) (uint64, *kernel.Error) {
	if fd != 1 && fd != 2 {
		return 0, errBadFd
	}
	kfmt.Printf("%s", userBytes(buf, count))
	return count, nil
}

// handleMprotect implements mprotect(2) against the current thread's memory
// map. The PROT_* bit positions x/sys/unix reports for Linux line up with
// vmm.VMFlags's VMRead/VMWrite/VMExec, so the conversion is a direct mask.
func handleMprotect(addr, length, prot uint64) (uint64, *kernel.Error) {
	cur := sched.Current()
	if cur == nil || cur.MemoryMap() == nil {
		return 0, errNoCurrentThread
	}

	var flags vmm.VMFlags
	if prot&unix.PROT_READ != 0 {
		flags |= vmm.VMRead
	}
	if prot&unix.PROT_WRITE != 0 {
		flags |= vmm.VMWrite
	}
	if prot&unix.PROT_EXEC != 0 {
		flags |= vmm.VMExec
	}

	if err := cur.MemoryMap().Mprotect(uintptr(addr), mem.Size(length), flags); err != nil {
		return 0, err
	}
	return 0, nil
}

// handleBrk implements brk(2) against the current thread's memory map.
func handleBrk(addr uint64) (uint64, *kernel.Error) {
	cur := sched.Current()
	if cur == nil || cur.MemoryMap() == nil {
		return 0, errNoCurrentThread
	}

	newBrk, err := cur.MemoryMap().Brk(uintptr(addr))
	return uint64(newBrk), err
}

// handleGetuid always reports uid 0; there is no user/group identity model
// in this scope.
func handleGetuid() (uint64, *kernel.Error) {
	return 0, nil
}

// handleSetTidAddress implements just enough of set_tid_address(2) for a
// libc startup path to succeed: it reports the caller's tid and otherwise
// ignores the clear_child_tid address, since there is no futex/exit
// notification machinery in this scope.
func handleSetTidAddress(uint64) (uint64, *kernel.Error) {
	cur := sched.Current()
	if cur == nil {
		return 0, errNoCurrentThread
	}
	return cur.TID(), nil
}

// handleExitGroup terminates the current thread. It marks the thread Dead
// and calls Schedule so the CPU moves on to whatever the run queue picks
// next; Schedule never returns to a Dead thread's caller.
func handleExitGroup(uint64) (uint64, *kernel.Error) {
	cur := sched.Current()
	if cur == nil {
		return 0, errNoCurrentThread
	}
	cur.MarkDead()
	sched.Schedule()
	return 0, nil
}

// handleGetrandom fills buflen bytes at buf with data derived from the CPU
// timestamp counter. It is not a cryptographic source; it exists so that
// libc startup paths calling getrandom for stack-protector / ASLR seeding
// succeed instead of blocking on entropy this kernel never collects.
func handleGetrandom(buf, buflen, _flags uint64) (uint64, *kernel.Error) {
	dst := userBytes(buf, buflen)
	state := readTimestampFn()
	if state == 0 {
		state = 0x9e3779b97f4a7c15
	}
	for i := range dst {
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		dst[i] = byte(state)
	}
	return uint64(len(dst)), nil
}

// handleDlog implements the Norn-specific debug-log syscall: it writes the
// len bytes at addr to the kernel's own log sink, tagged so it is visible
// to whoever is not the process's stdout/stderr, including before those are
// wired up.
func handleDlog(addr, length uint64) (uint64, *kernel.Error) {
	kfmt.Printf("[dlog] %s\n", userBytes(addr, length))
	return length, nil
}
