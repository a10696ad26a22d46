// Package sched implements the kernel's task model: Thread objects, a
// per-CPU FIFO run queue, wait queues, and the cooperative/preemptive
// scheduling policy that ties them together with the interrupt epilogue.
package sched

import (
	"norn/kernel"
	"norn/kernel/list"
	"norn/kernel/mem"
	"norn/kernel/mem/pmm/allocator"
	"norn/kernel/mem/vmm"
	"sync/atomic"
)

// kernelStackPages is the number of pages reserved for a thread's kernel
// stack; the low guard page is left unmapped so a stack overflow faults
// instead of silently corrupting an adjacent allocation.
const kernelStackPages = 2

// State describes where a Thread stands in its lifecycle.
type State uint8

const (
	// Running marks the thread as either currently executing or sitting
	// in a per-CPU run queue waiting its turn.
	Running State = iota
	// Blocked marks a thread parked on a wait queue.
	Blocked
	// Dead marks a thread that has exited and is waiting to be reaped by
	// a scheduling pass.
	Dead
)

// CPUTime accumulates the time a thread has spent executing.
type CPUTime struct {
	User, Kernel  uint64
	LastEnterUser uint64
}

// Context is the arch-specific register snapshot a context switch
// saves/restores; its layout is opaque to this package; only cpu.SwitchContext
// and the trampoline that starts a new thread know how to interpret it.
type Context struct {
	SP uintptr
}

var nextTID uint64

// Thread is a schedulable unit of execution: a kernel stack, a saved
// context, the MemoryMap it runs against (nil for kernel threads), and the
// bookkeeping the scheduler needs to pick it.
type Thread struct {
	hook list.Hook[Thread]

	tid  uint64
	name [32]byte

	stackLow, stackHigh uintptr
	ctx                 Context

	mm    *vmm.MemoryMap
	state State

	cpuTime CPUTime

	// preemptCount is non-zero while this thread must not be switched
	// away from; incremented/decremented in matched pairs around any
	// critical section that also runs from interrupt context.
	preemptCount int32
	inIRQ        bool
	needResched  bool
}

// ListHook implements list.HookOf so a Thread can be linked into exactly one
// of a run queue or a wait queue at a time.
func (t *Thread) ListHook() *list.Hook[Thread] { return &t.hook }

// TID returns the thread's unique, monotonically increasing identifier.
func (t *Thread) TID() uint64 { return t.tid }

// Name returns the thread's fixed-length name with trailing NUL bytes
// trimmed.
func (t *Thread) Name() string {
	n := 0
	for n < len(t.name) && t.name[n] != 0 {
		n++
	}
	return string(t.name[:n])
}

// State returns the thread's current lifecycle state.
func (t *Thread) State() State { return t.state }

// MarkDead transitions the thread to Dead. The caller is expected to call
// Schedule immediately afterwards; a Dead thread is never picked again and,
// once the run queue moves past it, becomes eligible for its resources to be
// reclaimed.
func (t *Thread) MarkDead() { t.state = Dead }

// MemoryMap returns the address space the thread runs against, or nil for a
// kernel thread.
func (t *Thread) MemoryMap() *vmm.MemoryMap { return t.mm }

func setName(t *Thread, name string) {
	n := copy(t.name[:], name)
	for ; n < len(t.name); n++ {
		t.name[n] = 0
	}
}

// allocKernelStack reserves kernelStackPages of virtual address space and
// backs all but the lowest page with real frames, leaving the lowest page
// unmapped as a guard: a thread that overflows its stack faults there
// instead of corrupting whatever follows it in the vmalloc region.
func allocKernelStack() (low, high uintptr, err *kernel.Error) {
	size := mem.Size(kernelStackPages) * mem.PageSize
	regionStart, err := vmm.EarlyReserveRegion(size)
	if err != nil {
		return 0, 0, err
	}

	page := vmm.PageFromAddress(regionStart)
	for i := 0; i < kernelStackPages; i, page = i+1, page+1 {
		if i == 0 {
			// guard page: leave unmapped
			continue
		}
		frame, allocErr := allocator.AllocFrame()
		if allocErr != nil {
			return 0, 0, allocErr
		}
		if mapErr := vmm.Map(page, frame, vmm.FlagPresent|vmm.FlagRW|vmm.FlagNoExecute); mapErr != nil {
			return 0, 0, mapErr
		}
	}

	return regionStart, regionStart + uintptr(size), nil
}

// NewKernelThread allocates a thread, gives it a kernel stack and arranges
// for its first context switch to trampoline into entry. The thread is
// created in the Running state but is not itself enqueued; callers enqueue
// it via a run queue's Enqueue.
func NewKernelThread(name string, entry func()) (*Thread, *kernel.Error) {
	low, high, err := allocKernelStack()
	if err != nil {
		return nil, err
	}

	t := &Thread{
		tid:       atomic.AddUint64(&nextTID, 1),
		stackLow:  low,
		stackHigh: high,
		state:     Running,
	}
	setName(t, name)
	t.ctx.SP = prepareTrampoline(high, entry)

	return t, nil
}

// NewUserThread builds the initial thread for a user process: mm is the
// MemoryMap prepared by the caller (stack VMA and brk already installed per
// the user-stack-construction contract), entry is the ELF's recorded entry
// point, and userSP is the finished stack pointer a stack-creator produced.
func NewUserThread(name string, mm *vmm.MemoryMap, entry, userSP uintptr) (*Thread, *kernel.Error) {
	low, high, err := allocKernelStack()
	if err != nil {
		return nil, err
	}

	t := &Thread{
		tid:       atomic.AddUint64(&nextTID, 1),
		stackLow:  low,
		stackHigh: high,
		mm:        mm,
		state:     Running,
	}
	setName(t, name)
	t.ctx.SP = prepareUserTrampoline(high, entry, userSP)

	return t, nil
}
