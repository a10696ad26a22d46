package cpu

var (
	cpuidFn = ID
)

// EnableInterrupts enables interrupt handling.
func EnableInterrupts()

// DisableInterrupts disables interrupt handling.
func DisableInterrupts()

// InterruptsEnabled reports whether the interrupt flag is currently set,
// letting callers save and later restore the previous interrupt state
// instead of unconditionally re-enabling it (see sync.Spinlock's
// LockDisableIRQ/UnlockRestoreIRQ).
func InterruptsEnabled() bool

// Halt stops instruction execution.
func Halt()

// FlushTLBEntry flushes a TLB entry for a particular virtual address.
func FlushTLBEntry(virtAddr uintptr)

// SwitchPDT sets the root page table directory to point to the specified
// physical address and flushes the TLB.
func SwitchPDT(pdtPhysAddr uintptr)

// ActivePDT returns the physical address of the currently active page table.
func ActivePDT() uintptr

// ReadCR2 returns the value stored in the CR2 register.
func ReadCR2() uint64

// SetPerCPUIndex stores idx in the executing CPU's per-CPU base register so
// later CPUIndex calls on that same CPU retrieve it without the caller
// having to thread a CPU ID through every call site.
func SetPerCPUIndex(idx uint64)

// CPUIndex returns the index most recently stored by SetPerCPUIndex on the
// executing CPU.
func CPUIndex() uint64

// ID returns information about the CPU and its features. It
// is implemented as a CPUID instruction with EAX=leaf and
// returns the values in EAX, EBX, ECX and EDX.
func ID(leaf uint32) (uint32, uint32, uint32, uint32)

// SwitchContext saves the callee-saved registers and stack pointer of the
// calling context into *savedSP, switches the stack pointer to newSP and
// resumes execution there. Control returns to the caller only once some
// later SwitchContext targets savedSP again.
func SwitchContext(savedSP *uintptr, newSP uintptr)

// InitialSwitchContext switches the stack pointer to newSP without saving
// the calling context anywhere; used once per CPU to enter its first task.
func InitialSwitchContext(newSP uintptr)

// ReadTimestamp returns the CPU's monotonic cycle counter (RDTSC), used by
// the scheduler to attribute elapsed time to the outgoing/incoming thread
// across a context switch.
func ReadTimestamp() uint64

// IsIntel returns true if the code is running on an Intel processor.
func IsIntel() bool {
	_, ebx, ecx, edx := cpuidFn(0)
	return ebx == 0x756e6547 && // "Genu"
		edx == 0x49656e69 && // "ineI"
		ecx == 0x6c65746e // "ntel"
}
