// Package percpu implements replicated per-CPU storage. A single
// initialiser image is registered per variable; once the number of CPUs is
// known the package reserves one replica per CPU and copies the image into
// each. Each CPU later addresses its own replica through a base that
// cpu.SetPerCPUIndex records for it, mirroring the segment-relative base
// register a native implementation would use.
package percpu

import "norn/kernel/cpu"

// indexFn resolves the executing CPU's replica index. It is a package
// variable, not a direct call to cpu.CPUIndex, so tests can substitute a
// fixed index the same way kernel/cpu substitutes cpuidFn and kernel/sync
// substitutes yieldFn.
var indexFn = cpu.CPUIndex

// replicated is implemented by every Var[T] so the registry can allocate
// storage for variables of differing T without reflection.
type replicated interface {
	allocate(numCPUs int)
}

var (
	registry []replicated
	numCPUs  int
	reserved bool
)

// Var is a per-CPU variable of type T. Create one with NewVar during
// package-level init, before Reserve runs.
type Var[T any] struct {
	init     T
	replicas []T
}

// NewVar registers a new per-CPU variable with the given initial image and
// returns a handle to it. Must be called before Reserve.
func NewVar[T any](init T) *Var[T] {
	if reserved {
		panic("percpu: NewVar called after Reserve")
	}
	v := &Var[T]{init: init}
	registry = append(registry, v)
	return v
}

func (v *Var[T]) allocate(n int) {
	v.replicas = make([]T, n)
	for i := range v.replicas {
		v.replicas[i] = v.init
	}
}

// Ptr returns a pointer to the calling CPU's replica.
func (v *Var[T]) Ptr() *T {
	return &v.replicas[int(indexFn())]
}

// Get loads the calling CPU's replica.
func (v *Var[T]) Get() T {
	return v.replicas[int(indexFn())]
}

// Set stores val into the calling CPU's replica.
func (v *Var[T]) Set(val T) {
	v.replicas[int(indexFn())] = val
}

// Reserve allocates one replica of every registered Var for each of
// numCPUs CPUs. Called once, during the "per-CPU init" boot stage, after
// ACPI/APIC enumeration has determined the CPU count and before any Var is
// dereferenced.
func Reserve(n int) {
	numCPUs = n
	reserved = true
	for _, v := range registry {
		v.allocate(n)
	}
}

// NumCPUs returns the CPU count passed to Reserve, or 0 if Reserve has not
// run yet.
func NumCPUs() int { return numCPUs }

// SetIndexFn overrides the function used to resolve the executing CPU's
// replica index and returns the previous one, so callers outside this
// package (unit tests for per-CPU-backed state in other packages) can pin
// it to a fixed index instead of going through cpu.CPUIndex.
func SetIndexFn(fn func() uint64) (prev func() uint64) {
	prev = indexFn
	indexFn = fn
	return prev
}

// LocalInit records cpuIndex as the calling CPU's replica index. Every CPU
// (the boot CPU and every application processor brought up afterwards)
// calls this exactly once, early in its own startup path, before touching
// any Var.
func LocalInit(cpuIndex int) {
	cpu.SetPerCPUIndex(uint64(cpuIndex))
}
