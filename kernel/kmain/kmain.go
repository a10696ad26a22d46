// Package kmain is the kernel's real entry point, invoked once by the rt0
// trampoline (package main's boot.go) after early GDT/IDT setup has handed
// control to Go. It lives as its own leaf package, not inside the base
// kernel package, so it can import every subsystem it orchestrates without
// creating an import cycle back through norn/kernel.
package kmain

import (
	"unsafe"

	"norn/kernel"
	"norn/kernel/boot"
	"norn/kernel/cpu"
	"norn/kernel/goruntime"
	"norn/kernel/irq"
	"norn/kernel/kfmt"
	"norn/kernel/mem"
	"norn/kernel/mem/pmm/allocator"
	"norn/kernel/mem/vmm"
	"norn/kernel/percpu"
	"norn/kernel/sched"
)

// rsdpSize is the length, in bytes, of the ACPI 1.0 RSDP fields
// ValidateChecksum sums over (signature, checksum, OEMID, revision, RSDT
// address); ACPI 2.0's extended fields are not needed by anything in this
// core's scope.
const rsdpSize = 20

// Kmain is the only Go symbol visible (exported) from the rt0 entry code
// that brings up the boot CPU. By the time it is invoked, rt0 has already
// set up an early GDT/IDT and a 4K stack; rec is the handoff record the
// loader stub built from the UEFI memory map, ACPI RSDP and initramfs
// location.
//
// Kmain walks the control flow from the system overview: validate handoff
// -> reconstruct paging and switch to the buddy allocator -> validate ACPI
// -> per-CPU init -> interrupt dispatch -> scheduler start -> idle loop. AP
// bringup and FS init are external collaborators in this scope (spec.md
// §1) and are left to the caller that assembles a complete boot image; this
// function brings up exactly the boot CPU.
//
// Kmain is not expected to return. If it does, rt0 halts the CPU.
//
//go:noinline
func Kmain(rec *boot.Record) {
	if err := rec.Validate(); err != nil {
		kfmt.Panic(err)
	}

	allocator.SetBootRecord(rec)
	kfmt.Printf("norn: booting\n")

	if err := vmm.Init(uintptr(mem.KBase)); err != nil {
		kfmt.Panic(err)
	}
	allocator.SwitchToBuddyAllocator(rec)
	vmm.SetFrameAllocator(allocator.AllocFrame)
	allocator.PrintMemoryMap()

	if err := goruntime.Init(); err != nil {
		kfmt.Panic(err)
	}

	if err := validateACPI(rec); err != nil {
		kfmt.Panic(err)
	}

	// This entry point brings up a single CPU; SMP/AP bringup is
	// explicitly out of scope (spec.md Non-goals). Per-CPU storage is
	// still reserved and addressed through the same path AP bringup
	// would use, so replica 0 behaves identically to any later replica.
	percpu.Reserve(1)
	percpu.LocalInit(0)

	irq.Init()
	sched.Init()

	idle, err := sched.NewKernelThread("idle", idleLoop)
	if err != nil {
		kfmt.Panic(err)
	}
	sched.SetIdleThread(idle)

	kfmt.Printf("norn: starting scheduler\n")
	sched.Start()

	for {
		cpu.Halt()
	}
}

// idleLoop is the per-CPU idle task's entry point: it only runs when no
// other thread is runnable and never returns.
func idleLoop() {
	for {
		cpu.Halt()
	}
}

// validateACPI checks the RSDP the loader handed off. The rest of the ACPI
// table walk (FADT/MADT enumeration feeding APIC/IOAPIC programming) is an
// external collaborator in this scope (spec.md §1); only the
// signature/checksum validation spec.md §7 lists as fatal-during-init
// happens here.
func validateACPI(rec *boot.Record) *kernel.Error {
	hdr := (*boot.RSDPDescriptor)(unsafe.Pointer(uintptr(mem.PhysToDirectMap(rec.RSDP))))
	if err := boot.ValidateRSDPSignature(hdr); err != nil {
		return err
	}
	raw := unsafe.Slice((*byte)(unsafe.Pointer(hdr)), rsdpSize)
	return boot.ValidateChecksum(raw)
}
