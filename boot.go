package main

import (
	"unsafe"

	"norn/kernel/boot"
	"norn/kernel/kmain"
)

// bootRecordPtr is the physical-memory address of the boot.Record the
// loader stub's rt0 assembly builds before transferring control here. It is
// a package-level variable, not a direct argument to main, so the Go
// compiler cannot prove main's body is unreachable and optimize it (and
// kmain.Kmain) away the way it would a literal no-op main.
var bootRecordPtr uintptr

// main is the only Go symbol visible (exported) from the rt0 initialization
// code. It is a trampoline for the real kernel entry point, kmain.Kmain:
// rt0 has already set up the GDT/IDT and a minimal 4K stack by the time
// this runs.
//
// main is not expected to return. If it does, rt0 halts the CPU.
func main() {
	kmain.Kmain((*boot.Record)(unsafe.Pointer(bootRecordPtr)))
}
