package irq

import (
	"bytes"
	"norn/kernel/cpu"
	"norn/kernel/gate"
	"norn/kernel/kfmt"
	"unsafe"

	"golang.org/x/arch/x86/x86asm"
)

// spuriousVector is reserved for the legacy PIC's spurious-interrupt
// convention: a spurious IRQ7/IRQ15 must be silently dropped rather than
// EOI'd, since no real device is asserting it.
const spuriousVector = gate.InterruptNumber(0xFF)

// firstIRQVector is the first vector number reserved for hardware IRQs, as
// opposed to CPU exceptions (0x00-0x1F); only a reschedule requested from
// this range (never from fault/exception handling) runs the preemption
// sequence on return.
const firstIRQVector = gate.InterruptNumber(0x20)

// HandlerFn receives the vector number that fired alongside the full
// register snapshot. Unlike ExceptionHandler/ExceptionHandlerWithCode it is
// shared by every vector in the table, hardware interrupts included.
type HandlerFn func(vector gate.InterruptNumber, regs *gate.Registers)

var (
	handlers [256]HandlerFn

	// inIRQCount/needReschedule track whether the executing CPU is
	// currently servicing an interrupt and whether the scheduler should be
	// invoked once the outermost one returns; a nested interrupt must never
	// itself trigger a reschedule; it has to let the outermost handler's
	// return path do so.
	inIRQCount     int
	needReschedule bool

	// rescheduleFn is called when the outermost interrupt handler returns
	// with needReschedule set; wired to the scheduler's entry point once
	// kernel/sched exists. Left nil-safe so this package has no import
	// cycle with kernel/sched.
	rescheduleFn func()

	kernelStackLowFn = func() uintptr { return 0 }
)

// SetHandler installs fn as the handler for vector. Overwrites any handler
// previously installed for the same vector.
func SetHandler(vector gate.InterruptNumber, fn HandlerFn) {
	handlers[uint8(vector)] = fn
}

// SetRescheduleFn registers the callback invoked when InIRQ returns to zero
// with a reschedule pending.
func SetRescheduleFn(fn func()) {
	rescheduleFn = fn
}

// RequestReschedule marks that the scheduler should run as soon as the
// outermost interrupt handler on this CPU returns.
func RequestReschedule() {
	needReschedule = true
}

// InIRQ reports whether the executing CPU is currently inside an interrupt
// handler.
func InIRQ() bool {
	return inIRQCount > 0
}

// Init installs the dispatch trampoline for every vector and programs the
// IDT.
func Init() {
	gate.Init()
	for v := 0; v < 256; v++ {
		vector := gate.InterruptNumber(v)
		gate.HandleInterrupt(vector, 0, func(regs *gate.Registers) {
			dispatch(vector, regs)
		})
	}
}

func dispatch(vector gate.InterruptNumber, regs *gate.Registers) {
	inIRQCount++
	defer func() {
		inIRQCount--
		if inIRQCount == 0 && needReschedule && vector >= firstIRQVector {
			needReschedule = false
			if rescheduleFn != nil {
				rescheduleFn()
			}
		}
	}()

	if h := handlers[uint8(vector)]; h != nil {
		h(vector, regs)
		return
	}

	if vector == spuriousVector {
		return
	}

	dumpFault(vector, regs)
}

// dumpFault prints a diagnostic for an unhandled vector: the faulting
// instruction (disassembled via x86asm), the register snapshot and a
// frame-pointer stack walk, then halts.
func dumpFault(vector gate.InterruptNumber, regs *gate.Registers) {
	kfmt.Printf("\nunhandled interrupt: vector=%d info=%#x\n", vector, regs.Info)
	var buf bytes.Buffer
	regs.DumpTo(&buf)
	kfmt.Printf("%s", buf.String())

	if insn, ok := decodeFaultingInsn(regs.RIP); ok {
		kfmt.Printf("faulting instruction: %s\n", insn)
	}

	kfmt.Printf("stack trace:\n")
	walkStack(regs.RBP, regs.RSP)

	cpu.Halt()
}

// decodeFaultingInsn disassembles up to 15 bytes (the architectural maximum
// x86 instruction length) starting at rip.
func decodeFaultingInsn(rip uint64) (string, bool) {
	if rip == 0 {
		return "", false
	}
	buf := (*[15]byte)(unsafe.Pointer(uintptr(rip)))[:]
	insn, err := x86asm.Decode(buf, 64)
	if err != nil {
		return "", false
	}
	return x86asm.GNUSyntax(insn, rip, nil), true
}

// walkStack follows the RBP chain printing return addresses, stopping at a
// null frame pointer or once it runs past the bottom of the kernel stack —
// a frame pointer that keeps decreasing below kernelStackLowFn indicates a
// stack overflow rather than a legitimate chain.
func walkStack(rbp, rsp uint64) {
	low := uint64(kernelStackLowFn())
	for depth := 0; rbp != 0 && depth < 32; depth++ {
		if low != 0 && rbp < low {
			kfmt.Printf("  <stack overflow detected, rbp=%#x below stack bottom %#x>\n", rbp, low)
			return
		}
		frame := (*[2]uint64)(unsafe.Pointer(uintptr(rbp)))
		savedRBP, retAddr := frame[0], frame[1]
		kfmt.Printf("  #%d 0x%016x\n", depth, retAddr)
		if savedRBP <= rbp {
			return
		}
		rbp = savedRBP
	}
}
