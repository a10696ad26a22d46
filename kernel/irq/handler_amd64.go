package irq

import "norn/kernel/gate"

// ExceptionNum defines an exception number that can be
// passed to the HandleException and HandleExceptionWithCode
// functions.
type ExceptionNum uint8

const (
	// DoubleFault occurs when an exception is unhandled
	// or when an exception occurs while the CPU is
	// trying to call an exception handler.
	DoubleFault = ExceptionNum(8)

	// GPFException is raised when a general protection fault occurs.
	GPFException = ExceptionNum(13)

	// PageFaultException is raised when a PDT or
	// PDT-entry is not present or when a privilege
	// and/or RW protection check fails.
	PageFaultException = ExceptionNum(14)
)

// ExceptionHandler is a function that handles an exception that does not push
// an error code to the stack. If the handler returns, any modifications to the
// supplied Frame and/or Regs pointers will be propagated back to the location
// where the exception occurred.
type ExceptionHandler func(*Frame, *Regs)

// ExceptionHandlerWithCode is a function that handles an exception that pushes
// an error code to the stack. If the handler returns, any modifications to the
// supplied Frame and/or Regs pointers will be propagated back to the location
// where the exception occurred.
type ExceptionHandlerWithCode func(uint64, *Frame, *Regs)

// HandleException registers an exception handler (without an error code) for
// the given interrupt number. It is implemented on top of the shared vector
// table (SetHandler in vector.go) rather than its own IDT entry, so
// exceptions and ordinary hardware interrupts share one dispatch path.
func HandleException(exceptionNum ExceptionNum, handler ExceptionHandler) {
	SetHandler(gate.InterruptNumber(exceptionNum), func(_ gate.InterruptNumber, regs *gate.Registers) {
		frame, r := splitRegisters(regs)
		handler(&frame, &r)
		joinRegisters(regs, &frame, &r)
	})
}

// HandleExceptionWithCode registers an exception handler (with an error code)
// for the given interrupt number.
func HandleExceptionWithCode(exceptionNum ExceptionNum, handler ExceptionHandlerWithCode) {
	SetHandler(gate.InterruptNumber(exceptionNum), func(_ gate.InterruptNumber, regs *gate.Registers) {
		frame, r := splitRegisters(regs)
		handler(regs.Info, &frame, &r)
		joinRegisters(regs, &frame, &r)
	})
}

// splitRegisters carves gate.Registers (the single snapshot the CPU actually
// pushes) into the Frame/Regs pair this package's older handler signatures
// expect.
func splitRegisters(regs *gate.Registers) (Frame, Regs) {
	return Frame{
			RIP:    regs.RIP,
			CS:     regs.CS,
			RFlags: regs.RFlags,
			RSP:    regs.RSP,
			SS:     regs.SS,
		}, Regs{
			RAX: regs.RAX,
			RBX: regs.RBX,
			RCX: regs.RCX,
			RDX: regs.RDX,
			RSI: regs.RSI,
			RDI: regs.RDI,
			RBP: regs.RBP,
			R8:  regs.R8,
			R9:  regs.R9,
			R10: regs.R10,
			R11: regs.R11,
			R12: regs.R12,
			R13: regs.R13,
			R14: regs.R14,
			R15: regs.R15,
		}
}

// joinRegisters copies a (possibly handler-modified) Frame/Regs pair back
// into the gate.Registers snapshot that will actually be restored by IRETQ.
func joinRegisters(regs *gate.Registers, frame *Frame, r *Regs) {
	regs.RIP, regs.CS, regs.RFlags, regs.RSP, regs.SS = frame.RIP, frame.CS, frame.RFlags, frame.RSP, frame.SS
	regs.RAX, regs.RBX, regs.RCX, regs.RDX = r.RAX, r.RBX, r.RCX, r.RDX
	regs.RSI, regs.RDI, regs.RBP = r.RSI, r.RDI, r.RBP
	regs.R8, regs.R9, regs.R10, regs.R11 = r.R8, r.R9, r.R10, r.R11
	regs.R12, regs.R13, regs.R14, regs.R15 = r.R12, r.R13, r.R14, r.R15
}
