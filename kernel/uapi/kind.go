package uapi

import "norn/kernel"

// kindErrno mirrors the conversion table a syscall boundary applies to the
// kernel's internal error classification. It follows the same shape as
// biscuit's Vm_t methods returning a negated defs.Err_t on failure: an
// internal error value is translated to a user-visible errno exactly once,
// at the boundary, rather than carrying an errno through every internal
// call site.
var kindErrno = map[kernel.Kind]Errno{
	kernel.OutOfMemory:       ENOMEM,
	kernel.InvalidRegion:     EINVAL,
	kernel.ValueOutOfRange:   EINVAL,
	kernel.DescriptorFull:    EMFILE,
	kernel.NotFound:          ENOENT,
	kernel.AlreadyExists:     EEXIST,
	kernel.BadFileDescriptor: EBADF,
	kernel.InvalidArgument:   EINVAL,
	kernel.Unimplemented:     Unimplemented,
}

// FromError converts a kernel.Error into the errno a syscall handler
// returns. kernel.Unclassified and any Kind absent from the table (the
// init-time-fatal kinds: InvalidTable, InvalidElf, AlreadyRegistered, none
// of which a running syscall handler can produce) fall back to
// Unimplemented rather than panicking, since a handler that reaches this
// function at all has already decided the caller gets an errno back.
func FromError(err *kernel.Error) Errno {
	if err == nil {
		return 0
	}
	if e, ok := kindErrno[err.Kind]; ok {
		return e
	}
	return Unimplemented
}
