// Package syscall implements the kernel side of the system-call boundary:
// a compile-time dispatch table keyed by Linux-compatible syscall number,
// arity-erased handler wrappers, and the concrete handlers for the minimum
// set a freestanding process needs.
package syscall

// Syscall numbers match Linux's x86_64 table wherever the two overlap, so a
// userspace binary built against it can make the same raw syscalls here.
const (
	NRRead          = 0
	NRWrite         = 1
	NRFstat         = 5
	NRMprotect      = 10
	NRBrk           = 12
	NRIoctl         = 16
	NRWritev        = 20
	NRGetuid        = 102
	NRArchPrctl     = 158
	NRSetTidAddress = 218
	NRExitGroup     = 231
	NROpenat        = 257
	NRNewfstatat    = 262
	NRReadlinkat    = 267
	NRPrlimit       = 302
	NRGetrandom     = 318
	NRRseq          = 334

	// NRDlog is Norn-specific: it has no Linux counterpart and lives past
	// the highest borrowed number so it can never collide with one.
	NRDlog = 500
)

// maxSyscallNr bounds the dispatch table; it must stay ahead of the
// largest NR* constant above.
const maxSyscallNr = NRDlog + 1
