package syscall

import (
	"norn/kernel"
	"norn/kernel/uapi"
)

// entry pairs a syscall number with its name and handler, mirroring the
// static `{name, nr, handler}` arrays conventionally used to build a
// dispatch table once, at init time, rather than via a long switch
// statement that grows every time a syscall is added.
type entry struct {
	name    string
	nr      int
	handler Handler
}

var errUnimplemented = &kernel.Error{Module: "syscall", Message: "no handler registered for this syscall number", Kind: kernel.Unimplemented}

// unhandled is the default every table slot starts at; it reports
// Unimplemented without touching any kernel state.
func unhandled(RawArgs) (uint64, *kernel.Error) {
	return 0, errUnimplemented
}

var entries = []entry{
	{"read", NRRead, unhandled},
	{"write", NRWrite, Wrap3(handleWrite)},
	{"fstat", NRFstat, unhandled},
	{"mprotect", NRMprotect, Wrap3(handleMprotect)},
	{"brk", NRBrk, Wrap1(handleBrk)},
	{"ioctl", NRIoctl, unhandled},
	{"writev", NRWritev, unhandled},
	{"getuid", NRGetuid, Wrap0(handleGetuid)},
	{"arch_prctl", NRArchPrctl, unhandled},
	{"set_tid_address", NRSetTidAddress, Wrap1(handleSetTidAddress)},
	{"exit_group", NRExitGroup, Wrap1(handleExitGroup)},
	{"openat", NROpenat, unhandled},
	{"newfstatat", NRNewfstatat, unhandled},
	{"readlinkat", NRReadlinkat, unhandled},
	{"prlimit", NRPrlimit, unhandled},
	{"getrandom", NRGetrandom, Wrap3(handleGetrandom)},
	{"rseq", NRRseq, unhandled},
	{"dlog", NRDlog, Wrap2(handleDlog)},
}

// table is built once from entries; init first fills every slot with
// unhandled, so slots with no matching entry keep that default.
var table [maxSyscallNr]Handler

func init() {
	for i := range table {
		table[i] = unhandled
	}
	for _, e := range entries {
		table[e.nr] = e.handler
	}
}

// Dispatch looks up nr in the table and invokes its handler with args,
// returning the raw value to place in rax: the handler's return value on
// success, or the negated errno on failure. nr outside the table's range is
// treated exactly like an unregistered slot inside it.
func Dispatch(nr uint32, args RawArgs) uint64 {
	var h Handler
	if int(nr) < len(table) {
		h = table[nr]
	} else {
		h = unhandled
	}

	ret, err := h(args)
	if err != nil {
		return uint64(uapi.FromError(err).NegatedReturn())
	}
	return ret
}
