// Package uapi defines the user-visible ABI surface shared between the
// kernel and the processes it runs: the errno enumeration returned from
// system calls and the auxv type IDs consulted when building a new
// process's initial stack. Nothing in this package touches kernel-internal
// types; it exists so kernel/syscall and kernel/stack can depend on a
// single, stable vocabulary instead of scattering magic numbers.
package uapi

import "golang.org/x/sys/unix"

// Errno is a closed enumeration matching Linux's numbering for the values
// the dispatch table actually returns. A syscall handler's return value is
// non-negative on success or -Errno on failure (see NegatedReturn).
type Errno int32

// Errno values are pulled from golang.org/x/sys/unix rather than
// hand-copied, so a future x/sys bump that corrects a platform's numbering
// is picked up automatically.
const (
	EPERM    Errno = Errno(unix.EPERM)
	ENOENT   Errno = Errno(unix.ENOENT)
	ESRCH    Errno = Errno(unix.ESRCH)
	EINTR    Errno = Errno(unix.EINTR)
	EIO      Errno = Errno(unix.EIO)
	ENXIO    Errno = Errno(unix.ENXIO)
	E2BIG    Errno = Errno(unix.E2BIG)
	ENOEXEC  Errno = Errno(unix.ENOEXEC)
	EBADF    Errno = Errno(unix.EBADF)
	ECHILD   Errno = Errno(unix.ECHILD)
	EAGAIN   Errno = Errno(unix.EAGAIN)
	ENOMEM   Errno = Errno(unix.ENOMEM)
	EACCES   Errno = Errno(unix.EACCES)
	EFAULT   Errno = Errno(unix.EFAULT)
	ENOTBLK  Errno = Errno(unix.ENOTBLK)
	EBUSY    Errno = Errno(unix.EBUSY)
	EEXIST   Errno = Errno(unix.EEXIST)
	EXDEV    Errno = Errno(unix.EXDEV)
	ENODEV   Errno = Errno(unix.ENODEV)
	ENOTDIR  Errno = Errno(unix.ENOTDIR)
	EISDIR   Errno = Errno(unix.EISDIR)
	EINVAL   Errno = Errno(unix.EINVAL)
	ENFILE   Errno = Errno(unix.ENFILE)
	EMFILE   Errno = Errno(unix.EMFILE)
	ENOTTY   Errno = Errno(unix.ENOTTY)
	ETXTBSY  Errno = Errno(unix.ETXTBSY)
	EFBIG    Errno = Errno(unix.EFBIG)
	ENOSPC   Errno = Errno(unix.ENOSPC)
	ESPIPE   Errno = Errno(unix.ESPIPE)
	EROFS    Errno = Errno(unix.EROFS)
	EMLINK   Errno = Errno(unix.EMLINK)
	EPIPE    Errno = Errno(unix.EPIPE)
	EDOM     Errno = Errno(unix.EDOM)
	ERANGE   Errno = Errno(unix.ERANGE)

	// Unimplemented is Norn-specific: the dispatch table's default handler
	// for any syscall number with no registered entry returns it.
	Unimplemented Errno = 99
)

var names = map[Errno]string{
	EPERM: "EPERM", ENOENT: "ENOENT", ESRCH: "ESRCH", EINTR: "EINTR",
	EIO: "EIO", ENXIO: "ENXIO", E2BIG: "E2BIG", ENOEXEC: "ENOEXEC",
	EBADF: "EBADF", ECHILD: "ECHILD", EAGAIN: "EAGAIN", ENOMEM: "ENOMEM",
	EACCES: "EACCES", EFAULT: "EFAULT", ENOTBLK: "ENOTBLK", EBUSY: "EBUSY",
	EEXIST: "EEXIST", EXDEV: "EXDEV", ENODEV: "ENODEV", ENOTDIR: "ENOTDIR",
	EISDIR: "EISDIR", EINVAL: "EINVAL", ENFILE: "ENFILE", EMFILE: "EMFILE",
	ENOTTY: "ENOTTY", ETXTBSY: "ETXTBSY", EFBIG: "EFBIG", ENOSPC: "ENOSPC",
	ESPIPE: "ESPIPE", EROFS: "EROFS", EMLINK: "EMLINK", EPIPE: "EPIPE",
	EDOM: "EDOM", ERANGE: "ERANGE", Unimplemented: "EUNIMPLEMENTED",
}

// String implements fmt.Stringer so kfmt can print an Errno by name.
func (e Errno) String() string {
	if s, ok := names[e]; ok {
		return s
	}
	return "EUNKNOWN"
}

// NegatedReturn converts e into the value a syscall handler places in rax on
// failure: -errno, sign-extended into the full register width.
func (e Errno) NegatedReturn() int64 {
	return -int64(e)
}
