package sched

// prepareTrampoline lays out an initial register frame at the top of a
// freshly allocated kernel stack so that the first SwitchContext targeting
// this thread resumes inside a small trampoline that calls entry with
// interrupts enabled, then parks the thread (Dead) if entry ever returns.
// It returns the stack pointer SwitchContext should restore.
func prepareTrampoline(stackHigh uintptr, entry func()) uintptr

// prepareUserTrampoline is the user-thread counterpart of prepareTrampoline:
// the installed frame drops to CPL3 via IRETQ, with RIP=entry and
// RSP=userSP, instead of calling a Go closure directly.
func prepareUserTrampoline(stackHigh, entry, userSP uintptr) uintptr
