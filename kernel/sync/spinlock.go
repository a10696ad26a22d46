// Package sync provides synchronization primitive implementations for spinlocks
// and semaphore.
package sync

import (
	"sync/atomic"

	"norn/kernel/cpu"
)

var (
	// TODO: replace with real yield function when context-switching is implemented.
	yieldFn func()
)

// Spinlock implements a lock where each task trying to acquire it busy-waits
// till the lock becomes available.
type Spinlock struct {
	state uint32
}

// Acquire blocks until the lock can be acquired by the currently active task.
// Any attempt to re-acquire a lock already held by the current task will cause
// a deadlock.
func (l *Spinlock) Acquire() {
	archAcquireSpinlock(&l.state, 1)
}

// TryToAcquire attempts to acquire the lock and returns true if the lock could
// be acquired or false otherwise.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.SwapUint32(&l.state, 1) == 0
}

// Release relinquishes a held lock allowing other tasks to acquire it. Calling
// Release while the lock is free has no effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}

// LockDisableIRQ disables interrupts on the current CPU and then acquires
// the lock, returning the interrupt-enabled state that was in effect before
// the call. Pair with UnlockRestoreIRQ so a handler that takes a lock also
// held by interrupt context cannot deadlock against itself.
func (l *Spinlock) LockDisableIRQ() (wasEnabled bool) {
	wasEnabled = cpu.InterruptsEnabled()
	cpu.DisableInterrupts()
	l.Acquire()
	return wasEnabled
}

// UnlockRestoreIRQ releases the lock and restores the interrupt-enabled
// state captured by the matching LockDisableIRQ call.
func (l *Spinlock) UnlockRestoreIRQ(wasEnabled bool) {
	l.Release()
	if wasEnabled {
		cpu.EnableInterrupts()
	}
}

// archAcquireSpinlock is an arch-specific implementation for acquiring the lock.
func archAcquireSpinlock(state *uint32, attemptsBeforeYielding uint32)
