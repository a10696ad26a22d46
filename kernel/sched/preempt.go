package sched

import "norn/kernel/irq"

// DisablePreemption increments the calling CPU's current thread's
// preemption counter. While non-zero, Schedule must not switch away from
// that thread even if a reschedule is pending.
func DisablePreemption() {
	if t := currentTask.Get(); t != nil {
		t.preemptCount++
	}
}

// EnablePreemption decrements the counter incremented by DisablePreemption.
func EnablePreemption() {
	if t := currentTask.Get(); t != nil {
		t.preemptCount--
	}
}

// OnTimerTick is called from the timer IRQ handler (installed by code
// outside this package; timer hardware programming is not this package's
// concern) to mark the current thread for preemption. The actual
// reschedule happens from the interrupt epilogue via irq.RequestReschedule,
// never directly from here.
func OnTimerTick() {
	if t := currentTask.Get(); t != nil {
		t.needResched = true
	}
	irq.RequestReschedule()
}
