package sched

import (
	"norn/kernel/cpu"
	"norn/kernel/irq"
	"norn/kernel/list"
	"norn/kernel/percpu"
)

var (
	runQueues   = percpu.NewVar(list.List[Thread]{})
	currentTask = percpu.NewVar[*Thread](nil)
	idleTask    = percpu.NewVar[*Thread](nil)

	// switchContextFn/initialSwitchFn/nowFn are indirected through package
	// vars so Schedule can be exercised without a real stack-swap or TSC
	// read, the same seam convention kernel/sync and kernel/percpu already
	// use.
	switchContextFn = cpu.SwitchContext
	initialSwitchFn = cpu.InitialSwitchContext
	nowFn           = cpu.ReadTimestamp
)

// Init wires Schedule into the interrupt epilogue's reschedule hook
// (irq.SetRescheduleFn), the seam kernel/irq's vector table left nil to
// avoid an import cycle before this package existed.
func Init() {
	irq.SetRescheduleFn(Schedule)
}

// SetIdleThread installs t as the calling CPU's idle task: the thread
// Schedule resumes when its run queue is empty. It is never itself
// enqueued. Call once per CPU before Start.
func SetIdleThread(t *Thread) {
	idleTask.Set(t)
}

// Current returns the thread currently executing on the calling CPU.
func Current() *Thread {
	return currentTask.Get()
}

// Enqueue appends t to the calling CPU's run queue, making it eligible to
// be picked by a future Schedule call.
func Enqueue(t *Thread) {
	t.state = Running
	runQueues.Ptr().Append(t)
}

// Start performs the one-time, per-CPU initial_switch_to: it picks the
// first thread to run (the head of the run queue, or the idle task if
// none is queued yet) and enters it without saving any previous context.
// Call once per CPU, after SetIdleThread and any initial Enqueue calls,
// from the boot path that never returns.
func Start() {
	next := runQueues.Ptr().PopFirst()
	if next == nil {
		next = idleTask.Get()
	}
	currentTask.Set(next)
	initialSwitchFn(next.ctx.SP)
}

// Schedule implements the run-queue policy described for the core
// scheduler: pop the head of the run queue, re-enqueue the outgoing thread
// if it is still runnable, update CPU-time bookkeeping and switch to the
// chosen thread.
//
// If the run queue is empty and the outgoing thread is still Running,
// nothing else is competing for the CPU so it simply keeps executing — no
// switch happens. An empty queue only forces a switch to the idle task when
// the outgoing thread is Blocked or Dead and therefore cannot keep running.
func Schedule() {
	cpu.DisableInterrupts()
	defer cpu.EnableInterrupts()

	rq := runQueues.Ptr()
	prev := currentTask.Get()

	if prev.preemptCount != 0 {
		return
	}

	next := rq.PopFirst()
	if next == nil {
		if prev.state == Running {
			return
		}
		next = idleTask.Get()
	}

	if prev.state == Running && prev != idleTask.Get() {
		rq.Append(prev)
	}

	now := nowFn()
	prev.cpuTime.Kernel += now - prev.cpuTime.LastEnterUser
	next.cpuTime.LastEnterUser = now

	currentTask.Set(next)
	if prev == next {
		return
	}
	switchContextFn(&prev.ctx.SP, next.ctx.SP)
}
