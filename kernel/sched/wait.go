package sched

import "norn/kernel/list"

// WaitQueue holds threads blocked on some condition. Unlike a run queue it
// is not per-CPU: any thread, regardless of which CPU it last ran on, can
// be linked onto the same WaitQueue and woken back onto its own CPU's run
// queue.
type WaitQueue struct {
	waiters list.List[Thread]
}

// WaitOn links the calling thread onto wq, marks it Blocked and yields the
// CPU. It returns once some later Wakeup(wq) call has moved the thread back
// onto a run queue and the scheduler has chosen it again.
func WaitOn(wq *WaitQueue) {
	t := Current()
	t.state = Blocked
	wq.waiters.Append(t)
	Schedule()
}

// Wakeup moves every thread currently linked on wq back onto the calling
// CPU's run queue, marking each Running again. It does not itself
// reschedule; the caller's own next Schedule call (or the timer epilogue)
// picks up the newly runnable threads.
func Wakeup(wq *WaitQueue) {
	for t := wq.waiters.PopFirst(); t != nil; t = wq.waiters.PopFirst() {
		Enqueue(t)
	}
}
