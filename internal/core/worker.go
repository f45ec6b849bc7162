package core

import "fortio.org/safecast"

// Worker is the per-OS-thread execution context: a private LIFO work
// stack and a pointer to the handler Work currently in scope (for
// exception attribution). A real OS thread is a goroutine pinned with
// runtime.LockOSThread (see Scheduler.runWorker); nothing below ever
// assumes it can be preempted mid-Work.
type Worker struct {
	id      int
	sched   *Scheduler
	stack   *Work
	handler *Work
}

// ID returns the worker's small integer identity, stable for its lifetime.
func (w *Worker) ID() int { return w.id }

// Scheduler returns the scheduler this worker belongs to.
func (w *Worker) Scheduler() *Scheduler { return w.sched }

// Handler returns the Work currently anchoring the enclosing exception
// handler, or nil if none is installed.
func (w *Worker) Handler() *Work { return w.handler }

// SetHandler installs h as the enclosing handler for work pushed from
// here on, returning the previous handler so callers can restore it.
func (w *Worker) SetHandler(h *Work) *Work {
	prev := w.handler
	w.handler = h
	return prev
}

// Push places w on top of this worker's local stack. If the worker
// already holds local work and the scheduler's shared stack is
// currently empty, the older local contents are donated to the shared
// stack first, exposing them to thieves, and w becomes the sole item of
// a fresh local stack. Otherwise this is a plain LIFO push.
func (w *Worker) Push(work *Work) {
	if w.stack != nil && w.sched.sharedEmpty() {
		w.sched.donate(w.stack)
		w.stack = nil
	}
	work.next = w.stack
	w.stack = work
}

// run is the worker's trampoline: drain the local stack to empty, then
// fall into the scheduler to steal, idle, or park, forever until the
// scheduler shuts down.
func (w *Worker) run() {
	for {
		w.drainLocal()
		if !w.enterScheduler() {
			return
		}
	}
}

// drainLocal pops and executes work until the local stack is empty.
// Running Work.Fn may push more work onto this same stack (the common
// case for a job that resumes itself in steps); the loop picks that up
// on its next iteration rather than recursing, which is what keeps a
// long chain of continuations from growing the native call stack.
func (w *Worker) drainLocal() {
	for w.stack != nil {
		item := w.stack
		w.stack = item.next
		item.next = nil
		w.runOne(item)
	}
}

// runOne executes a single Work item, routing a panic to the nearest
// enclosing handler instead of letting it unwind past the trampoline.
func (w *Worker) runOne(item *Work) {
	defer func() {
		if r := recover(); r != nil {
			w.fail(toError(r))
		}
	}()
	item.Fn(w)
}

// enterScheduler is called once the local stack is empty. It tries to
// steal a share of the shared stack, falls back to the idle handler,
// and parks if there is truly nothing to do. It returns false only when
// the scheduler has been asked to stop.
func (w *Worker) enterScheduler() bool {
	s := w.sched
	for {
		if s.stopped() {
			return false
		}

		s.mu.Lock()
		if s.workStack != nil {
			stolen, n := s.stealShareLocked()
			remaining := s.numWorkStack
			s.mu.Unlock()
			if remaining > 0 {
				s.wakeOne()
			}
			w.stack = stolen
			s.metrics.AddStolen(safecast.MustConvert[int64](n))
			return true
		}
		s.mu.Unlock()

		if s.idle != nil {
			timeoutMs := s.idle(w)
			switch {
			case timeoutMs == 0:
				continue
			case timeoutMs < 0:
				if !s.park(w, -1) {
					return false
				}
				continue
			default:
				if !s.park(w, timeoutMs) {
					return false
				}
				continue
			}
		}

		if !s.park(w, -1) {
			return false
		}
	}
}
