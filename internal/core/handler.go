package core

import (
	"fmt"

	"github.com/cml-go/cml/internal/trace"
)

// Work doubles as a handler anchor: installing a handler just means
// giving a Work an OnFail callback and linking it behind whatever handler
// was previously in scope. Nothing about the scheduling machinery needs
// to know the difference between a handler anchor and a runnable job.
//
// handlerParent forms the chain fail() walks looking for something that
// wants to handle the error; it is distinct from next, which only ever
// threads a Work through a work stack.

// PushHandler installs onFail as the nearest enclosing handler and
// returns the anchor (for nested FailWork bookkeeping, rarely needed by
// callers) plus a restore func that must run once the protected region
// exits, success or not.
func (w *Worker) PushHandler(onFail func(w *Worker, err error)) (anchor *Work, restore func()) {
	h := &Work{}
	h.onFail = onFail
	h.handlerParent = w.handler
	prev := w.handler
	w.handler = h
	return h, func() { w.handler = prev }
}

// fail routes err to the nearest enclosing handler with a non-nil
// OnFail, or to the scheduler's top-level handler if none is found.
// Handlers run with the chain rooted one level further out than
// themselves, so a handler that panics again is attributed to whatever
// handler encloses it, not to itself.
func (w *Worker) fail(err error) {
	w.sched.trace.Record(trace.Event{Kind: trace.KindFail, WorkerID: w.id, Detail: err.Error()})
	h := w.handler
	for h != nil && h.onFail == nil {
		h = h.handlerParent
	}
	if h == nil {
		w.sched.topLevelFail(w, err)
		return
	}
	w.handler = h.handlerParent
	h.onFail(w, err)
}

// Fail routes err through this worker's handler chain exactly as a
// recovered panic would. It is the entry point for callers outside
// runOne's own recover (a job that wants to report a failure through a
// Continuation without literally panicking).
func (w *Worker) Fail(err error) { w.fail(err) }

// FailWork builds a Work that, when run, routes err through the failure
// handler chain exactly as a panic recovered from a running job would.
// It exists so that a failure discovered outside of any job's own
// trampoline frame (a nack fire, a timer callback) can still surface
// through the normal handler machinery instead of being dropped.
func FailWork(err error) *Work {
	return &Work{Fn: func(w *Worker) { w.fail(err) }}
}

func toError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}
