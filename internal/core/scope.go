package core

import (
	"context"
	"sync"
)

// Scope is structured-concurrency bookkeeping layered on top of Spawn:
// it tracks how many children are still outstanding and, for a failfast
// scope, remembers the first error and cancels a context children may
// cooperatively check. It does not change anything about how Work,
// Worker or Scheduler behave; a Scope is just a job that happens to wait
// on other jobs, adapted from the source design's owner/children map.
type Scope struct {
	sched    *Scheduler
	failfast bool

	mu      sync.Mutex
	pending int
	failed  error
	waiters []*Work

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScope opens a scope against s. A failfast scope records the first
// child error and cancels Context() the moment it happens; a non-failfast
// scope just waits for every child regardless of outcome.
func (s *Scheduler) NewScope(failfast bool) *Scope {
	ctx, cancel := context.WithCancel(s.ctx)
	return &Scope{sched: s, failfast: failfast, ctx: ctx, cancel: cancel}
}

// Context is cancelled as soon as a failfast scope's first child fails.
// Non-goals rule out preempting a running job outright, so this is
// cooperative: jobs that want early-exit behavior check it themselves.
func (sc *Scope) Context() context.Context { return sc.ctx }

// SpawnIn runs job as a child of sc; job is assumed to run to actual
// completion before its own entry point returns (a plain synchronous
// body, with no suspension inside). sc does not consider itself
// finished until every SpawnIn'd or SpawnInAsync'd child has completed
// (successfully or not).
func (sc *Scope) SpawnIn(job func(w *Worker)) {
	done := sc.beginChild()
	sc.spawnChild(done, func(w *Worker) {
		job(w)
		done(nil)
	})
}

// SpawnInAsync runs job as a child of sc without assuming job's entry
// point returning means the child is finished: in this CPS runtime a
// job that suspends at a rendezvous returns there and resumes later,
// possibly on another worker. job must arrange for done to be called
// exactly once, whenever the child's own completion signal (its
// continuation's Resume or Fail) actually fires.
func (sc *Scope) SpawnInAsync(job func(w *Worker, done func(err error))) {
	done := sc.beginChild()
	sc.spawnChild(done, func(w *Worker) { job(w, done) })
}

// beginChild records one more outstanding child and returns the done
// func it must eventually be reported through.
func (sc *Scope) beginChild() func(error) {
	sc.mu.Lock()
	sc.pending++
	sc.mu.Unlock()
	return sc.childDone
}

// spawnChild enqueues job as scheduler work, installing a handler that
// reports a panic escaping job's own synchronous body to done before
// routing it on through the normal handler chain. It does not call
// done itself once job returns — job returning is not the same as the
// child finishing; callers decide when that is.
func (sc *Scope) spawnChild(done func(error), job func(w *Worker)) {
	sc.sched.Spawn(&Work{Fn: func(w *Worker) {
		_, restore := w.PushHandler(func(w *Worker, err error) {
			done(err)
			w.fail(err)
		})
		job(w)
		restore()
	}})
}

func (sc *Scope) childDone(err error) {
	sc.mu.Lock()
	sc.pending--
	if err != nil && sc.failfast && sc.failed == nil {
		sc.failed = err
		sc.cancel()
	}
	done := sc.pending == 0
	var waiters []*Work
	if done {
		waiters = sc.waiters
		sc.waiters = nil
	}
	sc.mu.Unlock()

	for _, w := range waiters {
		sc.sched.Spawn(w)
	}
}

// Err returns the first child error recorded by a failfast scope, or nil.
func (sc *Scope) Err() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.failed
}

// TryDone reports whether every child has already finished.
func (sc *Scope) TryDone() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.pending == 0
}

// NotifyOnDone arranges for w to be pushed onto the scheduler once every
// outstanding child has finished, immediately if that is already true.
// internal/alt builds the Scope.Wait() alternative leaf out of TryDone
// and this.
func (sc *Scope) NotifyOnDone(w *Work) {
	sc.mu.Lock()
	if sc.pending == 0 {
		sc.mu.Unlock()
		sc.sched.Spawn(w)
		return
	}
	sc.waiters = append(sc.waiters, w)
	sc.mu.Unlock()
}
