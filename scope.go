package cml

import (
	"context"

	"github.com/cml-go/cml/internal/alt"
	"github.com/cml-go/cml/internal/core"
)

// Scope is structured-concurrency bookkeeping on top of Spawn: it
// tracks outstanding children and, if failfast, cancels Context() and
// remembers the first error the moment one of them fails. It does not
// preempt a running child; jobs that want early-exit behavior check
// Context() themselves.
type Scope struct {
	inner *core.Scope
}

// NewScope opens a scope against s.
func (s *Scheduler) NewScope(failfast bool) *Scope {
	return &Scope{inner: s.inner.NewScope(failfast)}
}

// Context is cancelled as soon as a failfast scope's first child fails.
func (sc *Scope) Context() context.Context { return sc.inner.Context() }

// Err returns the first child error recorded by a failfast scope, or nil.
func (sc *Scope) Err() error { return sc.inner.Err() }

// SpawnIn runs job as a child of sc. job is not considered finished
// until its own continuation resumes or fails, not merely when job's
// entry point returns — a job that suspends at a rendezvous and
// resumes later still keeps sc waiting until then.
func (sc *Scope) SpawnIn(job Job[struct{}]) {
	sc.inner.SpawnInAsync(func(w *Worker, done func(error)) {
		job(w, scopeContinuation{done: done})
	})
}

// scopeContinuation reports a child's real completion (Resume or Fail,
// whichever the job's continuation actually receives) to its Scope,
// then forwards a failure on through the normal handler chain exactly
// as discardContinuation would.
type scopeContinuation struct {
	done func(error)
}

func (c scopeContinuation) Resume(w *Worker, _ struct{}) { c.done(nil) }
func (c scopeContinuation) Fail(w *Worker, err error)    { c.done(err); w.Fail(err) }

// Wait is an alternative that becomes ready once every child spawned
// into sc has finished.
func (sc *Scope) Wait() Alt[struct{}] {
	return Alt[struct{}]{inner: alt.ScopeWait(sc.inner)}
}
