// Package cml implements a Concurrent-ML style runtime: a work-stealing
// scheduler for large numbers of lightweight jobs, synchronous
// rendezvous channels, and selective communication over them (choose,
// wrap, guard, with_nack) committed through a two-phase pick protocol.
package cml

import (
	"github.com/cml-go/cml/internal/core"
	"github.com/cml-go/cml/internal/metric"
	"github.com/cml-go/cml/internal/trace"
)

// Config bounds a Scheduler's shape: how many OS-thread-pinned workers
// to run, what to do when one goes idle, and where an error that
// escapes every handler ends up. Fuzz/Seed replace wakeOne's parked-
// worker choice with a seed-derived PRNG, for reproducible interleaving
// in tests; production callers leave them zero.
type Config struct {
	Workers      int
	Idle         func(w *Worker) int
	TopLevelFail func(w *Worker, err error)
	Fuzz         bool
	Seed         int64

	// Trace, if non-nil, records scheduler events for offline replay.
	Trace *trace.Recorder
}

func (c Config) toCore() core.Config {
	return core.Config{
		Workers:      c.Workers,
		Idle:         core.IdleHandler(c.Idle),
		TopLevelFail: c.TopLevelFail,
		Fuzz:         c.Fuzz,
		Seed:         c.Seed,
		Trace:        c.Trace,
	}
}

// Scheduler owns a pool of workers and the shared state they steal work
// from and park on.
type Scheduler struct {
	inner *core.Scheduler
}

// NewScheduler builds a Scheduler from cfg without starting it.
func NewScheduler(cfg Config) *Scheduler {
	return &Scheduler{inner: core.NewScheduler(cfg.toCore())}
}

// Start launches cfg.Workers worker goroutines. It returns immediately.
func (s *Scheduler) Start() { s.inner.Start() }

// Stop asks every worker to return once its local stack next drains.
func (s *Scheduler) Stop() { s.inner.Stop() }

// Wait blocks until every worker goroutine has returned.
func (s *Scheduler) Wait() { s.inner.Wait() }

// Metrics exposes the scheduler's live atomic counters.
func (s *Scheduler) Metrics() *metric.Scheduler { return s.inner.Metrics() }

// Spawn enqueues job as new top-level work; whatever job eventually
// resumes or fails with is discarded (routed to the scheduler's
// top-level failure handler on failure). Use Run if the caller needs
// the result.
func Spawn[T any](s *Scheduler, job Job[T]) {
	s.inner.Spawn(core.NewWork(func(w *Worker) {
		job(w, countedContinuation(s, Continuation[T](discardContinuation[T]{})))
	}))
}

// countedContinuation wraps inner so every Job's resume or fail is
// reflected in the scheduler's job-completed/job-failed counters,
// regardless of whether the caller used Spawn or Run.
func countedContinuation[T any](s *Scheduler, inner Continuation[T]) Continuation[T] {
	return &countingContinuation[T]{m: s.Metrics(), inner: inner}
}

type countingContinuation[T any] struct {
	m     *metric.Scheduler
	inner Continuation[T]
}

func (c *countingContinuation[T]) Resume(w *Worker, v T) {
	c.m.JobCompleted()
	c.inner.Resume(w, v)
}

func (c *countingContinuation[T]) Fail(w *Worker, err error) {
	c.m.JobFailed()
	c.inner.Fail(w, err)
}

type runResult[T any] struct {
	v   T
	err error
}

// Run spawns job and blocks the calling goroutine until it resumes or
// fails, returning whichever happened. The scheduler must already be
// started; Run does not start or stop it.
func Run[T any](s *Scheduler, job Job[T]) (T, error) {
	done := make(chan runResult[T], 1)
	Spawn[T](s, func(w *Worker, _ Continuation[T]) {
		job(w, countedContinuation(s, ContinuationFunc(
			func(w *Worker, v T) { done <- runResult[T]{v: v} },
			func(w *Worker, err error) { done <- runResult[T]{err: err} },
		)))
	})
	r := <-done
	return r.v, r.err
}
