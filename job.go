package cml

import "github.com/cml-go/cml/internal/core"

// Worker is the execution context a Job, Continuation or Alt runs on.
// It is a transparent alias over the scheduler's internal worker type:
// callers never construct one, only receive it from the runtime.
type Worker = core.Worker

// Continuation resumes a suspended computation exactly once, with
// either a value or a failure.
type Continuation[T any] interface {
	Resume(w *Worker, v T)
	Fail(w *Worker, err error)
}

// Job is a computation that runs on a worker and eventually resumes k
// exactly once.
type Job[T any] func(w *Worker, k Continuation[T])

type contFunc[T any] struct {
	resume func(w *Worker, v T)
	fail   func(w *Worker, err error)
}

func (c contFunc[T]) Resume(w *Worker, v T)     { c.resume(w, v) }
func (c contFunc[T]) Fail(w *Worker, err error) { c.fail(w, err) }

// ContinuationFunc builds a Continuation from two plain functions.
func ContinuationFunc[T any](resume func(w *Worker, v T), fail func(w *Worker, err error)) Continuation[T] {
	return contFunc[T]{resume: resume, fail: fail}
}

type discardContinuation[T any] struct{}

func (discardContinuation[T]) Resume(w *Worker, v T) {}
func (discardContinuation[T]) Fail(w *Worker, err error) { w.Fail(err) }
