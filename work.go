package cml

import "github.com/cml-go/cml/internal/core"

// Work is the raw schedulable unit underlying every Job, continuation
// resumption and alternative commit. Most callers only ever need Spawn
// and Run; Work is exposed for embedders building their own primitives
// on top of the scheduler.
type Work = core.Work

// NewWork wraps fn as a freshly-linked Work item.
func NewWork(fn func(w *Worker)) *Work {
	return core.NewWork(fn)
}
