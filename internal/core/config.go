package core

import (
	"math/rand"

	"github.com/cml-go/cml/internal/trace"
)

// Config bounds a Scheduler's shape and, for tests, its scheduling
// order. Fuzz is not part of the running system's public surface; it
// exists so the commit-protocol tests in this package and in
// internal/alt can force a reproducible interleaving instead of
// depending on whatever the Go scheduler happens to do.
type Config struct {
	// Workers is the number of OS-thread-pinned goroutines to start. Zero
	// means GOMAXPROCS(0).
	Workers int

	// Idle is consulted whenever a worker finds both its local stack and
	// the shared stack empty. It returns a timeout in milliseconds: 0
	// means poll again immediately, a negative value means park until
	// explicitly woken, and a positive value means park for at most that
	// long. A nil Idle parks indefinitely.
	Idle IdleHandler

	// TopLevelFail receives any error that escapes every installed
	// handler. A nil value panics the owning goroutine, matching Go's own
	// convention for an unrecovered panic.
	TopLevelFail func(w *Worker, err error)

	// Fuzz drives wakeOne's choice of which parked worker to signal from
	// a seed-derived PRNG instead of always the head of the parked list,
	// for fuzz/replay tests of the pick commit protocol.
	Fuzz bool
	Seed int64

	// Trace, if non-nil, records spawn/park/wake/commit/nack/fail events
	// for offline replay. A nil Trace costs nothing beyond a nil check at
	// each record site.
	Trace *trace.Recorder
}

// IdleHandler is run with no work available on either stack. It may
// attempt to manufacture work (e.g. polling a netpoll-equivalent) before
// returning a timeout.
type IdleHandler func(w *Worker) int

func (c Config) rngOrNil() *rand.Rand {
	if !c.Fuzz {
		return nil
	}
	return rand.New(rand.NewSource(c.Seed))
}
