// Package metric holds the plain atomic counters the scheduler, channels
// and alternatives update as they run. There is no external metrics
// vendor here, deliberately: a snapshot struct and a formatted summary
// string are enough for clmctl's bench and monitor subcommands.
package metric

import (
	"fmt"
	"sync/atomic"
)

// Scheduler aggregates the counters a running scheduler exposes.
type Scheduler struct {
	workersActive atomic.Int32
	workersParked atomic.Int32

	jobsSpawned    atomic.Int64
	jobsCompleted  atomic.Int64
	jobsFailed     atomic.Int64
	sharedStolen   atomic.Int64
	sharedDepth    atomic.Int64
	picksCommitted atomic.Int64
	nacksFired     atomic.Int64
}

// New allocates a zeroed set of scheduler counters.
func New() *Scheduler {
	return &Scheduler{}
}

func (m *Scheduler) AddStolen(n int64)        { m.sharedStolen.Add(n) }
func (m *Scheduler) SetSharedDepth(n int64)   { m.sharedDepth.Store(n) }
func (m *Scheduler) WorkerWoke()              { m.workersActive.Add(1); m.workersParked.Add(-1) }
func (m *Scheduler) WorkerParked()            { m.workersActive.Add(-1); m.workersParked.Add(1) }
func (m *Scheduler) WorkerStarted()           { m.workersActive.Add(1) }
func (m *Scheduler) JobSpawned()              { m.jobsSpawned.Add(1) }
func (m *Scheduler) JobCompleted()            { m.jobsCompleted.Add(1) }
func (m *Scheduler) JobFailed()               { m.jobsFailed.Add(1) }
func (m *Scheduler) PickCommitted()           { m.picksCommitted.Add(1) }
func (m *Scheduler) NackFired()               { m.nacksFired.Add(1) }

// Snapshot is a point-in-time copy of the counters, safe to retain and
// render without racing the live atomics.
type Snapshot struct {
	WorkersActive  int32
	WorkersParked  int32
	JobsSpawned    int64
	JobsCompleted  int64
	JobsFailed     int64
	SharedStolen   int64
	SharedDepth    int64
	PicksCommitted int64
	NacksFired     int64
}

// Snapshot reads every counter once.
func (m *Scheduler) Snapshot() Snapshot {
	return Snapshot{
		WorkersActive:  m.workersActive.Load(),
		WorkersParked:  m.workersParked.Load(),
		JobsSpawned:    m.jobsSpawned.Load(),
		JobsCompleted:  m.jobsCompleted.Load(),
		JobsFailed:     m.jobsFailed.Load(),
		SharedStolen:   m.sharedStolen.Load(),
		SharedDepth:    m.sharedDepth.Load(),
		PicksCommitted: m.picksCommitted.Load(),
		NacksFired:     m.nacksFired.Load(),
	}
}

// String renders the snapshot as a single summary line.
func (s Snapshot) String() string {
	return fmt.Sprintf(
		"workers: %d active, %d parked | jobs: %d spawned, %d done, %d failed | "+
			"shared: depth=%d stolen=%d | picks: %d committed, %d nacks fired",
		s.WorkersActive, s.WorkersParked,
		s.JobsSpawned, s.JobsCompleted, s.JobsFailed,
		s.SharedDepth, s.SharedStolen,
		s.PicksCommitted, s.NacksFired,
	)
}
