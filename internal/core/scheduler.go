package core

import (
	"context"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"fortio.org/safecast"

	"github.com/cml-go/cml/internal/metric"
	"github.com/cml-go/cml/internal/trace"
)

// stealNumerator/stealDenominator fix the fraction of the shared stack a
// thief takes: leave stealDenominator-stealNumerator (currently 1/4) of
// it behind for the next thief, take the rest. See SPEC_FULL.md's Open
// Questions for why this stayed a constant instead of a config knob.
const (
	stealNumerator   = 3
	stealDenominator = 4
)

// Scheduler owns everything shared across workers: the overflow work
// stack thieves pull from, the set of parked workers and how to wake
// them, the idle and top-level failure handlers, and (for tests) a
// deterministic RNG choosing which parked worker wakeOne signals.
type Scheduler struct {
	cfg Config

	mu           sync.Mutex
	workStack    *Work
	numWorkStack int
	parked       []*parkSlot

	idle         IdleHandler
	topLevelFail func(w *Worker, err error)

	rng *rand.Rand

	workers []*Worker
	timers  *timers

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics *metric.Scheduler
	trace   *trace.Recorder
}

// parkSlot is the per-wait channel a parked worker blocks on. park
// allocates a fresh slot on every call and the waker closes it, so a
// slot is never reused across parks.
type parkSlot struct {
	ready chan struct{}
}

// NewScheduler builds a Scheduler from cfg but does not start any
// workers; call Start for that.
func NewScheduler(cfg Config) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cfg:          cfg,
		idle:         cfg.Idle,
		topLevelFail: cfg.TopLevelFail,
		rng:          cfg.rngOrNil(),
		ctx:          ctx,
		cancel:       cancel,
		metrics:      metric.New(),
		timers:       newTimers(),
		trace:        cfg.Trace,
	}
	if s.topLevelFail == nil {
		s.topLevelFail = func(w *Worker, err error) { panic(err) }
	}
	return s
}

// Metrics exposes the scheduler's live counters for internal/monitor and
// clmctl bench to poll.
func (s *Scheduler) Metrics() *metric.Scheduler { return s.metrics }

// Trace exposes the scheduler's event recorder, nil if none was
// configured.
func (s *Scheduler) Trace() *trace.Recorder { return s.trace }

// Start launches cfg.Workers worker goroutines, each pinned to its own
// OS thread. It returns immediately; call Wait or Stop to bring the
// scheduler down.
func (s *Scheduler) Start() {
	s.workers = make([]*Worker, s.cfg.Workers)
	for i := range s.workers {
		w := &Worker{id: i, sched: s}
		s.workers[i] = w
		s.wg.Add(1)
		go s.runWorker(w)
	}
	s.wg.Add(1)
	go s.runTimerDriver()
}

func (s *Scheduler) runWorker(w *Worker) {
	defer s.wg.Done()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	setWorkerNiceness()
	s.metrics.WorkerStarted()
	w.run()
}

// Stop asks every worker to return from run() once its local stack next
// drains, and wakes any worker currently parked so it notices.
func (s *Scheduler) Stop() {
	s.cancel()
	s.mu.Lock()
	slots := s.parked
	s.parked = nil
	s.mu.Unlock()
	for _, slot := range slots {
		close(slot.ready)
	}
}

// Wait blocks until every worker goroutine has returned.
func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) stopped() bool {
	select {
	case <-s.ctx.Done():
		return true
	default:
		return false
	}
}

// Spawn enqueues w as new top-level work, choosing a worker the same
// way an external caller handing a job to the scheduler would: onto the
// shared stack, for whichever idle worker gets there first.
func (s *Scheduler) Spawn(w *Work) {
	s.mu.Lock()
	s.pushSharedLocked(w)
	s.mu.Unlock()
	s.metrics.JobSpawned()
	s.trace.Record(trace.Event{Kind: trace.KindSpawn})
	s.wakeOne()
}

func (s *Scheduler) pushSharedLocked(w *Work) {
	w.next = s.workStack
	s.workStack = w
	s.numWorkStack++
	s.metrics.SetSharedDepth(int64(s.numWorkStack))
}

func (s *Scheduler) sharedEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workStack == nil
}

// donate moves an entire local stack (already linked) onto the shared
// stack in one splice, used by Worker.Push's donation heuristic.
func (s *Scheduler) donate(head *Work) {
	n := 0
	tail := head
	for tail.next != nil {
		tail = tail.next
		n++
	}
	n++
	s.mu.Lock()
	tail.next = s.workStack
	s.workStack = head
	s.numWorkStack += n
	s.metrics.SetSharedDepth(int64(s.numWorkStack))
	s.mu.Unlock()
	s.wakeOne()
}

// stealShareLocked must be called with s.mu held. It splits the shared
// stack so that roughly 1/stealDenominator of it (rounded down, the
// items nearest the head, i.e. the newest) stays on the shared stack,
// and unlinks the rest as a chain for the caller to adopt as its new
// local stack. This approximates FIFO across workers: because the
// shared stack is walked from the head and the tail holds the oldest
// donated work, the larger stolen chunk always contains the oldest
// items.
func (s *Scheduler) stealShareLocked() (*Work, int) {
	if s.workStack == nil || s.numWorkStack == 0 {
		return nil, 0
	}
	keep := s.numWorkStack * (stealDenominator - stealNumerator) / stealDenominator
	if keep == 0 {
		stolen := s.workStack
		n := s.numWorkStack
		s.workStack = nil
		s.numWorkStack = 0
		s.metrics.SetSharedDepth(0)
		return stolen, n
	}
	cur := s.workStack
	for i := 1; i < keep; i++ {
		cur = cur.next
	}
	stolen := cur.next
	cur.next = nil
	stolenCount := s.numWorkStack - keep
	s.numWorkStack = keep
	s.metrics.SetSharedDepth(safecast.MustConvert[int64](keep))
	return stolen, stolenCount
}

// park blocks the calling worker until it is woken or, if timeoutMs is
// non-negative, until the timeout elapses. It returns false if the
// scheduler was stopped while parked.
func (s *Scheduler) park(w *Worker, timeoutMs int) bool {
	slot := &parkSlot{ready: make(chan struct{})}
	s.mu.Lock()
	if s.stopped() {
		s.mu.Unlock()
		return false
	}
	s.parked = append(s.parked, slot)
	if s.workStack != nil {
		// Work landed between enterScheduler's own check and this one;
		// if we slept now, whoever pushed it may already have called
		// wakeOne before our slot existed to receive it. Bail out
		// without sleeping so the caller re-enters the steal loop.
		s.removeParkedLocked(slot)
		s.mu.Unlock()
		return true
	}
	s.mu.Unlock()

	s.metrics.WorkerParked()
	s.trace.Record(trace.Event{Kind: trace.KindPark, WorkerID: w.ID()})
	defer s.metrics.WorkerWoke()
	defer s.trace.Record(trace.Event{Kind: trace.KindWake, WorkerID: w.ID()})

	if timeoutMs < 0 {
		select {
		case <-slot.ready:
			return !s.stopped()
		case <-s.ctx.Done():
			return false
		}
	}

	timer := time.NewTimer(time.Duration(timeoutMs) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-slot.ready:
		return !s.stopped()
	case <-timer.C:
		s.removeParked(slot)
		return !s.stopped()
	case <-s.ctx.Done():
		return false
	}
}

func (s *Scheduler) removeParked(slot *parkSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeParkedLocked(slot)
}

// removeParkedLocked must be called with s.mu held.
func (s *Scheduler) removeParkedLocked(slot *parkSlot) {
	for i, p := range s.parked {
		if p == slot {
			s.parked = append(s.parked[:i], s.parked[i+1:]...)
			return
		}
	}
}

// wakeOne signals one parked worker, if any, that there may be work to
// look at. It is advisory: the woken worker re-checks the shared stack
// itself rather than being handed anything directly, so a spurious wake
// (or racing with another wake) is harmless.
func (s *Scheduler) wakeOne() {
	s.mu.Lock()
	if len(s.parked) == 0 {
		s.mu.Unlock()
		return
	}
	idx := 0
	if s.rng != nil {
		idx = s.rng.Intn(len(s.parked))
	}
	slot := s.parked[idx]
	s.parked = append(s.parked[:idx], s.parked[idx+1:]...)
	s.mu.Unlock()
	close(slot.ready)
}
