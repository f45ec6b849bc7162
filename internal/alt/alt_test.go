package alt

import (
	"testing"
	"time"

	"github.com/cml-go/cml/internal/core"
	"github.com/cml-go/cml/internal/corechan"
)

func newTestScheduler(t *testing.T) *core.Scheduler {
	t.Helper()
	s := core.NewScheduler(core.Config{Workers: 2})
	s.Start()
	t.Cleanup(s.Stop)
	return s
}

func TestAlwaysCommitsImmediately(t *testing.T) {
	s := newTestScheduler(t)
	done := make(chan any, 1)
	s.Spawn(core.NewWork(func(w *core.Worker) {
		Pick(w, Always(7), func(w *core.Worker, val any) { done <- val }, nil)
	}))
	select {
	case v := <-done:
		if v.(int) != 7 {
			t.Fatalf("want 7, got %v", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("always never committed")
	}
}

func TestChooseNeverLosesToAlways(t *testing.T) {
	s := newTestScheduler(t)
	done := make(chan any, 1)
	s.Spawn(core.NewWork(func(w *core.Worker) {
		a := Choose(Never(), Always("go"))
		Pick(w, a, func(w *core.Worker, val any) { done <- val }, nil)
	}))
	select {
	case v := <-done:
		if v.(string) != "go" {
			t.Fatalf("want go, got %v", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("choose never committed")
	}
}

func TestWrapTransformsValue(t *testing.T) {
	s := newTestScheduler(t)
	done := make(chan any, 1)
	s.Spawn(core.NewWork(func(w *core.Worker) {
		a := Wrap(Always(3), func(v any) any { return v.(int) * 10 })
		Pick(w, a, func(w *core.Worker, val any) { done <- val }, nil)
	}))
	select {
	case v := <-done:
		if v.(int) != 30 {
			t.Fatalf("want 30, got %v", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("wrap never committed")
	}
}

func TestWrapAbortFiresOnLosingBranch(t *testing.T) {
	s := newTestScheduler(t)
	done := make(chan any, 1)
	aborted := make(chan struct{}, 1)
	s.Spawn(core.NewWork(func(w *core.Worker) {
		losing := WrapAbort(Never(), func(w *core.Worker) { aborted <- struct{}{} })
		a := Choose(losing, Always("winner"))
		Pick(w, a, func(w *core.Worker, val any) { done <- val }, nil)
	}))
	select {
	case v := <-done:
		if v.(string) != "winner" {
			t.Fatalf("want winner, got %v", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("choose never committed")
	}
	select {
	case <-aborted:
	case <-time.After(2 * time.Second):
		t.Fatalf("wrap_abort never fired on the losing branch")
	}
}

func TestGuardReevaluatesPerAttempt(t *testing.T) {
	s := newTestScheduler(t)
	done := make(chan any, 1)
	calls := 0
	s.Spawn(core.NewWork(func(w *core.Worker) {
		a := Guard(func() Alt {
			calls++
			return Always(calls)
		})
		Pick(w, a, func(w *core.Worker, val any) { done <- val }, nil)
	}))
	select {
	case v := <-done:
		if v.(int) != 1 {
			t.Fatalf("want 1, got %v", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("guard never committed")
	}
	if calls != 1 {
		t.Fatalf("want mk called exactly once, got %d", calls)
	}
}

// TestLosingChannelLeafIsSkippedLater exercises what happens to a take
// leaf that got enqueued on a channel but then lost the pick to an
// unrelated Always branch: the channel has no way to yank it back out
// immediately (a channel leaf has no Cleanup), so it stays queued with
// its Pick already decided, and a later give must skip over it rather
// than matching it.
func TestLosingChannelLeafIsSkippedLater(t *testing.T) {
	s := newTestScheduler(t)
	ch := corechan.New[int]()
	done := make(chan any, 1)

	s.Spawn(core.NewWork(func(w *core.Worker) {
		a := Choose(Take[int](ch), Always("immediate"))
		Pick(w, a, func(w *core.Worker, val any) { done <- val }, nil)
	}))

	select {
	case v := <-done:
		if v.(string) != "immediate" {
			t.Fatalf("want immediate, got %v", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("choose never committed")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, takers := ch.QueueDepths(); takers == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if _, takers := ch.QueueDepths(); takers != 1 {
		t.Fatalf("want the losing take leaf still queued (stale), got takers=%d", takers)
	}

	delivered := make(chan int, 1)
	s.Spawn(core.NewWork(func(w *core.Worker) {
		a := Take[int](ch)
		Pick(w, a, func(w *core.Worker, val any) { delivered <- val.(int) }, nil)
	}))
	s.Spawn(core.NewWork(func(w *core.Worker) {
		Pick(w, Give[int](ch, 5), func(w *core.Worker, val any) {}, nil)
	}))

	select {
	case v := <-delivered:
		if v != 5 {
			t.Fatalf("want 5, got %d", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("give never matched the fresh taker past the stale one")
	}
}
