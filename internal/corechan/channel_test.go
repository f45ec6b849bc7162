package corechan

import (
	"testing"
	"time"

	"github.com/cml-go/cml/internal/core"
	"github.com/cml-go/cml/internal/pick"
)

func newTestScheduler(t *testing.T) *core.Scheduler {
	t.Helper()
	s := core.NewScheduler(core.Config{Workers: 2})
	s.Start()
	t.Cleanup(s.Stop)
	return s
}

func TestTakeBeforeGiveRendezvous(t *testing.T) {
	s := newTestScheduler(t)
	ch := New[int]()

	received := make(chan int, 1)
	gaveOK := make(chan bool, 1)

	s.Spawn(core.NewWork(func(w *core.Worker) {
		p := pick.New()
		ch.Take(w, p, 0, func(w *core.Worker, val any) {
			received <- val.(int)
		})
	}))

	// Give a beat to park as a taker before the giver shows up.
	time.Sleep(20 * time.Millisecond)

	s.Spawn(core.NewWork(func(w *core.Worker) {
		p := pick.New()
		ch.Give(w, 42, p, 0, func(w *core.Worker, val any) {
			gaveOK <- true
		})
	}))

	select {
	case v := <-received:
		if v != 42 {
			t.Fatalf("want 42, got %d", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("taker never received a value")
	}

	select {
	case <-gaveOK:
	case <-time.After(2 * time.Second):
		t.Fatalf("giver never resumed")
	}
}

func TestQueueDepthsReflectWaiters(t *testing.T) {
	s := newTestScheduler(t)
	ch := New[string]()

	parked := make(chan struct{})
	s.Spawn(core.NewWork(func(w *core.Worker) {
		p := pick.New()
		ch.Take(w, p, 0, func(w *core.Worker, val any) {})
		close(parked)
	}))

	select {
	case <-parked:
	case <-time.After(2 * time.Second):
		t.Fatalf("taker never parked")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if givers, takers := ch.QueueDepths(); takers == 1 && givers == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("taker queue depth never reached 1")
}

func TestStalePickIsSkipped(t *testing.T) {
	s := newTestScheduler(t)
	ch := New[int]()

	// A taker whose pick is claimed by someone else before the giver
	// shows up must be skipped rather than matched.
	p := pick.New()
	var resumed bool
	ch.Take(nil, p, 0, func(w *core.Worker, val any) { resumed = true })
	p.Claim(99) // simulate the taker winning a different branch elsewhere

	done := make(chan bool, 1)
	s.Spawn(core.NewWork(func(w *core.Worker) {
		p2 := pick.New()
		ok := ch.Give(w, 7, p2, 0, func(w *core.Worker, val any) {})
		done <- ok
	}))

	select {
	case ok := <-done:
		if ok {
			t.Fatalf("give must not report success against a stale taker")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("give never returned")
	}
	if resumed {
		t.Fatalf("stale taker must never be resumed")
	}
	if givers, _ := ch.QueueDepths(); givers != 1 {
		t.Fatalf("want giver parked after skipping the stale taker, got %d givers", givers)
	}
}

func TestLiveTakerRequeuedWhenOwnPickAlreadyWon(t *testing.T) {
	s := newTestScheduler(t)
	ch := New[int]()

	var resumed bool
	tp := pick.New()
	ch.Take(nil, tp, 0, func(w *core.Worker, val any) { resumed = true })

	// Our own pick (the giver's) commits to a different branch before
	// the rendezvous attempt below runs, simulating a sibling leaf of
	// the same selective wait winning concurrently.
	gp := pick.New()
	gp.Claim(1)

	done := make(chan bool, 1)
	s.Spawn(core.NewWork(func(w *core.Worker) {
		ok := ch.Give(w, 7, gp, 0, func(w *core.Worker, val any) {})
		done <- ok
	}))

	select {
	case ok := <-done:
		if ok {
			t.Fatalf("give must not report success once its own pick already won elsewhere")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("give never returned")
	}
	if resumed {
		t.Fatalf("live taker must not be resumed by a giver whose pick already lost")
	}
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if givers, takers := ch.QueueDepths(); givers == 0 && takers == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("live taker must be requeued, not dropped, when dequeued by a giver whose own pick already lost")
}
