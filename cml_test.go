package cml

import (
	"sync/atomic"
	"testing"
	"time"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s := NewScheduler(Config{Workers: 2})
	s.Start()
	t.Cleanup(s.Stop)
	return s
}

func TestRunReturnsJobResult(t *testing.T) {
	s := newTestScheduler(t)
	v, err := Run(s, Job[int](func(w *Worker, k Continuation[int]) {
		k.Resume(w, 99)
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 99 {
		t.Fatalf("want 99, got %d", v)
	}
}

func TestRunPropagatesFailure(t *testing.T) {
	s := newTestScheduler(t)
	_, err := Run(s, Job[int](func(w *Worker, k Continuation[int]) {
		k.Fail(w, errBoom)
	}))
	if err != errBoom {
		t.Fatalf("want %v, got %v", errBoom, err)
	}
}

func TestChannelRendezvous(t *testing.T) {
	s := newTestScheduler(t)
	ch := NewChannel[string]()

	received := make(chan string, 1)
	Spawn(s, Job[struct{}](func(w *Worker, k Continuation[struct{}]) {
		Pick(w, ch.Take(), ContinuationFunc(
			func(w *Worker, v string) { received <- v },
			func(w *Worker, err error) { w.Fail(err) },
		))
	}))
	Spawn(s, Job[struct{}](func(w *Worker, k Continuation[struct{}]) {
		Pick(w, ch.Give("hello"), k)
	}))

	select {
	case v := <-received:
		if v != "hello" {
			t.Fatalf("want hello, got %q", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("rendezvous never completed")
	}
}

func TestChooseGiveOrTake(t *testing.T) {
	s := newTestScheduler(t)
	ch := NewChannel[int]()

	result := make(chan string, 1)
	Spawn(s, Job[struct{}](func(w *Worker, k Continuation[struct{}]) {
		a := Choose(
			Wrap(ch.Take(), func(int) string { return "took" }),
			Wrap(ch.Give(1), func(struct{}) string { return "gave" }),
		)
		Pick(w, a, ContinuationFunc(
			func(w *Worker, v string) { result <- v },
			func(w *Worker, err error) { w.Fail(err) },
		))
	}))
	Spawn(s, Job[struct{}](func(w *Worker, k Continuation[struct{}]) {
		Pick(w, ch.Give(2), k)
	}))

	select {
	case v := <-result:
		if v != "took" {
			t.Fatalf("want took, got %q", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("choose never resolved")
	}
}

func TestAfterFiresOncePicked(t *testing.T) {
	s := newTestScheduler(t)
	fired := make(chan time.Time, 1)
	start := time.Now()
	Spawn(s, Job[struct{}](func(w *Worker, k Continuation[struct{}]) {
		Pick(w, Wrap(After(s, 20*time.Millisecond), func(tm time.Time) struct{} {
			fired <- tm
			return struct{}{}
		}), k)
	}))

	select {
	case tm := <-fired:
		if tm.Before(start) {
			t.Fatalf("fire time %v is before start %v", tm, start)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("after never fired")
	}
}

func TestScopeWaitBlocksUntilChildrenFinish(t *testing.T) {
	s := newTestScheduler(t)
	sc := s.NewScope(false)

	const n = 10
	var finished atomic.Int32
	for i := 0; i < n; i++ {
		sc.SpawnIn(func(w *Worker, k Continuation[struct{}]) {
			finished.Add(1)
			k.Resume(w, struct{}{})
		})
	}

	done := make(chan struct{})
	Spawn(s, Job[struct{}](func(w *Worker, k Continuation[struct{}]) {
		Pick(w, sc.Wait(), ContinuationFunc(
			func(w *Worker, _ struct{}) { close(done) },
			func(w *Worker, err error) { w.Fail(err) },
		))
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("scope wait never fired")
	}
	if got := finished.Load(); got != n {
		t.Fatalf("want %d children run, got %d", n, got)
	}
}

func TestScopeWaitBlocksUntilSuspendedChildResumes(t *testing.T) {
	s := newTestScheduler(t)
	sc := s.NewScope(false)
	ch := NewChannel[int]()

	var resumed atomic.Bool
	sc.SpawnIn(func(w *Worker, k Continuation[struct{}]) {
		// This child's entry point returns at the Take's suspension
		// point, well before the rendezvous below completes it.
		Pick(w, Wrap(ch.Take(), func(int) struct{} {
			resumed.Store(true)
			return struct{}{}
		}), k)
	})

	waitDone := make(chan struct{})
	Spawn(s, Job[struct{}](func(w *Worker, k Continuation[struct{}]) {
		Pick(w, sc.Wait(), ContinuationFunc(
			func(w *Worker, _ struct{}) { close(waitDone) },
			func(w *Worker, err error) { w.Fail(err) },
		))
	}))

	select {
	case <-waitDone:
		t.Fatalf("scope wait fired before its suspended child actually resumed")
	case <-time.After(100 * time.Millisecond):
	}
	if resumed.Load() {
		t.Fatalf("child should not have resumed yet")
	}

	Spawn(s, Job[struct{}](func(w *Worker, k Continuation[struct{}]) {
		Pick(w, ch.Give(7), k)
	}))

	select {
	case <-waitDone:
	case <-time.After(2 * time.Second):
		t.Fatalf("scope wait never fired after its child resumed")
	}
	if !resumed.Load() {
		t.Fatalf("want child to have resumed by the time scope wait fired")
	}
}

var errBoom = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
