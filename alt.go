package cml

import (
	"time"

	"github.com/cml-go/cml/internal/alt"
)

// Alt is a selective-communication alternative that, once picked,
// yields a T. Alternatives are composed with Choose/Wrap/WrapAbort/
// Guard/WithNack and committed to with Pick or run standalone with Spawn
// or Run.
type Alt[T any] struct {
	inner alt.Alt
}

// Give is the give(ch, v) base alternative.
func Give[T any](ch *Channel[T], v T) Alt[struct{}] {
	return Alt[struct{}]{inner: alt.Give[T](ch.inner, v)}
}

// Take is the take(ch) base alternative.
func Take[T any](ch *Channel[T]) Alt[T] {
	return Alt[T]{inner: alt.Take[T](ch.inner)}
}

// Always is an alternative that is ready immediately and always yields v.
func Always[T any](v T) Alt[T] {
	return Alt[T]{inner: alt.Always(v)}
}

// Never is an alternative that is never ready.
func Never[T any]() Alt[T] {
	return Alt[T]{inner: alt.Never()}
}

// After becomes ready once d has elapsed, yielding the firing time.
func After(s *Scheduler, d time.Duration) Alt[time.Time] {
	return Alt[time.Time]{inner: alt.After(s.inner, d)}
}

// Choose offers every alternative in alts; whichever is ready first
// wins, with simultaneous readiness broken by the order given here.
func Choose[T any](alts ...Alt[T]) Alt[T] {
	inner := make([]alt.Alt, len(alts))
	for i, a := range alts {
		inner[i] = a.inner
	}
	return Alt[T]{inner: alt.Choose(inner...)}
}

// Wrap post-processes whichever value a's winning branch produces.
func Wrap[T, U any](a Alt[T], f func(T) U) Alt[U] {
	return Alt[U]{inner: alt.Wrap(a.inner, func(v any) any { return f(v.(T)) })}
}

// WrapAbort runs onAbort if a loses the pick it was offered in.
func WrapAbort[T any](a Alt[T], onAbort func()) Alt[T] {
	return Alt[T]{inner: alt.WrapAbort(a.inner, func(w *Worker) { onAbort() })}
}

// Guard defers building the real alternative until the moment it is
// picked, so mk's side effects happen once per pick attempt.
func Guard[T any](mk func() Alt[T]) Alt[T] {
	return Alt[T]{inner: alt.Guard(func() alt.Alt { return mk().inner })}
}

// WithNack builds a sub-alternative via build, which receives an
// alternative that becomes ready the moment this scope loses the pick —
// typically selected by a cleanup job spawned alongside the resource
// the scope protects.
func WithNack[T any](build func(nack Alt[struct{}]) Alt[T]) Alt[T] {
	return Alt[T]{inner: alt.WithNack(func(n alt.Alt) alt.Alt {
		return build(Alt[struct{}]{inner: n}).inner
	})}
}

// Pick commits to one branch of a, resuming k with its value. It
// suspends rather than blocks: if no branch is immediately ready, Pick
// returns right away having registered every branch, and k fires later
// from whichever worker completes the rendezvous.
func Pick[T any](w *Worker, a Alt[T], k Continuation[T]) {
	alt.Pick(w, a.inner, func(w *Worker, val any) {
		k.Resume(w, val.(T))
	}, w.Scheduler().Metrics())
}
