package alt

import (
	"time"

	"github.com/cml-go/cml/internal/core"
	"github.com/cml-go/cml/internal/corechan"
	"github.com/cml-go/cml/internal/pick"
)

// Give is the give(ch, v) base alternative.
func Give[T any](ch *corechan.Channel[T], v T) Alt {
	return &baseAlt{leaf: Leaf{
		Attempt: func(w *core.Worker, p *pick.Pick, branch int, resume func(w *core.Worker, val any)) bool {
			return ch.Give(w, v, p, branch, corechan.Resume(resume))
		},
	}}
}

// Take is the take(ch) base alternative.
func Take[T any](ch *corechan.Channel[T]) Alt {
	return &baseAlt{leaf: Leaf{
		Attempt: func(w *core.Worker, p *pick.Pick, branch int, resume func(w *core.Worker, val any)) bool {
			return ch.Take(w, p, branch, corechan.Resume(resume))
		},
	}}
}

// Always is an alternative that is ready immediately, producing v every
// time it is picked.
func Always(v any) Alt {
	return &baseAlt{leaf: Leaf{
		Attempt: func(w *core.Worker, p *pick.Pick, branch int, resume func(w *core.Worker, val any)) bool {
			if !p.Claim(branch) {
				return false
			}
			w.Push(core.NewWork(func(w *core.Worker) { resume(w, v) }))
			return true
		},
	}}
}

// Never is an alternative that is never ready. Selecting it alongside
// others is only useful for its wrap_abort/with_nack side effects.
func Never() Alt {
	return &baseAlt{leaf: Leaf{
		Attempt: func(w *core.Worker, p *pick.Pick, branch int, resume func(w *core.Worker, val any)) bool {
			return false
		},
	}}
}

// After is an alternative that becomes ready once d has elapsed,
// producing time.Time (the firing time) as its value. Its timer is
// scheduled against the owning scheduler's shared timer heap rather
// than one OS timer per pick attempt.
func After(sched *core.Scheduler, d time.Duration) Alt {
	var id core.TimerID
	var scheduled bool
	// id/scheduled are written here, on whichever worker calls Attempt,
	// and read later from Cleanup, possibly on a different worker that
	// won the pick. The only happens-before between the two is whatever
	// pick.Pick's own locking already provides around Claim; there is no
	// separate synchronization for these two fields specifically.
	return &baseAlt{leaf: Leaf{
		Attempt: func(w *core.Worker, p *pick.Pick, branch int, resume func(w *core.Worker, val any)) bool {
			if d <= 0 {
				if p.Claim(branch) {
					now := time.Now()
					w.Push(core.NewWork(func(w *core.Worker) { resume(w, now) }))
					return true
				}
				return false
			}
			id = sched.ScheduleAfter(d, func() {
				if p.Claim(branch) {
					sched.Spawn(core.NewWork(func(w *core.Worker) { resume(w, time.Now()) }))
				}
			})
			scheduled = true
			return false
		},
		Cleanup: func() {
			if scheduled {
				sched.CancelTimer(id)
			}
		},
	}}
}
