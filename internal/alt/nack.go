package alt

import (
	"sync"

	"github.com/cml-go/cml/internal/core"
	"github.com/cml-go/cml/internal/pick"
)

// Nack is a one-shot negative-acknowledgement signal: something else can
// select on it as an ordinary alternative, and it fires — waking every
// such selector — the moment the with_nack scope that owns it loses the
// pick its nested alternative was offered in.
type Nack struct {
	mu      sync.Mutex
	fired   bool
	waiters []func(w *core.Worker)
}

func newNack() *Nack {
	return &Nack{}
}

// Fire marks n fired and runs every waiter registered so far, plus any
// registered afterward immediately. w is the worker the firing happened
// on, passed through so waiters can push follow-up Work without needing
// their own worker reference.
func (n *Nack) Fire(w *core.Worker) {
	n.mu.Lock()
	if n.fired {
		n.mu.Unlock()
		return
	}
	n.fired = true
	waiters := n.waiters
	n.waiters = nil
	n.mu.Unlock()
	for _, fn := range waiters {
		fn(w)
	}
}

func (n *Nack) isFired() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.fired
}

func (n *Nack) addWaiter(w *core.Worker, fn func(w *core.Worker)) {
	n.mu.Lock()
	if n.fired {
		n.mu.Unlock()
		fn(w)
		return
	}
	n.waiters = append(n.waiters, fn)
	n.mu.Unlock()
}

// waitAlt offers n itself as a leaf: selecting it commits the moment n
// fires (or immediately, if it already has).
func waitAlt(n *Nack) Alt {
	return &baseAlt{leaf: Leaf{
		Attempt: func(w *core.Worker, p *pick.Pick, branch int, resume func(w *core.Worker, val any)) bool {
			if n.isFired() {
				if p.Claim(branch) {
					w.Push(core.NewWork(func(w *core.Worker) { resume(w, struct{}{}) }))
					return true
				}
				return false
			}
			n.addWaiter(w, func(w *core.Worker) {
				if p.Claim(branch) {
					w.Push(core.NewWork(func(w *core.Worker) { resume(w, struct{}{}) }))
				}
			})
			return false
		},
	}}
}

type withNackAlt struct {
	build func(nack Alt) Alt
}

// WithNack builds a sub-alternative via build, which receives a usable
// Alt representing "this scope lost"; every leaf build produces is
// tagged as belonging to the returned Nack's scope, so that committing
// to any leaf outside that scope fires it.
func WithNack(build func(nack Alt) Alt) Alt {
	return &withNackAlt{build: build}
}

func (a *withNackAlt) flatten(p *pick.Pick, nackPath []*Nack, wrap func(any) any, aborts []func(w *core.Worker), dst []leafEntry) []leafEntry {
	n := newNack()
	inner := a.build(waitAlt(n))
	scoped := append(append([]*Nack{}, nackPath...), n)
	return inner.flatten(p, scoped, wrap, aborts, dst)
}
