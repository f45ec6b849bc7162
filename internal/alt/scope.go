package alt

import (
	"github.com/cml-go/cml/internal/core"
	"github.com/cml-go/cml/internal/pick"
)

// ScopeWait offers a core.Scope's completion as an alternative: ready
// immediately if every child has already finished, otherwise it
// registers to be woken the moment the last one does.
func ScopeWait(sc *core.Scope) Alt {
	return &baseAlt{leaf: Leaf{
		Attempt: func(w *core.Worker, p *pick.Pick, branch int, resume func(w *core.Worker, val any)) bool {
			if sc.TryDone() {
				if p.Claim(branch) {
					w.Push(core.NewWork(func(w *core.Worker) { resume(w, struct{}{}) }))
					return true
				}
				return false
			}
			sc.NotifyOnDone(core.NewWork(func(w *core.Worker) {
				if p.Claim(branch) {
					resume(w, struct{}{})
				}
			}))
			return false
		},
	}}
}
