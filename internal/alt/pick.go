package alt

import (
	"github.com/cml-go/cml/internal/core"
	"github.com/cml-go/cml/internal/metric"
	"github.com/cml-go/cml/internal/pick"
	"github.com/cml-go/cml/internal/trace"
)

// Pick runs one selective wait over root on w, scanning its leaves in
// order and committing to the first that is immediately ready. If none
// is, every leaf is left enqueued and resume fires later, from whichever
// worker eventually completes the rendezvous, exactly once.
func Pick(w *core.Worker, root Alt, resume func(w *core.Worker, val any), m *metric.Scheduler) {
	p := pick.New()
	leaves := root.flatten(p, nil, identity, nil, nil)

	for branch, entry := range leaves {
		if !p.IsWaiting() {
			return
		}
		branch, entry := branch, entry
		leafResume := func(w *core.Worker, raw any) {
			settle(leaves, branch, w, m)
			resume(w, entry.wrap(raw))
		}
		if entry.leaf.Attempt(w, p, branch, leafResume) {
			return
		}
	}
}

// settle runs once a branch has won: every leaf's Cleanup runs (the
// winner's included), every other leaf's wrap_abort jobs fire, and every
// nack scope the winner is not nested inside fires exactly once.
func settle(leaves []leafEntry, winner int, w *core.Worker, m *metric.Scheduler) {
	rec := w.Scheduler().Trace()
	if m != nil {
		m.PickCommitted()
	}
	rec.Record(trace.Event{Kind: trace.KindCommit, WorkerID: w.ID(), Branch: winner})
	winPath := leaves[winner].nackPath
	fired := make(map[*Nack]bool)
	for i, e := range leaves {
		if e.leaf.Cleanup != nil {
			e.leaf.Cleanup()
		}
		if i == winner {
			continue
		}
		for _, ab := range e.aborts {
			ab(w)
		}
		for _, n := range e.nackPath {
			if inPath(winPath, n) || fired[n] {
				continue
			}
			fired[n] = true
			if m != nil {
				m.NackFired()
			}
			rec.Record(trace.Event{Kind: trace.KindNackFired, WorkerID: w.ID(), Branch: i})
			n.Fire(w)
		}
	}
}

func inPath(path []*Nack, n *Nack) bool {
	for _, p := range path {
		if p == n {
			return true
		}
	}
	return false
}
