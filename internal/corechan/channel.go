// Package corechan implements synchronous rendezvous channels: a give
// and a take only ever complete together, and a channel holds no buffer
// of its own beyond the FIFO queues of parties currently waiting.
package corechan

import (
	"sync"

	"github.com/cml-go/cml/internal/core"
	"github.com/cml-go/cml/internal/pick"
)

// Resume delivers a committed value to whichever side of a rendezvous it
// belongs to; val is the channel's T for a taker, and struct{}{} for a
// giver. Give/Take always invoke it through core.Worker.Push, so a
// rendezvous never runs on the call stack of the party that discovered it.
type Resume func(w *core.Worker, val any)

type giverWaiter[T any] struct {
	next   *giverWaiter[T]
	pick   *pick.Pick
	branch int
	value  T
	resume Resume
}

type takerWaiter[T any] struct {
	next   *takerWaiter[T]
	pick   *pick.Pick
	branch int
	resume Resume
}

// Channel is a generic synchronous channel. The type parameter is Go's
// idiomatic substitute for the source design's one-struct-per-instantiated-
// type channels.
type Channel[T any] struct {
	mu sync.Mutex

	givers     *giverWaiter[T]
	giversTail *giverWaiter[T]
	numGivers  int

	takers     *takerWaiter[T]
	takersTail *takerWaiter[T]
	numTakers  int
}

// New allocates an empty channel.
func New[T any]() *Channel[T] {
	return &Channel[T]{}
}

// QueueDepths reports how many givers and takers are currently parked,
// for internal/metric and internal/monitor to display.
func (c *Channel[T]) QueueDepths() (givers, takers int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.numGivers, c.numTakers
}

// Give is the give(ch, v) primitive. It attempts an immediate rendezvous
// with a waiting taker, claiming both this pick and the taker's pick
// together; if no live taker is waiting it parks itself as a giver and
// returns false. On commit, both sides are resumed as pushed Work on w:
// the taker receives v, this side receives struct{}{}.
func (c *Channel[T]) Give(w *core.Worker, v T, p *pick.Pick, branch int, resume Resume) bool {
	for {
		c.mu.Lock()
		t := c.takers
		if t == nil {
			c.enqueueGiverLocked(v, p, branch, resume)
			c.mu.Unlock()
			return false
		}
		c.takers = t.next
		if c.takers == nil {
			c.takersTail = nil
		}
		c.numTakers--
		c.mu.Unlock()

		if !pick.ClaimPair(p, branch, t.pick, t.branch) {
			if !p.IsWaiting() {
				// Our own pick won through a different leaf while we were
				// scanning for a taker here; t is still live, not stale.
				// Put it back rather than dropping it, and stop, since
				// IsWaiting will turn us away before we're tried again.
				c.requeueTaker(t)
				return false
			}
			// t's pick was already decided via a different channel's
			// rendezvous; it is stale, drop it and look at the next taker.
			continue
		}
		pushResume(w, t.resume, v)
		pushResume(w, resume, struct{}{})
		return true
	}
}

// Take is the take(ch) primitive, symmetric with Give.
func (c *Channel[T]) Take(w *core.Worker, p *pick.Pick, branch int, resume Resume) bool {
	for {
		c.mu.Lock()
		g := c.givers
		if g == nil {
			c.enqueueTakerLocked(p, branch, resume)
			c.mu.Unlock()
			return false
		}
		c.givers = g.next
		if c.givers == nil {
			c.giversTail = nil
		}
		c.numGivers--
		c.mu.Unlock()

		if !pick.ClaimPair(p, branch, g.pick, g.branch) {
			if !p.IsWaiting() {
				c.requeueGiver(g)
				return false
			}
			continue
		}
		pushResume(w, resume, g.value)
		pushResume(w, g.resume, struct{}{})
		return true
	}
}

func pushResume(w *core.Worker, resume Resume, val any) {
	w.Push(core.NewWork(func(w *core.Worker) { resume(w, val) }))
}

func (c *Channel[T]) enqueueGiverLocked(v T, p *pick.Pick, branch int, resume Resume) {
	n := &giverWaiter[T]{value: v, pick: p, branch: branch, resume: resume}
	if c.giversTail == nil {
		c.givers = n
	} else {
		c.giversTail.next = n
	}
	c.giversTail = n
	c.numGivers++
}

// requeueGiver puts a live giver waiter back at the head of the queue
// after it was dequeued but turned out unusable for reasons that have
// nothing to do with the giver itself (our own pick already won
// elsewhere). It must go back at the head, not the tail, to preserve
// FIFO order against any other waiter that arrived while it was out.
func (c *Channel[T]) requeueGiver(g *giverWaiter[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g.next = c.givers
	c.givers = g
	if c.giversTail == nil {
		c.giversTail = g
	}
	c.numGivers++
}

// requeueTaker is requeueGiver's symmetric counterpart for takers.
func (c *Channel[T]) requeueTaker(t *takerWaiter[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t.next = c.takers
	c.takers = t
	if c.takersTail == nil {
		c.takersTail = t
	}
	c.numTakers++
}

func (c *Channel[T]) enqueueTakerLocked(p *pick.Pick, branch int, resume Resume) {
	n := &takerWaiter[T]{pick: p, branch: branch, resume: resume}
	if c.takersTail == nil {
		c.takers = n
	} else {
		c.takersTail.next = n
	}
	c.takersTail = n
	c.numTakers++
}
