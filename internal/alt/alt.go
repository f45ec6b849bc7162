// Package alt implements the selective-communication algebra: choose,
// wrap, wrap_abort, guard, with_nack, always, never, after, and the
// two-phase commit protocol (Pick) that decides which branch of a
// multi-way choice actually runs.
package alt

import (
	"github.com/cml-go/cml/internal/core"
	"github.com/cml-go/cml/internal/pick"
)

// Leaf is one indivisible candidate for a pick: something that can be
// asked, once, whether it is ready right now (and if so commit to it),
// or else register to be told later. Attempt does both in one call,
// mirroring how a channel's give/take commit path either matches
// immediately or enqueues a waiter in the same critical section.
type Leaf struct {
	// Attempt tries to commit p to branch via this leaf. On success it
	// has already arranged for resume to be pushed as Work (now or, if it
	// enqueued instead, later) and returns true. On failure it returns
	// false having registered whatever bookkeeping is needed to be woken
	// later; resume is retained for that purpose.
	Attempt func(w *core.Worker, p *pick.Pick, branch int, resume func(w *core.Worker, val any)) bool

	// Cleanup releases any resource this leaf holds regardless of outcome
	// (principally: stop an after(Δ) leaf's timer once the pick is
	// decided, win or lose).
	Cleanup func()
}

// Alt is an alternative: a tree of choose/wrap/guard/with_nack nodes
// that flattens, once per pick attempt, into an ordered list of leaves.
type Alt interface {
	flatten(p *pick.Pick, nackPath []*Nack, wrap func(any) any, aborts []func(w *core.Worker), dst []leafEntry) []leafEntry
}

type leafEntry struct {
	leaf     Leaf
	nackPath []*Nack
	wrap     func(any) any
	aborts   []func(w *core.Worker)
}

func identity(v any) any { return v }

// baseAlt is the Alt implementation for every leaf-producing combinator
// (Give, Take, Always, Never, After, a bare Nack-wait).
type baseAlt struct {
	leaf Leaf
}

func (b *baseAlt) flatten(p *pick.Pick, nackPath []*Nack, wrap func(any) any, aborts []func(w *core.Worker), dst []leafEntry) []leafEntry {
	return append(dst, leafEntry{leaf: b.leaf, nackPath: nackPath, wrap: wrap, aborts: aborts})
}

// choiceAlt implements Choose by flattening every child in order,
// passing its own nackPath/wrap/aborts through unchanged: choose does
// not itself transform outcomes, it only offers more leaves.
type choiceAlt struct {
	children []Alt
}

// Choose offers every alternative in children; the first to commit wins,
// with ties among simultaneously-ready children broken by encounter
// order during the scan.
func Choose(children ...Alt) Alt {
	return &choiceAlt{children: children}
}

func (c *choiceAlt) flatten(p *pick.Pick, nackPath []*Nack, wrap func(any) any, aborts []func(w *core.Worker), dst []leafEntry) []leafEntry {
	for _, child := range c.children {
		dst = child.flatten(p, nackPath, wrap, aborts, dst)
	}
	return dst
}

type wrapAlt struct {
	inner Alt
	f     func(any) any
}

// Wrap post-processes whatever value inner's winning branch produces,
// regardless of which of inner's leaves that turns out to be.
func Wrap(inner Alt, f func(any) any) Alt {
	return &wrapAlt{inner: inner, f: f}
}

func (a *wrapAlt) flatten(p *pick.Pick, nackPath []*Nack, wrap func(any) any, aborts []func(w *core.Worker), dst []leafEntry) []leafEntry {
	f := a.f
	composed := func(v any) any { return wrap(f(v)) }
	return a.inner.flatten(p, nackPath, composed, aborts, dst)
}

type wrapAbortAlt struct {
	inner Alt
	onAbort func(w *core.Worker)
}

// WrapAbort runs onAbort if inner's leaves lose the pick. If inner
// flattens to more than one leaf, onAbort runs once per losing leaf
// rather than once for the whole subtree; in practice wrap_abort is
// applied to a single base alternative or a guard producing one, where
// the distinction does not arise.
func WrapAbort(inner Alt, onAbort func(w *core.Worker)) Alt {
	return &wrapAbortAlt{inner: inner, onAbort: onAbort}
}

func (a *wrapAbortAlt) flatten(p *pick.Pick, nackPath []*Nack, wrap func(any) any, aborts []func(w *core.Worker), dst []leafEntry) []leafEntry {
	return a.inner.flatten(p, nackPath, wrap, append(append([]func(w *core.Worker){}, aborts...), a.onAbort), dst)
}

type guardAlt struct {
	mk func() Alt
}

// Guard defers building the real alternative until the moment it is
// picked, re-running mk on every pick attempt so its side effects
// happen exactly once per attempt rather than once per construction.
func Guard(mk func() Alt) Alt {
	return &guardAlt{mk: mk}
}

func (a *guardAlt) flatten(p *pick.Pick, nackPath []*Nack, wrap func(any) any, aborts []func(w *core.Worker), dst []leafEntry) []leafEntry {
	inner := a.mk()
	return inner.flatten(p, nackPath, wrap, aborts, dst)
}
