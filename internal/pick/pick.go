// Package pick implements the commit state shared by every party racing to
// complete one selective wait. A Pick transitions Waiting -> Picked(branch)
// exactly once; everyone else who later finds a waiter referencing it must
// observe the terminal state and treat the waiter as stale.
package pick

import (
	"sync"
	"unsafe"
)

// Pick is the shared state of one selective wait (spec: "Pick").
type Pick struct {
	mu     sync.Mutex
	won    bool
	branch int
}

// New allocates a fresh Pick in the Waiting state.
func New() *Pick {
	return &Pick{}
}

func (p *Pick) addr() uintptr {
	return uintptr(unsafe.Pointer(p))
}

// Claim commits p, alone, to branch. Used by leaves with no counterparty
// pick to synchronize against (always, after, a fired nack).
func (p *Pick) Claim(branch int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.won {
		return false
	}
	p.won = true
	p.branch = branch
	return true
}

// ClaimPair commits a and b together to branchA/branchB, or commits neither.
// Locks are taken in address order across the pair so that two concurrent
// attempts racing over the same two picks always agree on who goes first,
// which is what makes the "abort on first failure, never touch the second"
// rule below safe instead of a two-lock deadlock.
func ClaimPair(a *Pick, branchA int, b *Pick, branchB int) bool {
	if a == b {
		// A leaf rendezvousing with itself (degenerate, but harmless) reduces
		// to a single claim.
		return a.Claim(branchA)
	}
	first, second := a, b
	firstBranch, secondBranch := branchA, branchB
	if b.addr() < a.addr() {
		first, second = b, a
		firstBranch, secondBranch = branchB, branchA
	}

	first.mu.Lock()
	defer first.mu.Unlock()
	if first.won {
		return false
	}
	second.mu.Lock()
	defer second.mu.Unlock()
	if second.won {
		return false
	}
	first.won, first.branch = true, firstBranch
	second.won, second.branch = true, secondBranch
	return true
}

// IsWaiting reports whether this pick is still undecided.
func (p *Pick) IsWaiting() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.won
}

// WinningBranch reports the committed branch, if any.
func (p *Pick) WinningBranch() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.won {
		return 0, false
	}
	return p.branch, true
}
