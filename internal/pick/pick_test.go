package pick

import (
	"sync"
	"testing"
)

func TestClaimOnlyOnce(t *testing.T) {
	p := New()
	if !p.Claim(1) {
		t.Fatalf("first claim should succeed")
	}
	if p.Claim(2) {
		t.Fatalf("second claim should fail")
	}
	branch, ok := p.WinningBranch()
	if !ok || branch != 1 {
		t.Fatalf("want winning branch 1, got %d (ok=%v)", branch, ok)
	}
}

func TestClaimPairCommitsBoth(t *testing.T) {
	a, b := New(), New()
	if !ClaimPair(a, 0, b, 3) {
		t.Fatalf("claim pair should succeed on fresh picks")
	}
	if branch, ok := a.WinningBranch(); !ok || branch != 0 {
		t.Fatalf("a: want branch 0, got %d (ok=%v)", branch, ok)
	}
	if branch, ok := b.WinningBranch(); !ok || branch != 3 {
		t.Fatalf("b: want branch 3, got %d (ok=%v)", branch, ok)
	}
}

func TestClaimPairFailsIfEitherAlreadyWon(t *testing.T) {
	a, b := New(), New()
	a.Claim(9)
	if ClaimPair(a, 0, b, 1) {
		t.Fatalf("claim pair must fail once a side is already decided")
	}
	if b.IsWaiting() == false {
		t.Fatalf("b must remain undecided after a failed ClaimPair")
	}
}

func TestClaimPairDegenerateSamePick(t *testing.T) {
	p := New()
	if !ClaimPair(p, 2, p, 2) {
		t.Fatalf("self-pair should succeed once")
	}
	if ClaimPair(p, 2, p, 2) {
		t.Fatalf("self-pair should not succeed twice")
	}
}

// TestClaimPairConcurrentExactlyOneWinner races many goroutines, each
// trying to pair up two shared picks, and checks that exactly one
// ClaimPair call among them succeeds: the two-phase commit must never
// let two different pairings both win against the same pick.
func TestClaimPairConcurrentExactlyOneWinner(t *testing.T) {
	a, b := New(), New()
	const attempts = 64
	var wg sync.WaitGroup
	var successes int32
	var mu sync.Mutex

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if ClaimPair(a, i, b, i) {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("want exactly one successful ClaimPair, got %d", successes)
	}
}

// TestClaimPairNoCrossedWin exercises the race that a naive claim-self-
// then-counterparty CAS ordering would miss: two picks, each racing to
// pair with a distinct third pick, must not both report success, since
// only one of them can actually own the shared counterparty.
func TestClaimPairNoCrossedWin(t *testing.T) {
	shared := New()
	left, right := New(), New()

	var wg sync.WaitGroup
	results := make(chan string, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		if ClaimPair(left, 0, shared, 100) {
			results <- "left"
		}
	}()
	go func() {
		defer wg.Done()
		if ClaimPair(right, 0, shared, 200) {
			results <- "right"
		}
	}()
	wg.Wait()
	close(results)

	var winners []string
	for r := range results {
		winners = append(winners, r)
	}
	if len(winners) != 1 {
		t.Fatalf("want exactly one side to win the shared pick, got %v", winners)
	}
}
