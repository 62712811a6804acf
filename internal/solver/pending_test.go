package solver

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"sui-intent-solver/internal/domain"
)

func pendingIntent(commitment string) *domain.DecryptedIntent {
	return &domain.DecryptedIntent{Commitment: commitment}
}

func TestPendingSet_InsertDuplicate(t *testing.T) {
	p := newPendingSet()

	if err := p.Insert(pendingIntent("c1")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := p.Insert(pendingIntent("c1")); !errors.Is(err, ErrDuplicateIntent) {
		t.Fatalf("expected ErrDuplicateIntent, got %v", err)
	}
	if p.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", p.Len())
	}
}

func TestPendingSet_ClaimExclusive(t *testing.T) {
	p := newPendingSet()
	p.Insert(pendingIntent("c1"))
	p.Insert(pendingIntent("c2"))

	first := p.Claim()
	if len(first) != 2 {
		t.Fatalf("expected 2 claimed, got %d", len(first))
	}

	// A second claim while both are in flight gets nothing.
	if again := p.Claim(); len(again) != 0 {
		t.Fatalf("expected 0 claimed while in flight, got %d", len(again))
	}

	// Released entries become claimable again; removed ones do not.
	p.Release("c1")
	p.Remove("c2")
	second := p.Claim()
	if len(second) != 1 || second[0].Commitment != "c1" {
		t.Fatalf("expected only c1 reclaimable, got %v", second)
	}
	if p.Len() != 1 {
		t.Errorf("expected 1 entry after removal, got %d", p.Len())
	}
}

func TestPendingSet_ConcurrentClaims(t *testing.T) {
	p := newPendingSet()
	for i := 0; i < 100; i++ {
		p.Insert(pendingIntent(fmt.Sprintf("c%d", i)))
	}

	var mu sync.Mutex
	seen := make(map[string]int)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, intent := range p.Claim() {
				mu.Lock()
				seen[intent.Commitment]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != 100 {
		t.Fatalf("expected all 100 intents claimed, got %d", len(seen))
	}
	for c, n := range seen {
		if n != 1 {
			t.Errorf("intent %s claimed %d times", c, n)
		}
	}
}
