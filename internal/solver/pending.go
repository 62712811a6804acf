package solver

import (
	"errors"
	"sync"

	"sui-intent-solver/internal/domain"
)

// ErrDuplicateIntent is returned when an intent with the same commitment is
// already pending.
var ErrDuplicateIntent = errors.New("intent already pending")

// pendingSet is the orchestrator-owned set of intents awaiting a match,
// keyed by commitment. Connection handlers insert concurrently; the sweep
// claims entries for processing. A claimed commitment is exclusive to one
// in-flight worker until released or removed; the lock is never held
// across I/O.
type pendingSet struct {
	mu       sync.Mutex
	entries  map[string]*domain.DecryptedIntent
	inflight map[string]struct{}
}

func newPendingSet() *pendingSet {
	return &pendingSet{
		entries:  make(map[string]*domain.DecryptedIntent),
		inflight: make(map[string]struct{}),
	}
}

// Insert adds a decrypted intent. Returns ErrDuplicateIntent if the
// commitment is already pending.
func (p *pendingSet) Insert(intent *domain.DecryptedIntent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.entries[intent.Commitment]; exists {
		return ErrDuplicateIntent
	}
	p.entries[intent.Commitment] = intent
	return nil
}

// Get returns the pending intent for a commitment, if any.
func (p *pendingSet) Get(commitment string) (*domain.DecryptedIntent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	intent, ok := p.entries[commitment]
	return intent, ok
}

// Len returns the number of pending intents, claimed or not.
func (p *pendingSet) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Claim returns all pending intents not currently in flight and marks them
// in flight. Each commitment is claimed by at most one caller at a time.
func (p *pendingSet) Claim() []*domain.DecryptedIntent {
	p.mu.Lock()
	defer p.mu.Unlock()

	var claimed []*domain.DecryptedIntent
	for commitment, intent := range p.entries {
		if _, busy := p.inflight[commitment]; busy {
			continue
		}
		p.inflight[commitment] = struct{}{}
		claimed = append(claimed, intent)
	}
	return claimed
}

// Release clears the in-flight mark, keeping the entry pending for a
// future sweep.
func (p *pendingSet) Release(commitment string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inflight, commitment)
}

// Remove deletes the entry and clears its in-flight mark.
func (p *pendingSet) Remove(commitment string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, commitment)
	delete(p.inflight, commitment)
}
