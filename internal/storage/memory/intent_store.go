package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"sui-intent-solver/internal/domain"
	"sui-intent-solver/internal/storage"
)

// IntentStore is an in-memory implementation of storage.IntentStore.
type IntentStore struct {
	mu   sync.RWMutex
	data map[string]*domain.IntentRecord // keyed by commitment
}

// NewIntentStore creates a new in-memory intent store.
func NewIntentStore() *IntentStore {
	return &IntentStore{
		data: make(map[string]*domain.IntentRecord),
	}
}

// Compile-time interface check.
var _ storage.IntentStore = (*IntentStore)(nil)

// Insert adds a new intent record. Returns ErrDuplicateKey if the
// commitment already exists.
func (s *IntentStore) Insert(_ context.Context, rec *domain.IntentRecord) error {
	if rec == nil || rec.Commitment == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[rec.Commitment]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	recCopy := *rec
	if recCopy.UpdatedAt == 0 {
		recCopy.UpdatedAt = recCopy.ReceivedAt
	}
	s.data[rec.Commitment] = &recCopy
	return nil
}

// UpdateStatus transitions an intent's lifecycle state.
func (s *IntentStore) UpdateStatus(_ context.Context, commitment string, status domain.IntentStatus, failureReason, txDigest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.data[commitment]
	if !exists {
		return storage.ErrNotFound
	}

	rec.Status = status
	rec.FailureReason = failureReason
	if txDigest != "" {
		rec.TxDigest = txDigest
	}
	rec.UpdatedAt = time.Now().UnixMilli()
	return nil
}

// GetByCommitment retrieves a record by its commitment.
func (s *IntentStore) GetByCommitment(_ context.Context, commitment string) (*domain.IntentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.data[commitment]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recCopy := *rec
	return &recCopy, nil
}

// GetByStatus retrieves all records in the given state, received_at ASC.
func (s *IntentStore) GetByStatus(_ context.Context, status domain.IntentStatus) ([]*domain.IntentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.IntentRecord
	for _, rec := range s.data {
		if rec.Status == status {
			recCopy := *rec
			result = append(result, &recCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ReceivedAt < result[j].ReceivedAt
	})

	return result, nil
}
