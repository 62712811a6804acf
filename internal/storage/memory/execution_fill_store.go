package memory

import (
	"context"
	"sort"
	"sync"

	"sui-intent-solver/internal/domain"
	"sui-intent-solver/internal/storage"
)

// ExecutionFillStore is an in-memory implementation of
// storage.ExecutionFillStore.
type ExecutionFillStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ExecutionFill // keyed by commitment
}

// NewExecutionFillStore creates a new in-memory fill store.
func NewExecutionFillStore() *ExecutionFillStore {
	return &ExecutionFillStore{
		data: make(map[string]*domain.ExecutionFill),
	}
}

// Compile-time interface check.
var _ storage.ExecutionFillStore = (*ExecutionFillStore)(nil)

// Insert adds a settled fill. Returns ErrDuplicateKey if the commitment
// already has a fill.
func (s *ExecutionFillStore) Insert(_ context.Context, fill *domain.ExecutionFill) error {
	if fill == nil || fill.Commitment == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[fill.Commitment]; exists {
		return storage.ErrDuplicateKey
	}

	fillCopy := *fill
	s.data[fill.Commitment] = &fillCopy
	return nil
}

// GetByCommitment retrieves the fill for an intent.
func (s *ExecutionFillStore) GetByCommitment(_ context.Context, commitment string) (*domain.ExecutionFill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fill, exists := s.data[commitment]
	if !exists {
		return nil, storage.ErrNotFound
	}

	fillCopy := *fill
	return &fillCopy, nil
}

// GetByPool retrieves fills for a pool within [start, end], timestamp ASC.
func (s *ExecutionFillStore) GetByPool(_ context.Context, poolID string, start, end int64) ([]*domain.ExecutionFill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ExecutionFill
	for _, fill := range s.data {
		if fill.PoolID == poolID && fill.Timestamp >= start && fill.Timestamp <= end {
			fillCopy := *fill
			result = append(result, &fillCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})

	return result, nil
}
