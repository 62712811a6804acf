package storage

import (
	"context"

	"sui-intent-solver/internal/domain"
)

// IntentStore provides access to the intents lifecycle audit table.
type IntentStore interface {
	// Insert adds a new intent record. Returns ErrDuplicateKey if the
	// commitment already exists.
	Insert(ctx context.Context, rec *domain.IntentRecord) error

	// UpdateStatus transitions an intent's lifecycle state, recording an
	// optional failure reason and settlement digest. Returns ErrNotFound if
	// the commitment does not exist.
	UpdateStatus(ctx context.Context, commitment string, status domain.IntentStatus, failureReason, txDigest string) error

	// GetByCommitment retrieves a record by its commitment. Returns
	// ErrNotFound if not exists.
	GetByCommitment(ctx context.Context, commitment string) (*domain.IntentRecord, error)

	// GetByStatus retrieves all records in the given state, ordered by
	// received_at ASC.
	GetByStatus(ctx context.Context, status domain.IntentStatus) ([]*domain.IntentRecord, error)
}

// ExecutionFillStore provides access to the execution_fills timeseries.
type ExecutionFillStore interface {
	// Insert adds a settled fill. Returns ErrDuplicateKey if the commitment
	// already has a fill.
	Insert(ctx context.Context, fill *domain.ExecutionFill) error

	// GetByCommitment retrieves the fill for an intent. Returns ErrNotFound
	// if not exists.
	GetByCommitment(ctx context.Context, commitment string) (*domain.ExecutionFill, error)

	// GetByPool retrieves fills for a pool within [start, end] (inclusive,
	// unix seconds), ordered by timestamp ASC.
	GetByPool(ctx context.Context, poolID string, start, end int64) ([]*domain.ExecutionFill, error)
}
