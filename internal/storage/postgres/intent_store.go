package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"sui-intent-solver/internal/domain"
	"sui-intent-solver/internal/storage"
)

// IntentStore implements storage.IntentStore using PostgreSQL.
type IntentStore struct {
	pool *Pool
}

// NewIntentStore creates a new IntentStore.
func NewIntentStore(pool *Pool) *IntentStore {
	return &IntentStore{pool: pool}
}

// Compile-time interface check.
var _ storage.IntentStore = (*IntentStore)(nil)

// Insert adds a new intent record. Returns ErrDuplicateKey if the
// commitment already exists.
func (s *IntentStore) Insert(ctx context.Context, rec *domain.IntentRecord) error {
	if rec == nil || rec.Commitment == "" {
		return storage.ErrInvalidInput
	}

	updatedAt := rec.UpdatedAt
	if updatedAt == 0 {
		updatedAt = rec.ReceivedAt
	}

	query := `
		INSERT INTO intents (
			commitment, user_address, input_token, output_token,
			input_amount, min_output_amount, status, failure_reason,
			tx_digest, deadline, received_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.pool.Exec(ctx, query,
		rec.Commitment,
		rec.UserAddress,
		rec.InputToken,
		rec.OutputToken,
		rec.InputAmount,
		rec.MinOutputAmount,
		string(rec.Status),
		rec.FailureReason,
		rec.TxDigest,
		rec.Deadline,
		rec.ReceivedAt,
		updatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert intent: %w", err)
	}
	return nil
}

// UpdateStatus transitions an intent's lifecycle state.
func (s *IntentStore) UpdateStatus(ctx context.Context, commitment string, status domain.IntentStatus, failureReason, txDigest string) error {
	query := `
		UPDATE intents
		SET status = $2,
		    failure_reason = $3,
		    tx_digest = CASE WHEN $4 <> '' THEN $4 ELSE tx_digest END,
		    updated_at = $5
		WHERE commitment = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		commitment,
		string(status),
		failureReason,
		txDigest,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("update intent status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByCommitment retrieves a record by its commitment.
func (s *IntentStore) GetByCommitment(ctx context.Context, commitment string) (*domain.IntentRecord, error) {
	query := selectIntent + ` WHERE commitment = $1`

	row := s.pool.QueryRow(ctx, query, commitment)
	rec, err := scanIntent(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get intent by commitment: %w", err)
	}
	return rec, nil
}

// GetByStatus retrieves all records in the given state, received_at ASC.
func (s *IntentStore) GetByStatus(ctx context.Context, status domain.IntentStatus) ([]*domain.IntentRecord, error) {
	query := selectIntent + ` WHERE status = $1 ORDER BY received_at ASC`

	rows, err := s.pool.Query(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("get intents by status: %w", err)
	}
	defer rows.Close()

	var result []*domain.IntentRecord
	for rows.Next() {
		rec, err := scanIntent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan intent: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate intents: %w", err)
	}
	return result, nil
}

const selectIntent = `
	SELECT commitment, user_address, input_token, output_token,
	       input_amount, min_output_amount, status, failure_reason,
	       tx_digest, deadline, received_at, updated_at
	FROM intents
`

func scanIntent(row pgx.Row) (*domain.IntentRecord, error) {
	var rec domain.IntentRecord
	var status string
	err := row.Scan(
		&rec.Commitment,
		&rec.UserAddress,
		&rec.InputToken,
		&rec.OutputToken,
		&rec.InputAmount,
		&rec.MinOutputAmount,
		&status,
		&rec.FailureReason,
		&rec.TxDigest,
		&rec.Deadline,
		&rec.ReceivedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Status = domain.IntentStatus(status)
	return &rec, nil
}
