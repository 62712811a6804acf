package clickhouse

import (
	"context"
	"fmt"

	"sui-intent-solver/internal/domain"
	"sui-intent-solver/internal/storage"
)

// ExecutionFillStore implements storage.ExecutionFillStore using ClickHouse.
type ExecutionFillStore struct {
	conn *Conn
}

// NewExecutionFillStore creates a new ExecutionFillStore.
func NewExecutionFillStore(conn *Conn) *ExecutionFillStore {
	return &ExecutionFillStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ExecutionFillStore = (*ExecutionFillStore)(nil)

// Insert adds a settled fill. Returns ErrDuplicateKey if the commitment
// already has a fill.
func (s *ExecutionFillStore) Insert(ctx context.Context, fill *domain.ExecutionFill) error {
	if fill == nil || fill.Commitment == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, fill.Commitment)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO execution_fills (
			commitment, pool_id, executed_input_amount, executed_output_amount,
			execution_price, tx_digest, timestamp
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		fill.Commitment, fill.PoolID,
		fill.ExecutedInputAmount, fill.ExecutedOutputAmount,
		fill.ExecutionPrice, fill.TxDigest, uint64(fill.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByCommitment retrieves the fill for an intent.
func (s *ExecutionFillStore) GetByCommitment(ctx context.Context, commitment string) (*domain.ExecutionFill, error) {
	query := `
		SELECT commitment, pool_id, executed_input_amount, executed_output_amount,
		       execution_price, tx_digest, timestamp
		FROM execution_fills
		WHERE commitment = ?
		LIMIT 1
	`

	row := s.conn.QueryRow(ctx, query, commitment)
	fill, err := scanFill(row)
	if err != nil {
		// ClickHouse reports an empty result as a scan error.
		return nil, storage.ErrNotFound
	}
	return fill, nil
}

// GetByPool retrieves fills for a pool within [start, end], timestamp ASC.
func (s *ExecutionFillStore) GetByPool(ctx context.Context, poolID string, start, end int64) ([]*domain.ExecutionFill, error) {
	query := `
		SELECT commitment, pool_id, executed_input_amount, executed_output_amount,
		       execution_price, tx_digest, timestamp
		FROM execution_fills
		WHERE pool_id = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, poolID, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query fills by pool: %w", err)
	}
	defer rows.Close()

	var result []*domain.ExecutionFill
	for rows.Next() {
		fill, err := scanFill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fill: %w", err)
		}
		result = append(result, fill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fills: %w", err)
	}
	return result, nil
}

func (s *ExecutionFillStore) exists(ctx context.Context, commitment string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count() FROM execution_fills WHERE commitment = ?`, commitment,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFill(row rowScanner) (*domain.ExecutionFill, error) {
	var fill domain.ExecutionFill
	var ts uint64
	err := row.Scan(
		&fill.Commitment,
		&fill.PoolID,
		&fill.ExecutedInputAmount,
		&fill.ExecutedOutputAmount,
		&fill.ExecutionPrice,
		&fill.TxDigest,
		&ts,
	)
	if err != nil {
		return nil, err
	}
	fill.Timestamp = int64(ts)
	return &fill, nil
}
