package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"sui-intent-solver/internal/domain"
	"sui-intent-solver/internal/storage"
)

func testFill(commitment, poolID string, ts int64) *domain.ExecutionFill {
	return &domain.ExecutionFill{
		Commitment:           commitment,
		PoolID:               poolID,
		ExecutedInputAmount:  5000000000,
		ExecutedOutputAmount: 2500000000,
		ExecutionPrice:       500000000,
		TxDigest:             "5KQFnDvsUeEh6wZyJNmmZpSRTJueAmQr5RWYAfFnM7GC",
		Timestamp:            ts,
	}
}

func TestExecutionFillStore_InsertAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewExecutionFillStore(conn)
	ctx := context.Background()

	err := store.Insert(ctx, testFill("c1", "p1", 1_700_000_000))
	require.NoError(t, err)

	err = store.Insert(ctx, testFill("c1", "p1", 1_700_000_000))
	require.ErrorIs(t, err, storage.ErrDuplicateKey)

	err = store.Insert(ctx, &domain.ExecutionFill{})
	require.ErrorIs(t, err, storage.ErrInvalidInput)

	fill, err := store.GetByCommitment(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, uint64(5000000000), fill.ExecutedInputAmount)
	require.Equal(t, uint64(2500000000), fill.ExecutedOutputAmount)
	require.Equal(t, uint64(500000000), fill.ExecutionPrice)
	require.Equal(t, int64(1_700_000_000), fill.Timestamp)

	_, err = store.GetByCommitment(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestExecutionFillStore_GetByPool(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewExecutionFillStore(conn)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testFill("c1", "p1", 300)))
	require.NoError(t, store.Insert(ctx, testFill("c2", "p1", 100)))
	require.NoError(t, store.Insert(ctx, testFill("c3", "p1", 200)))
	require.NoError(t, store.Insert(ctx, testFill("c4", "p2", 150)))

	fills, err := store.GetByPool(ctx, "p1", 100, 200)
	require.NoError(t, err)
	require.Len(t, fills, 2)
	require.Equal(t, int64(100), fills[0].Timestamp, "fills must be ordered by timestamp")
	require.Equal(t, int64(200), fills[1].Timestamp)

	empty, err := store.GetByPool(ctx, "p3", 0, 1_000_000)
	require.NoError(t, err)
	require.Empty(t, empty)
}
