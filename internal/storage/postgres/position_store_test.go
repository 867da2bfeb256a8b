package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

func TestPositionStore_UpsertAndList(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPositionStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, &domain.Position{
		Mint:      "mintB",
		Quantity:  500_000,
		CostBasis: 0.0000021,
		OpenedAt:  1_700_000_000_000,
		UpdatedAt: 1_700_000_000_000,
	}))
	require.NoError(t, store.Upsert(ctx, &domain.Position{
		Mint:      "mintA",
		Quantity:  1_000,
		CostBasis: 1.5,
		OpenedAt:  1_700_000_001_000,
		UpdatedAt: 1_700_000_001_000,
	}))

	list, err := store.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "mintA", list[0].Mint)
	assert.Equal(t, "mintB", list[1].Mint)
	assert.Equal(t, uint64(500_000), list[1].Quantity)
	assert.InDelta(t, 0.0000021, list[1].CostBasis, 1e-12)
}

func TestPositionStore_UpsertReplaces(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPositionStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, &domain.Position{
		Mint: "mintA", Quantity: 10, CostBasis: 1.0, OpenedAt: 1000, UpdatedAt: 1000,
	}))
	require.NoError(t, store.Upsert(ctx, &domain.Position{
		Mint: "mintA", Quantity: 30, CostBasis: 2.0, OpenedAt: 1000, UpdatedAt: 2000,
	}))

	list, err := store.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, uint64(30), list[0].Quantity)
	assert.Equal(t, 2.0, list[0].CostBasis)
	assert.Equal(t, int64(2000), list[0].UpdatedAt)
}

func TestPositionStore_Delete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPositionStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, &domain.Position{Mint: "mintA", Quantity: 10}))

	require.NoError(t, store.Delete(ctx, "mintA"))

	err := store.Delete(ctx, "mintA")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	list, err := store.ListOpen(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPositionStore_InvalidInput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPositionStore(pool)
	ctx := context.Background()

	assert.ErrorIs(t, store.Upsert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Upsert(ctx, &domain.Position{}), storage.ErrInvalidInput)
}
