package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

func TestFillJournal_InsertAndList(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	journal := NewFillJournal(pool)
	ctx := context.Background()

	fills := []*domain.Fill{
		{
			FillID:      "f2",
			Mint:        "mintA",
			Side:        domain.SideSell,
			Reason:      domain.ReasonTakeProfit,
			BaseAmount:  1_000,
			QuoteAmount: 3_000_000_000,
			Price:       3_000_000.0,
			RealizedPnL: ptr(1_000_000.0),
			Timestamp:   2000,
		},
		{
			FillID:      "f1",
			Mint:        "mintA",
			Side:        domain.SideBuy,
			Reason:      domain.ReasonCopyTrade,
			BaseAmount:  1_000,
			QuoteAmount: 2_000_000_000,
			Price:       2_000_000.0,
			SourceTx:    "sig1",
			Timestamp:   1000,
		},
		{
			FillID:    "f3",
			Mint:      "mintB",
			Side:      domain.SideBuy,
			Reason:    domain.ReasonCopyTrade,
			Timestamp: 1500,
		},
	}
	for _, f := range fills {
		require.NoError(t, journal.Insert(ctx, f), "insert %s", f.FillID)
	}

	got, err := journal.ListByMint(ctx, "mintA")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "f1", got[0].FillID)
	assert.Equal(t, "f2", got[1].FillID)
	assert.Equal(t, domain.SideBuy, got[0].Side)
	assert.Equal(t, domain.ReasonCopyTrade, got[0].Reason)
	assert.Equal(t, "sig1", got[0].SourceTx)
	assert.Nil(t, got[0].RealizedPnL)
	require.NotNil(t, got[1].RealizedPnL)
	assert.Equal(t, 1_000_000.0, *got[1].RealizedPnL)
}

func TestFillJournal_Duplicate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	journal := NewFillJournal(pool)
	ctx := context.Background()

	f := &domain.Fill{FillID: "f1", Mint: "mintA", Side: domain.SideBuy, Reason: domain.ReasonCopyTrade}
	require.NoError(t, journal.Insert(ctx, f))

	err := journal.Insert(ctx, f)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestFillJournal_InvalidInput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	journal := NewFillJournal(pool)
	ctx := context.Background()

	assert.ErrorIs(t, journal.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, journal.Insert(ctx, &domain.Fill{Mint: "m"}), storage.ErrInvalidInput)
}
