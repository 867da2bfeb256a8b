package memory

import (
	"context"
	"errors"
	"testing"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

func TestFillJournal_InsertAndList(t *testing.T) {
	s := NewFillJournal()
	ctx := context.Background()

	fills := []*domain.Fill{
		{FillID: "f2", Mint: "mintA", Side: domain.SideSell, Reason: domain.ReasonTakeProfit, Timestamp: 2000},
		{FillID: "f1", Mint: "mintA", Side: domain.SideBuy, Reason: domain.ReasonCopyTrade, Timestamp: 1000},
		{FillID: "f3", Mint: "mintB", Side: domain.SideBuy, Reason: domain.ReasonCopyTrade, Timestamp: 1500},
	}
	for _, f := range fills {
		if err := s.Insert(ctx, f); err != nil {
			t.Fatalf("Insert %s: %v", f.FillID, err)
		}
	}

	got, err := s.ListByMint(ctx, "mintA")
	if err != nil {
		t.Fatalf("ListByMint: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 fills for mintA, got %d", len(got))
	}
	if got[0].FillID != "f1" || got[1].FillID != "f2" {
		t.Errorf("expected oldest-first ordering, got %s, %s", got[0].FillID, got[1].FillID)
	}
}

func TestFillJournal_Duplicate(t *testing.T) {
	s := NewFillJournal()
	ctx := context.Background()

	f := &domain.Fill{FillID: "f1", Mint: "mintA"}
	if err := s.Insert(ctx, f); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Insert(ctx, f); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestFillJournal_InvalidInput(t *testing.T) {
	s := NewFillJournal()
	ctx := context.Background()

	if err := s.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil, got %v", err)
	}
	if err := s.Insert(ctx, &domain.Fill{Mint: "m"}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty fill id, got %v", err)
	}
}
