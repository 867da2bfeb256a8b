package memory

import (
	"context"
	"errors"
	"testing"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

func TestPositionStore_UpsertAndList(t *testing.T) {
	s := NewPositionStore()
	ctx := context.Background()

	p := &domain.Position{Mint: "mintB", Quantity: 100, CostBasis: 1.5, OpenedAt: 1000, UpdatedAt: 1000}
	if err := s.Upsert(ctx, p); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert(ctx, &domain.Position{Mint: "mintA", Quantity: 50, CostBasis: 2.0}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// Mutating the original must not affect the stored copy
	p.Quantity = 999

	list, err := s.ListOpen(ctx)
	if err != nil {
		t.Fatalf("ListOpen: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(list))
	}
	if list[0].Mint != "mintA" || list[1].Mint != "mintB" {
		t.Errorf("expected mint-ordered output, got %s, %s", list[0].Mint, list[1].Mint)
	}
	if list[1].Quantity != 100 {
		t.Errorf("stored copy mutated: quantity %d", list[1].Quantity)
	}
}

func TestPositionStore_UpsertReplaces(t *testing.T) {
	s := NewPositionStore()
	ctx := context.Background()

	s.Upsert(ctx, &domain.Position{Mint: "mintA", Quantity: 10, CostBasis: 1.0})
	s.Upsert(ctx, &domain.Position{Mint: "mintA", Quantity: 20, CostBasis: 2.0})

	list, _ := s.ListOpen(ctx)
	if len(list) != 1 {
		t.Fatalf("expected 1 position, got %d", len(list))
	}
	if list[0].Quantity != 20 || list[0].CostBasis != 2.0 {
		t.Errorf("expected replaced position, got %+v", list[0])
	}
}

func TestPositionStore_Delete(t *testing.T) {
	s := NewPositionStore()
	ctx := context.Background()

	s.Upsert(ctx, &domain.Position{Mint: "mintA", Quantity: 10})

	if err := s.Delete(ctx, "mintA"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "mintA"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPositionStore_InvalidInput(t *testing.T) {
	s := NewPositionStore()
	ctx := context.Background()

	if err := s.Upsert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil, got %v", err)
	}
	if err := s.Upsert(ctx, &domain.Position{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty mint, got %v", err)
	}
}
