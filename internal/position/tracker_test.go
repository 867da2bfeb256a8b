package position

import (
	"context"
	"errors"
	"math"
	"testing"

	"solana-copy-trader/internal/storage/memory"
)

func TestTracker_WeightedBasis(t *testing.T) {
	tr := NewTracker(Options{})
	ctx := context.Background()

	if _, err := tr.OpenOrIncrease(ctx, "mintA", 10, 1.0); err != nil {
		t.Fatalf("OpenOrIncrease: %v", err)
	}
	p, err := tr.OpenOrIncrease(ctx, "mintA", 10, 3.0)
	if err != nil {
		t.Fatalf("OpenOrIncrease: %v", err)
	}

	if p.Quantity != 20 {
		t.Errorf("expected quantity 20, got %d", p.Quantity)
	}
	if math.Abs(p.CostBasis-2.0) > 1e-9 {
		t.Errorf("expected weighted basis 2.0, got %g", p.CostBasis)
	}
}

func TestTracker_DecreaseRealizesPnL(t *testing.T) {
	tr := NewTracker(Options{})
	ctx := context.Background()

	tr.OpenOrIncrease(ctx, "mintA", 100, 2.0)

	pnl, err := tr.DecreaseOrClose(ctx, "mintA", 40, 3.5)
	if err != nil {
		t.Fatalf("DecreaseOrClose: %v", err)
	}
	if math.Abs(pnl-60.0) > 1e-9 {
		t.Errorf("expected pnl 60, got %g", pnl)
	}

	p, err := tr.Get("mintA")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Quantity != 60 {
		t.Errorf("expected remaining quantity 60, got %d", p.Quantity)
	}
	if math.Abs(p.CostBasis-2.0) > 1e-9 {
		t.Errorf("basis must not change on decrease, got %g", p.CostBasis)
	}
}

func TestTracker_FullSellCloses(t *testing.T) {
	tr := NewTracker(Options{})
	ctx := context.Background()

	tr.OpenOrIncrease(ctx, "mintA", 50, 1.0)

	if _, err := tr.DecreaseOrClose(ctx, "mintA", 50, 1.2); err != nil {
		t.Fatalf("DecreaseOrClose: %v", err)
	}
	if _, err := tr.Get("mintA"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after close, got %v", err)
	}
	if tr.Count() != 0 {
		t.Errorf("expected 0 open positions, got %d", tr.Count())
	}
}

func TestTracker_InsufficientQuantityUnchanged(t *testing.T) {
	tr := NewTracker(Options{})
	ctx := context.Background()

	tr.OpenOrIncrease(ctx, "mintA", 10, 2.0)

	_, err := tr.DecreaseOrClose(ctx, "mintA", 11, 3.0)
	if !errors.Is(err, ErrInsufficientQuantity) {
		t.Fatalf("expected ErrInsufficientQuantity, got %v", err)
	}

	p, err := tr.Get("mintA")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Quantity != 10 || p.CostBasis != 2.0 {
		t.Errorf("position must be unchanged after rejected sell, got %+v", p)
	}
}

func TestTracker_UnknownMint(t *testing.T) {
	tr := NewTracker(Options{})
	ctx := context.Background()

	if _, err := tr.DecreaseOrClose(ctx, "missing", 1, 1.0); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := tr.OpenOrIncrease(ctx, "mintA", 0, 1.0); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for zero quantity, got %v", err)
	}
}

func TestTracker_Summary(t *testing.T) {
	tr := NewTracker(Options{})
	ctx := context.Background()

	tr.OpenOrIncrease(ctx, "mintA", 1_000_000_000, 1.0)
	tr.OpenOrIncrease(ctx, "mintB", 2_000_000_000, 2.0)

	prices := map[string]float64{"mintA": 1.5}
	s := tr.Summary(func(mint string) (float64, bool) {
		p, ok := prices[mint]
		return p, ok
	})

	if s.OpenCount != 2 {
		t.Errorf("expected 2 open, got %d", s.OpenCount)
	}
	if s.PricedCount != 1 {
		t.Errorf("expected 1 priced, got %d", s.PricedCount)
	}
	// mintA: 1e9 * (1.5 - 1.0) / 1e9 = 0.5 SOL unrealized
	if math.Abs(s.UnrealizedSOL-0.5) > 1e-9 {
		t.Errorf("expected unrealized 0.5 SOL, got %g", s.UnrealizedSOL)
	}
	// 1e9*1.0/1e9 + 2e9*2.0/1e9 = 5 SOL total cost
	if math.Abs(s.TotalCostSOL-5.0) > 1e-9 {
		t.Errorf("expected total cost 5 SOL, got %g", s.TotalCostSOL)
	}
}

func TestTracker_PersistAndRestore(t *testing.T) {
	store := memory.NewPositionStore()
	ctx := context.Background()

	tr := NewTracker(Options{Store: store})
	tr.OpenOrIncrease(ctx, "mintA", 100, 2.0)
	tr.OpenOrIncrease(ctx, "mintB", 50, 1.0)
	if _, err := tr.DecreaseOrClose(ctx, "mintB", 50, 1.5); err != nil {
		t.Fatalf("DecreaseOrClose: %v", err)
	}

	fresh := NewTracker(Options{Store: store})
	if err := fresh.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if fresh.Count() != 1 {
		t.Fatalf("expected 1 restored position, got %d", fresh.Count())
	}
	p, err := fresh.Get("mintA")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Quantity != 100 || p.CostBasis != 2.0 {
		t.Errorf("unexpected restored position: %+v", p)
	}
}
