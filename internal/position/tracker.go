// Package position tracks open token positions and realized profit.
package position

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

var (
	// ErrNotFound is returned when no position exists for a mint.
	ErrNotFound = errors.New("position not found")
	// ErrInsufficientQuantity is returned when a decrease exceeds the held quantity.
	ErrInsufficientQuantity = errors.New("insufficient position quantity")
	// ErrInvalidAmount is returned for zero-quantity operations.
	ErrInvalidAmount = errors.New("invalid amount")
)

// Options configures a Tracker.
type Options struct {
	// Store, when set, receives a best-effort durable copy of every
	// position change. Store failures are logged, never propagated.
	Store  storage.PositionStore
	Logger *log.Logger
}

// Tracker maintains the set of open positions keyed by mint.
// All methods are safe for concurrent use.
type Tracker struct {
	mu        sync.RWMutex
	positions map[string]*domain.Position

	realizedPnL float64

	store  storage.PositionStore
	logger *log.Logger
}

// NewTracker creates an empty position tracker.
func NewTracker(opts Options) *Tracker {
	return &Tracker{
		positions: make(map[string]*domain.Position),
		store:     opts.Store,
		logger:    opts.Logger,
	}
}

// Restore loads open positions from the configured store, replacing
// the in-memory state. No-op when no store is configured.
func (t *Tracker) Restore(ctx context.Context) error {
	if t.store == nil {
		return nil
	}

	list, err := t.store.ListOpen(ctx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.positions = make(map[string]*domain.Position, len(list))
	for _, p := range list {
		copy := *p
		t.positions[p.Mint] = &copy
	}

	t.logf("restored %d open positions", len(list))
	return nil
}

// OpenOrIncrease adds quantity to the position for mint, opening it if
// absent. Cost basis is the quantity-weighted average of the old basis
// and the new price. Returns the updated position.
func (t *Tracker) OpenOrIncrease(ctx context.Context, mint string, quantity uint64, price float64) (*domain.Position, error) {
	if quantity == 0 {
		return nil, ErrInvalidAmount
	}

	now := time.Now().UnixMilli()

	t.mu.Lock()
	p, ok := t.positions[mint]
	if !ok {
		p = &domain.Position{
			Mint:      mint,
			Quantity:  quantity,
			CostBasis: price,
			OpenedAt:  now,
			UpdatedAt: now,
		}
		t.positions[mint] = p
	} else {
		oldQty := float64(p.Quantity)
		newQty := float64(quantity)
		p.CostBasis = (p.CostBasis*oldQty + price*newQty) / (oldQty + newQty)
		p.Quantity += quantity
		p.UpdatedAt = now
	}
	result := *p
	t.mu.Unlock()

	t.persist(ctx, &result)
	return &result, nil
}

// DecreaseOrClose removes quantity from the position for mint at the
// given price and returns the realized profit in quote units. The
// operation is all-or-nothing: if quantity exceeds the held amount the
// position is left unchanged and ErrInsufficientQuantity is returned.
// Selling the full quantity closes the position.
func (t *Tracker) DecreaseOrClose(ctx context.Context, mint string, quantity uint64, price float64) (float64, error) {
	if quantity == 0 {
		return 0, ErrInvalidAmount
	}

	t.mu.Lock()
	p, ok := t.positions[mint]
	if !ok {
		t.mu.Unlock()
		return 0, ErrNotFound
	}
	if quantity > p.Quantity {
		t.mu.Unlock()
		return 0, ErrInsufficientQuantity
	}

	pnl := float64(quantity) * (price - p.CostBasis)
	t.realizedPnL += pnl

	closed := quantity == p.Quantity
	var snapshot domain.Position
	if closed {
		delete(t.positions, mint)
	} else {
		p.Quantity -= quantity
		p.UpdatedAt = time.Now().UnixMilli()
		snapshot = *p
	}
	t.mu.Unlock()

	if closed {
		t.remove(ctx, mint)
	} else {
		t.persist(ctx, &snapshot)
	}
	return pnl, nil
}

// Get returns a copy of the position for mint, or ErrNotFound.
func (t *Tracker) Get(mint string) (*domain.Position, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p, ok := t.positions[mint]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *p
	return &copy, nil
}

// ListOpen returns copies of all open positions ordered by mint.
func (t *Tracker) ListOpen() []*domain.Position {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]*domain.Position, 0, len(t.positions))
	for _, p := range t.positions {
		copy := *p
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Mint < result[j].Mint })
	return result
}

// Count returns the number of open positions.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.positions)
}

// RealizedPnL returns the cumulative realized profit in SOL.
func (t *Tracker) RealizedPnL() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.realizedPnL / float64(domain.LamportsPerSOL)
}

// Summary aggregates open positions for status reporting. priceOf
// supplies the current price for a mint (false when none is fresh);
// positions without a price are counted but excluded from unrealized.
func (t *Tracker) Summary(priceOf func(mint string) (float64, bool)) domain.PositionsSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := domain.PositionsSummary{OpenCount: len(t.positions)}
	for _, p := range t.positions {
		qty := float64(p.Quantity)
		s.TotalCostSOL += p.CostBasis * qty / float64(domain.LamportsPerSOL)
		if priceOf == nil {
			continue
		}
		if price, ok := priceOf(p.Mint); ok {
			s.UnrealizedSOL += qty * (price - p.CostBasis) / float64(domain.LamportsPerSOL)
			s.PricedCount++
		}
	}
	return s
}

func (t *Tracker) persist(ctx context.Context, p *domain.Position) {
	if t.store == nil {
		return
	}
	if err := t.store.Upsert(ctx, p); err != nil {
		t.logf("persist position %s: %v", p.Mint, err)
	}
}

func (t *Tracker) remove(ctx context.Context, mint string) {
	if t.store == nil {
		return
	}
	if err := t.store.Delete(ctx, mint); err != nil && !errors.Is(err, storage.ErrNotFound) {
		t.logf("delete position %s: %v", mint, err)
	}
}

func (t *Tracker) logf(format string, args ...any) {
	if t.logger != nil {
		t.logger.Printf("[position] "+format, args...)
	}
}
