// Package storage defines persistence interfaces and their sentinel errors.
package storage

import (
	"context"

	"solana-copy-trader/internal/domain"
)

// PositionStore persists open positions so a restart does not lose live
// state. The in-memory tracker remains authoritative while running.
type PositionStore interface {
	// Upsert inserts or replaces the position for its mint.
	Upsert(ctx context.Context, p *domain.Position) error

	// Delete removes the position for a mint. Returns ErrNotFound if absent.
	Delete(ctx context.Context, mint string) error

	// ListOpen returns all persisted positions.
	ListOpen(ctx context.Context) ([]*domain.Position, error)
}

// FillJournal records executed orders for audit.
type FillJournal interface {
	// Insert appends a fill. Returns ErrDuplicateKey if the fill ID exists.
	Insert(ctx context.Context, f *domain.Fill) error

	// ListByMint returns fills for a mint, oldest-first.
	ListByMint(ctx context.Context, mint string) ([]*domain.Fill, error)
}
