package postgres

import (
	"context"
	"fmt"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

// PositionStore implements storage.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *Pool
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(pool *Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

// Upsert inserts or replaces the position for a mint.
func (s *PositionStore) Upsert(ctx context.Context, p *domain.Position) error {
	if p == nil || p.Mint == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO positions (mint, quantity, cost_basis, opened_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (mint) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			cost_basis = EXCLUDED.cost_basis,
			opened_at = EXCLUDED.opened_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		p.Mint,
		int64(p.Quantity),
		p.CostBasis,
		p.OpenedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert position: %w", err)
	}
	return nil
}

// Delete removes the position for a mint. Returns ErrNotFound if absent.
func (s *PositionStore) Delete(ctx context.Context, mint string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM positions WHERE mint = $1`, mint)
	if err != nil {
		return fmt.Errorf("delete position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListOpen returns all stored positions ordered by mint.
func (s *PositionStore) ListOpen(ctx context.Context) ([]*domain.Position, error) {
	query := `
		SELECT mint, quantity, cost_basis, opened_at, updated_at
		FROM positions
		ORDER BY mint ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	var positions []*domain.Position
	for rows.Next() {
		var p domain.Position
		var quantity int64

		err := rows.Scan(&p.Mint, &quantity, &p.CostBasis, &p.OpenedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan position row: %w", err)
		}

		p.Quantity = uint64(quantity)
		positions = append(positions, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate position rows: %w", err)
	}

	return positions, nil
}
