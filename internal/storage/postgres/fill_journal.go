package postgres

import (
	"context"
	"fmt"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

// FillJournal implements storage.FillJournal using PostgreSQL.
type FillJournal struct {
	pool *Pool
}

// NewFillJournal creates a new FillJournal.
func NewFillJournal(pool *Pool) *FillJournal {
	return &FillJournal{pool: pool}
}

// Compile-time interface check.
var _ storage.FillJournal = (*FillJournal)(nil)

// Insert appends a fill. Returns ErrDuplicateKey if fill_id exists.
func (s *FillJournal) Insert(ctx context.Context, f *domain.Fill) error {
	if f == nil || f.FillID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO fills (
			fill_id, mint, side, reason, base_amount, quote_amount, price, source_tx, realized_pnl, ts
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		f.FillID,
		f.Mint,
		string(f.Side),
		string(f.Reason),
		int64(f.BaseAmount),
		int64(f.QuoteAmount),
		f.Price,
		f.SourceTx,
		f.RealizedPnL,
		f.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert fill: %w", err)
	}
	return nil
}

// ListByMint returns fills for a mint, oldest-first.
func (s *FillJournal) ListByMint(ctx context.Context, mint string) ([]*domain.Fill, error) {
	query := `
		SELECT fill_id, mint, side, reason, base_amount, quote_amount, price, source_tx, realized_pnl, ts
		FROM fills
		WHERE mint = $1
		ORDER BY ts ASC, fill_id ASC
	`

	rows, err := s.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("list fills by mint: %w", err)
	}
	defer rows.Close()

	var fills []*domain.Fill
	for rows.Next() {
		var f domain.Fill
		var sideStr, reasonStr string
		var baseAmount, quoteAmount int64

		err := rows.Scan(
			&f.FillID,
			&f.Mint,
			&sideStr,
			&reasonStr,
			&baseAmount,
			&quoteAmount,
			&f.Price,
			&f.SourceTx,
			&f.RealizedPnL,
			&f.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan fill row: %w", err)
		}

		f.Side = domain.Side(sideStr)
		f.Reason = domain.TradeReason(reasonStr)
		f.BaseAmount = uint64(baseAmount)
		f.QuoteAmount = uint64(quoteAmount)
		fills = append(fills, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fill rows: %w", err)
	}

	return fills, nil
}
