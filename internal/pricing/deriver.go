// Package pricing derives token prices from trade events and caches them.
package pricing

import (
	"errors"

	"solana-copy-trader/internal/domain"
)

// ErrDegenerateAmount is returned when a trade has a zero base amount and
// no price can be derived from it.
var ErrDegenerateAmount = errors.New("degenerate trade amount")

// Derive computes a price observation from a trade event. This is the only
// place native integer amounts are converted to floating point.
func Derive(ev domain.TradeEvent) (domain.TokenPrice, error) {
	if ev.BaseAmount == 0 {
		return domain.TokenPrice{}, ErrDegenerateAmount
	}

	return domain.TokenPrice{
		Mint:      ev.Mint,
		PriceSOL:  float64(ev.QuoteAmount) / float64(ev.BaseAmount),
		Timestamp: ev.Timestamp,
		Source:    ev.Protocol,
	}, nil
}
