// Package executor places buy and sell orders.
package executor

import (
	"context"
	"errors"
)

// ErrNoPrice is returned when no fresh price exists to fill against.
var ErrNoPrice = errors.New("no fresh price for mint")

// Receipt describes a completed order.
type Receipt struct {
	Signature   string
	Mint        string
	BaseAmount  uint64  // raw token units filled
	QuoteAmount uint64  // lamports paid or received
	Price       float64 // lamports per raw token unit
	Timestamp   int64   // unix milliseconds
}

// Executor submits orders to a venue. Implementations must be safe for
// concurrent use; the strategy engine submits from multiple goroutines.
type Executor interface {
	// Buy spends quoteAmount lamports on mint, tolerating at most
	// slippageBps basis points of price movement.
	Buy(ctx context.Context, mint string, quoteAmount uint64, slippageBps int) (*Receipt, error)

	// Sell disposes baseAmount raw token units of mint.
	Sell(ctx context.Context, mint string, baseAmount uint64, slippageBps int) (*Receipt, error)
}

// amount helpers shared by implementations

func baseForQuote(quote uint64, price float64) uint64 {
	if price <= 0 {
		return 0
	}
	base := uint64(float64(quote) / price)
	if base == 0 {
		base = 1
	}
	return base
}

func quoteForBase(base uint64, price float64) uint64 {
	return uint64(float64(base) * price)
}
