package executor

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"solana-copy-trader/internal/pricing"
)

// Paper is a simulated executor that fills instantly at the cached
// price, with no slippage or fees. Orders for mints without a fresh
// price fail with ErrNoPrice.
type Paper struct {
	prices *pricing.Cache
	logger *log.Logger
	seq    atomic.Uint64
}

// NewPaper creates a paper-trading executor backed by a price cache.
func NewPaper(prices *pricing.Cache, logger *log.Logger) *Paper {
	return &Paper{prices: prices, logger: logger}
}

var _ Executor = (*Paper)(nil)

// Buy fills a buy at the cached price: tokens = lamports / price.
func (p *Paper) Buy(_ context.Context, mint string, quoteAmount uint64, _ int) (*Receipt, error) {
	price, ok := p.prices.Get(mint)
	if !ok || price.PriceSOL <= 0 {
		return nil, fmt.Errorf("buy %s: %w", mint, ErrNoPrice)
	}

	baseAmount := baseForQuote(quoteAmount, price.PriceSOL)
	r := p.receipt(mint, baseAmount, quoteAmount, price.PriceSOL)
	p.logf("paper buy %s: %d lamports -> %d units @ %g", mint, quoteAmount, baseAmount, price.PriceSOL)
	return r, nil
}

// Sell fills a sell at the cached price: lamports = tokens * price.
func (p *Paper) Sell(_ context.Context, mint string, baseAmount uint64, _ int) (*Receipt, error) {
	price, ok := p.prices.Get(mint)
	if !ok || price.PriceSOL <= 0 {
		return nil, fmt.Errorf("sell %s: %w", mint, ErrNoPrice)
	}

	quoteAmount := quoteForBase(baseAmount, price.PriceSOL)
	r := p.receipt(mint, baseAmount, quoteAmount, price.PriceSOL)
	p.logf("paper sell %s: %d units -> %d lamports @ %g", mint, baseAmount, quoteAmount, price.PriceSOL)
	return r, nil
}

func (p *Paper) receipt(mint string, base, quote uint64, price float64) *Receipt {
	return &Receipt{
		Signature:   fmt.Sprintf("paper-%d-%s", p.seq.Add(1), mint),
		Mint:        mint,
		BaseAmount:  base,
		QuoteAmount: quote,
		Price:       price,
		Timestamp:   time.Now().UnixMilli(),
	}
}

func (p *Paper) logf(format string, args ...any) {
	if p.logger != nil {
		p.logger.Printf("[executor] "+format, args...)
	}
}
