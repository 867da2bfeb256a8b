// Package strategy turns copy signals and price moves into orders.
package strategy

import (
	"context"
	"fmt"
	"log"
	"sync"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/executor"
	"solana-copy-trader/internal/idhash"
	"solana-copy-trader/internal/position"
	"solana-copy-trader/internal/pricing"
	"solana-copy-trader/internal/storage"
)

// OpenPositionPolicy decides what to do with a copy signal for a mint
// that already has an open position.
type OpenPositionPolicy string

const (
	PolicyIgnore OpenPositionPolicy = "ignore"
	PolicyAdd    OpenPositionPolicy = "add"
)

// Config holds the trading parameters.
type Config struct {
	// BuyRatio scales the watched wallet's spend into ours.
	BuyRatio float64

	// MinBuy and MaxBuy clamp the copy amount, in lamports.
	MinBuy uint64
	MaxBuy uint64

	// TakeProfitPct and StopLossPct are fractional thresholds on
	// price/basis - 1, e.g. 0.5 means +50%, 0.2 means -20%.
	TakeProfitPct float64
	StopLossPct   float64

	OnOpenPosition OpenPositionPolicy
	SlippageBps    int
}

// Options configures an Engine.
type Options struct {
	Signals  <-chan domain.CopySignal
	Tracker  *position.Tracker
	Executor executor.Executor
	Prices   *pricing.Cache

	// Journal, when set, receives a best-effort record of every fill.
	Journal storage.FillJournal
	Logger  *log.Logger
	Config  Config
}

// Stats are cumulative order counters.
type Stats struct {
	BuysSubmitted  uint64
	SellsSubmitted uint64
	OrdersFailed   uint64
}

// Engine drives the copy and exit policies. Tick evaluates both; orders
// run in their own goroutines so a slow executor cannot stall the loop.
// A per-mint in-flight marker guarantees at most one pending order per
// mint: no duplicate sell can be emitted while one awaits confirmation.
type Engine struct {
	signals  <-chan domain.CopySignal
	tracker  *position.Tracker
	executor executor.Executor
	prices   *pricing.Cache
	journal  storage.FillJournal
	logger   *log.Logger
	cfg      Config

	mu       sync.Mutex
	inflight map[string]struct{}
	stats    Stats

	wg sync.WaitGroup
}

// NewEngine creates a strategy engine.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Signals == nil {
		return nil, fmt.Errorf("signal channel is required")
	}
	if opts.Tracker == nil || opts.Executor == nil || opts.Prices == nil {
		return nil, fmt.Errorf("tracker, executor and price cache are required")
	}
	cfg := opts.Config
	if cfg.OnOpenPosition == "" {
		cfg.OnOpenPosition = PolicyIgnore
	}
	if cfg.OnOpenPosition != PolicyIgnore && cfg.OnOpenPosition != PolicyAdd {
		return nil, fmt.Errorf("unknown open-position policy %q", cfg.OnOpenPosition)
	}

	return &Engine{
		signals:  opts.Signals,
		tracker:  opts.Tracker,
		executor: opts.Executor,
		prices:   opts.Prices,
		journal:  opts.Journal,
		logger:   opts.Logger,
		cfg:      cfg,
	}, nil
}

// Tick drains pending copy signals, then evaluates exits for every open
// position with a fresh price.
func (e *Engine) Tick(ctx context.Context) {
	e.drainSignals(ctx)
	e.evaluateExits(ctx)
}

// Wait blocks until all in-flight orders have returned.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Stats returns cumulative order counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// CopyAmount scales and clamps a watched wallet's spend.
func (e *Engine) CopyAmount(quoteAmount uint64) uint64 {
	amount := uint64(float64(quoteAmount) * e.cfg.BuyRatio)
	if amount < e.cfg.MinBuy {
		amount = e.cfg.MinBuy
	}
	if e.cfg.MaxBuy > 0 && amount > e.cfg.MaxBuy {
		amount = e.cfg.MaxBuy
	}
	return amount
}

func (e *Engine) drainSignals(ctx context.Context) {
	for {
		select {
		case sig := <-e.signals:
			e.handleSignal(ctx, sig)
		default:
			return
		}
	}
}

func (e *Engine) handleSignal(ctx context.Context, sig domain.CopySignal) {
	if e.cfg.OnOpenPosition == PolicyIgnore {
		if _, err := e.tracker.Get(sig.Mint); err == nil {
			e.logf("signal for %s ignored: position already open", sig.Mint)
			return
		}
	}

	amount := e.CopyAmount(sig.QuoteAmount)
	if amount == 0 {
		return
	}
	if !e.acquire(sig.Mint) {
		e.logf("signal for %s skipped: order in flight", sig.Mint)
		return
	}

	e.wg.Add(1)
	go e.submitBuy(ctx, sig, amount)
}

func (e *Engine) submitBuy(ctx context.Context, sig domain.CopySignal, amount uint64) {
	defer e.wg.Done()
	defer e.release(sig.Mint)

	r, err := e.executor.Buy(ctx, sig.Mint, amount, e.cfg.SlippageBps)
	if err != nil {
		e.countFailed()
		e.logf("buy %s for %d lamports: %v", sig.Mint, amount, err)
		return
	}
	e.countBuy()

	if _, err := e.tracker.OpenOrIncrease(ctx, r.Mint, r.BaseAmount, r.Price); err != nil {
		e.logf("record buy %s: %v", r.Mint, err)
		return
	}

	e.journalFill(ctx, &domain.Fill{
		FillID:      idhash.ComputeFillID(r.Mint, domain.SideBuy, domain.ReasonCopyTrade, r.Signature, r.Timestamp),
		Mint:        r.Mint,
		Side:        domain.SideBuy,
		Reason:      domain.ReasonCopyTrade,
		BaseAmount:  r.BaseAmount,
		QuoteAmount: r.QuoteAmount,
		Price:       r.Price,
		SourceTx:    sig.TxSignature,
		Timestamp:   r.Timestamp,
	})
	e.logf("copied %s: bought %d units for %d lamports", r.Mint, r.BaseAmount, r.QuoteAmount)
}

func (e *Engine) evaluateExits(ctx context.Context) {
	for _, p := range e.tracker.ListOpen() {
		price, ok := e.prices.Get(p.Mint)
		if !ok || p.CostBasis <= 0 {
			continue // no fresh price, hold until next tick
		}

		change := price.PriceSOL/p.CostBasis - 1
		var reason domain.TradeReason
		switch {
		case change >= e.cfg.TakeProfitPct:
			reason = domain.ReasonTakeProfit
		case change <= -e.cfg.StopLossPct:
			reason = domain.ReasonStopLoss
		default:
			continue
		}

		if !e.acquire(p.Mint) {
			continue // a sell is already pending for this mint
		}

		e.wg.Add(1)
		go e.submitSell(ctx, p.Mint, p.Quantity, reason)
	}
}

func (e *Engine) submitSell(ctx context.Context, mint string, quantity uint64, reason domain.TradeReason) {
	defer e.wg.Done()
	defer e.release(mint)

	r, err := e.executor.Sell(ctx, mint, quantity, e.cfg.SlippageBps)
	if err != nil {
		e.countFailed()
		e.logf("sell %s (%s): %v", mint, reason, err)
		return
	}
	e.countSell()

	pnl, err := e.tracker.DecreaseOrClose(ctx, r.Mint, r.BaseAmount, r.Price)
	if err != nil {
		e.logf("record sell %s: %v", r.Mint, err)
		return
	}

	e.journalFill(ctx, &domain.Fill{
		FillID:      idhash.ComputeFillID(r.Mint, domain.SideSell, reason, r.Signature, r.Timestamp),
		Mint:        r.Mint,
		Side:        domain.SideSell,
		Reason:      reason,
		BaseAmount:  r.BaseAmount,
		QuoteAmount: r.QuoteAmount,
		Price:       r.Price,
		RealizedPnL: &pnl,
		Timestamp:   r.Timestamp,
	})
	e.logf("%s %s: sold %d units for %d lamports, pnl %g", reason, r.Mint, r.BaseAmount, r.QuoteAmount, pnl)
}

func (e *Engine) journalFill(ctx context.Context, f *domain.Fill) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Insert(ctx, f); err != nil {
		e.logf("journal fill %s: %v", f.FillID, err)
	}
}

func (e *Engine) acquire(mint string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inflight[mint]; busy {
		return false
	}
	if e.inflight == nil {
		e.inflight = make(map[string]struct{})
	}
	e.inflight[mint] = struct{}{}
	return true
}

func (e *Engine) release(mint string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, mint)
}

func (e *Engine) countBuy() {
	e.mu.Lock()
	e.stats.BuysSubmitted++
	e.mu.Unlock()
}

func (e *Engine) countSell() {
	e.mu.Lock()
	e.stats.SellsSubmitted++
	e.mu.Unlock()
}

func (e *Engine) countFailed() {
	e.mu.Lock()
	e.stats.OrdersFailed++
	e.mu.Unlock()
}

func (e *Engine) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Printf("[strategy] "+format, args...)
	}
}
