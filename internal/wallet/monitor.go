// Package wallet polls watched wallets and emits copy signals for their buys.
package wallet

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"solana-copy-trader/internal/dex"
	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/solana"
)

// Source is the RPC surface the monitor polls.
type Source interface {
	GetTransaction(ctx context.Context, signature string) (*solana.Transaction, error)
	GetSignaturesForAddress(ctx context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error)
}

// Default tuning.
const (
	DefaultSignalBuffer = 256
	DefaultBatchLimit   = 50
	DefaultSeenTTL      = 24 * time.Hour
)

// Options configures a Monitor.
type Options struct {
	RPC      Source
	Registry *dex.Registry
	Logger   *log.Logger

	// MinCopyAmount filters out buys below this many lamports.
	MinCopyAmount uint64

	// SignalBuffer is the emitted-signal channel capacity. When the
	// consumer lags, signals are dropped and counted, never blocked on.
	SignalBuffer int

	// BatchLimit caps signatures fetched per wallet per tick.
	BatchLimit int
}

// Monitor tracks a set of wallets and converts their on-chain buys into
// copy signals. Polling is pull-based: the owner calls Tick on its own
// schedule. All methods are safe for concurrent use.
type Monitor struct {
	rpc        Source
	registry   *dex.Registry
	logger     *log.Logger
	minCopy    uint64
	batchLimit int

	signals chan domain.CopySignal

	mu      sync.Mutex
	watched map[string]struct{}
	cursor  map[string]string // wallet -> newest processed signature
	seen    map[string]int64  // signature -> first-seen unix ms
	dropped uint64
}

// NewMonitor creates a wallet monitor.
func NewMonitor(opts Options) (*Monitor, error) {
	if opts.RPC == nil {
		return nil, errors.New("rpc source is required")
	}
	if opts.Registry == nil {
		return nil, errors.New("dex registry is required")
	}
	buffer := opts.SignalBuffer
	if buffer <= 0 {
		buffer = DefaultSignalBuffer
	}
	batch := opts.BatchLimit
	if batch <= 0 {
		batch = DefaultBatchLimit
	}

	return &Monitor{
		rpc:        opts.RPC,
		registry:   opts.Registry,
		logger:     opts.Logger,
		minCopy:    opts.MinCopyAmount,
		batchLimit: batch,
		signals:    make(chan domain.CopySignal, buffer),
		watched:    make(map[string]struct{}),
		cursor:     make(map[string]string),
		seen:       make(map[string]int64),
	}, nil
}

// Signals returns the channel of emitted copy signals.
func (m *Monitor) Signals() <-chan domain.CopySignal {
	return m.signals
}

// Watch adds a wallet to the watched set. Idempotent.
func (m *Monitor) Watch(wallet string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watched[wallet] = struct{}{}
}

// Unwatch removes a wallet and its polling cursor.
func (m *Monitor) Unwatch(wallet string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.watched, wallet)
	delete(m.cursor, wallet)
}

// Watched returns the watched wallets in sorted order.
func (m *Monitor) Watched() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.watched))
	for w := range m.watched {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Dropped returns how many signals were discarded on a full channel.
func (m *Monitor) Dropped() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}

// Tick polls every watched wallet once. A failing wallet is logged and
// skipped; it does not affect the others.
func (m *Monitor) Tick(ctx context.Context) {
	for _, wallet := range m.Watched() {
		if err := m.pollWallet(ctx, wallet); err != nil {
			m.logf("poll wallet %s: %v", wallet, err)
		}
	}
}

// pollWallet fetches new signatures since the wallet's cursor and emits
// at most one signal per qualifying transaction.
func (m *Monitor) pollWallet(ctx context.Context, wallet string) error {
	m.mu.Lock()
	until := m.cursor[wallet]
	m.mu.Unlock()

	sigs, err := m.rpc.GetSignaturesForAddress(ctx, wallet, &solana.SignaturesOpts{
		Until: until,
		Limit: m.batchLimit,
	})
	if err != nil {
		return err
	}
	if len(sigs) == 0 {
		return nil
	}

	// RPC returns newest-first; advance the cursor before processing so
	// a mid-batch failure cannot replay the whole batch forever. The
	// seen set covers signatures we then skip.
	m.mu.Lock()
	m.cursor[wallet] = sigs[0].Signature
	m.mu.Unlock()

	// Process oldest-first to preserve on-chain order.
	for i := len(sigs) - 1; i >= 0; i-- {
		info := sigs[i]
		if info.Err != nil {
			continue
		}
		if !m.markSeen(info.Signature) {
			continue
		}

		tx, err := m.rpc.GetTransaction(ctx, info.Signature)
		if err != nil {
			m.logf("get transaction %s: %v", info.Signature, err)
			continue
		}
		if tx == nil || tx.Failed() {
			continue
		}

		m.emitFromTransaction(wallet, tx)
	}

	return nil
}

// emitFromTransaction decodes a transaction and emits the first
// qualifying buy by the watched wallet, if any.
func (m *Monitor) emitFromTransaction(wallet string, tx *solana.Transaction) {
	events, err := m.registry.Decode(tx)
	if err != nil {
		return // not a swap on a registered protocol
	}

	for _, ev := range events {
		if ev.Side != domain.SideBuy || ev.Wallet != wallet {
			continue
		}
		if ev.QuoteAmount < m.minCopy {
			continue
		}

		m.emit(domain.CopySignal{
			Wallet:      wallet,
			Mint:        ev.Mint,
			Protocol:    ev.Protocol,
			QuoteAmount: ev.QuoteAmount,
			TxSignature: tx.Signature,
			Timestamp:   ev.Timestamp,
		})
		return
	}
}

func (m *Monitor) emit(sig domain.CopySignal) {
	select {
	case m.signals <- sig:
	default:
		m.mu.Lock()
		m.dropped++
		m.mu.Unlock()
		m.logf("signal channel full, dropped signal for mint %s", sig.Mint)
	}
}

// markSeen records a signature, returning false if it was already seen.
func (m *Monitor) markSeen(signature string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.seen[signature]; ok {
		return false
	}
	m.seen[signature] = time.Now().UnixMilli()
	return true
}

// SweepSeen evicts seen-set entries older than maxAge as of nowMs and
// returns the number evicted.
func (m *Monitor) SweepSeen(nowMs int64, maxAge time.Duration) int {
	cutoff := nowMs - maxAge.Milliseconds()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for sig, ts := range m.seen {
		if ts < cutoff {
			delete(m.seen, sig)
			removed++
		}
	}
	return removed
}

func (m *Monitor) logf(format string, args ...any) {
	if m.logger != nil {
		m.logger.Printf("[wallet] "+format, args...)
	}
}
