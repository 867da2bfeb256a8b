// Package orchestrator wires the feed, wallet, strategy and cleanup
// subsystems and manages their lifecycles.
package orchestrator

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"solana-copy-trader/internal/dex"
	"solana-copy-trader/internal/observability"
	"solana-copy-trader/internal/position"
	"solana-copy-trader/internal/pricing"
	"solana-copy-trader/internal/solana"
	"solana-copy-trader/internal/strategy"
	"solana-copy-trader/internal/txlog"
	"solana-copy-trader/internal/wallet"
)

// Default loop intervals.
const (
	DefaultDEXPollInterval    = 5 * time.Second
	DefaultWalletPollInterval = 10 * time.Second
	DefaultStrategyInterval   = 10 * time.Second
	DefaultCleanupInterval    = 30 * time.Second
	DefaultFeedBatchLimit     = 100
)

// Options for creating an Orchestrator.
type Options struct {
	RPC      solana.RPCClient
	WS       solana.WSClient // optional: when set, the DEX feed streams instead of polling
	Registry *dex.Registry
	Cache    *pricing.Cache
	TxLog    *txlog.Log
	Monitor  *wallet.Monitor
	Engine   *strategy.Engine
	Tracker  *position.Tracker
	Logger   *log.Logger

	DEXPollInterval    time.Duration
	WalletPollInterval time.Duration
	StrategyInterval   time.Duration
	CleanupInterval    time.Duration
	SeenTTL            time.Duration

	// FeedBatchLimit caps signatures fetched per program per poll.
	FeedBatchLimit int
}

// Status is a point-in-time snapshot of the engine.
type Status struct {
	DEXRunning     bool           `json:"dex_running"`
	WalletsRunning bool           `json:"wallets_running"`
	CoreRunning    bool           `json:"core_running"`
	EventsDecoded  uint64         `json:"events_decoded"`
	DecodeErrors   uint64         `json:"decode_errors"`
	PriceCount     int            `json:"price_count"`
	TxLogSize      int            `json:"txlog_size"`
	OpenPositions  int            `json:"open_positions"`
	WatchedWallets []string       `json:"watched_wallets"`
	SignalsDropped uint64         `json:"signals_dropped"`
	Orders         strategy.Stats `json:"orders"`
}

// subsystem is an independently stoppable group of goroutines.
type subsystem struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Orchestrator coordinates the live trading loops. The DEX feed, wallet
// monitoring, and the strategy/cleanup core start and stop independently;
// Stop is idempotent and waits for in-flight work to drain.
type Orchestrator struct {
	rpc      solana.RPCClient
	ws       solana.WSClient
	registry *dex.Registry
	cache    *pricing.Cache
	txlog    *txlog.Log
	monitor  *wallet.Monitor
	engine   *strategy.Engine
	tracker  *position.Tracker
	logger   *log.Logger

	dexPollInterval    time.Duration
	walletPollInterval time.Duration
	strategyInterval   time.Duration
	cleanupInterval    time.Duration
	seenTTL            time.Duration
	feedBatchLimit     int

	mu      sync.Mutex
	dexSub  *subsystem
	walSub  *subsystem
	coreSub *subsystem

	feedCursor map[string]string // program -> newest processed signature

	eventsDecoded uint64
	decodeErrors  uint64
}

// New creates an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.RPC == nil || opts.Registry == nil || opts.Cache == nil || opts.TxLog == nil {
		return nil, errors.New("rpc, registry, cache and txlog are required")
	}
	if opts.Monitor == nil || opts.Engine == nil || opts.Tracker == nil {
		return nil, errors.New("monitor, engine and tracker are required")
	}

	o := &Orchestrator{
		rpc:                opts.RPC,
		ws:                 opts.WS,
		registry:           opts.Registry,
		cache:              opts.Cache,
		txlog:              opts.TxLog,
		monitor:            opts.Monitor,
		engine:             opts.Engine,
		tracker:            opts.Tracker,
		logger:             opts.Logger,
		dexPollInterval:    opts.DEXPollInterval,
		walletPollInterval: opts.WalletPollInterval,
		strategyInterval:   opts.StrategyInterval,
		cleanupInterval:    opts.CleanupInterval,
		seenTTL:            opts.SeenTTL,
		feedBatchLimit:     opts.FeedBatchLimit,
		feedCursor:         make(map[string]string),
	}
	if o.dexPollInterval <= 0 {
		o.dexPollInterval = DefaultDEXPollInterval
	}
	if o.walletPollInterval <= 0 {
		o.walletPollInterval = DefaultWalletPollInterval
	}
	if o.strategyInterval <= 0 {
		o.strategyInterval = DefaultStrategyInterval
	}
	if o.cleanupInterval <= 0 {
		o.cleanupInterval = DefaultCleanupInterval
	}
	if o.seenTTL <= 0 {
		o.seenTTL = wallet.DefaultSeenTTL
	}
	if o.feedBatchLimit <= 0 {
		o.feedBatchLimit = DefaultFeedBatchLimit
	}
	return o, nil
}

// Start brings up all subsystems.
func (o *Orchestrator) Start(ctx context.Context) {
	o.StartDEX(ctx)
	o.StartWallets(ctx)
	o.startCore(ctx)
}

// Stop shuts down all subsystems and waits for them. Idempotent.
func (o *Orchestrator) Stop() {
	o.StopDEX()
	o.StopWallets()
	o.stopCore()
	o.engine.Wait()
}

// StartDEX starts the DEX feed: one loop per registered protocol. No-op
// when already running.
func (o *Orchestrator) StartDEX(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.dexSub != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	sub := &subsystem{cancel: cancel}
	o.dexSub = sub

	for _, adapter := range o.registry.Adapters() {
		a := adapter
		sub.wg.Add(1)
		go func() {
			defer sub.wg.Done()
			if o.ws != nil {
				o.streamProgram(runCtx, a)
			} else {
				o.pollProgram(runCtx, a)
			}
		}()
	}
	o.logf("dex feed started (%d protocols, streaming=%t)", len(o.registry.Adapters()), o.ws != nil)
}

// StopDEX stops the DEX feed and waits for its loops. Idempotent.
func (o *Orchestrator) StopDEX() {
	o.mu.Lock()
	sub := o.dexSub
	o.dexSub = nil
	o.mu.Unlock()

	if sub == nil {
		return
	}
	sub.cancel()
	sub.wg.Wait()
	o.logf("dex feed stopped")
}

// StartWallets starts the wallet polling loop. No-op when already running.
func (o *Orchestrator) StartWallets(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.walSub != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	sub := &subsystem{cancel: cancel}
	o.walSub = sub

	sub.wg.Add(1)
	go func() {
		defer sub.wg.Done()
		ticker := time.NewTicker(o.walletPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				o.monitor.Tick(runCtx)
			}
		}
	}()
	o.logf("wallet monitoring started")
}

// StopWallets stops the wallet loop and waits for it. Idempotent.
func (o *Orchestrator) StopWallets() {
	o.mu.Lock()
	sub := o.walSub
	o.walSub = nil
	o.mu.Unlock()

	if sub == nil {
		return
	}
	sub.cancel()
	sub.wg.Wait()
	o.logf("wallet monitoring stopped")
}

// startCore starts the strategy and cleanup loops.
func (o *Orchestrator) startCore(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.coreSub != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	sub := &subsystem{cancel: cancel}
	o.coreSub = sub

	sub.wg.Add(1)
	go func() {
		defer sub.wg.Done()
		ticker := time.NewTicker(o.strategyInterval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				o.engine.Tick(runCtx)
			}
		}
	}()

	sub.wg.Add(1)
	go func() {
		defer sub.wg.Done()
		ticker := time.NewTicker(o.cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				o.runCleanup()
			}
		}
	}()
	o.logf("strategy and cleanup loops started")
}

// stopCore stops the strategy and cleanup loops. Idempotent.
func (o *Orchestrator) stopCore() {
	o.mu.Lock()
	sub := o.coreSub
	o.coreSub = nil
	o.mu.Unlock()

	if sub == nil {
		return
	}
	sub.cancel()
	sub.wg.Wait()
	o.logf("strategy and cleanup loops stopped")
}

// Status returns a snapshot of running state and counters.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	s := Status{
		DEXRunning:     o.dexSub != nil,
		WalletsRunning: o.walSub != nil,
		CoreRunning:    o.coreSub != nil,
		EventsDecoded:  o.eventsDecoded,
		DecodeErrors:   o.decodeErrors,
	}
	o.mu.Unlock()

	s.PriceCount = o.cache.Len()
	s.TxLogSize = o.txlog.Len()
	s.OpenPositions = o.tracker.Count()
	s.WatchedWallets = o.monitor.Watched()
	s.SignalsDropped = o.monitor.Dropped()
	s.Orders = o.engine.Stats()
	return s
}

// pollProgram polls a program's recent signatures on a ticker and runs
// each new transaction through the decode path.
func (o *Orchestrator) pollProgram(ctx context.Context, a dex.Adapter) {
	ticker := time.NewTicker(o.dexPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := o.pollOnce(ctx, a); err != nil {
				o.logf("poll %s: %v", a.Protocol(), err)
			}
		}
	}
}

func (o *Orchestrator) pollOnce(ctx context.Context, a dex.Adapter) error {
	program := a.ProgramID()

	o.mu.Lock()
	until := o.feedCursor[program]
	o.mu.Unlock()

	sigs, err := o.rpc.GetSignaturesForAddress(ctx, program, &solana.SignaturesOpts{
		Until: until,
		Limit: o.feedBatchLimit,
	})
	if err != nil {
		return err
	}
	if len(sigs) == 0 {
		return nil
	}

	o.mu.Lock()
	o.feedCursor[program] = sigs[0].Signature
	o.mu.Unlock()

	// Oldest-first so cache updates see timestamps in on-chain order.
	for i := len(sigs) - 1; i >= 0; i-- {
		if sigs[i].Err != nil {
			continue
		}
		tx, err := o.rpc.GetTransaction(ctx, sigs[i].Signature)
		if err != nil {
			o.logf("get transaction %s: %v", sigs[i].Signature, err)
			continue
		}
		if tx == nil || tx.Failed() {
			continue
		}
		o.ingest(tx)
	}
	return nil
}

// streamProgram consumes a logsSubscribe stream for the adapter's
// program, fetching each notified transaction for full decoding.
func (o *Orchestrator) streamProgram(ctx context.Context, a dex.Adapter) {
	notifications, err := o.ws.SubscribeLogs(ctx, solana.LogsFilter{
		Mentions: []string{a.ProgramID()},
	})
	if err != nil {
		o.logf("subscribe %s: %v, falling back to polling", a.Protocol(), err)
		o.pollProgram(ctx, a)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notifications:
			if !ok {
				o.logf("log stream for %s closed", a.Protocol())
				return
			}
			if n.Err != nil {
				continue
			}
			tx, err := o.rpc.GetTransaction(ctx, n.Signature)
			if err != nil {
				o.logf("get transaction %s: %v", n.Signature, err)
				continue
			}
			if tx == nil || tx.Failed() {
				continue
			}
			o.ingest(tx)
		}
	}
}

// ingest decodes a transaction, records its events and refreshes prices.
func (o *Orchestrator) ingest(tx *solana.Transaction) {
	events, err := o.registry.Decode(tx)
	if err != nil {
		// Mismatches and unrecognized payloads are routine on a live feed.
		if !errors.Is(err, dex.ErrProgramMismatch) && !errors.Is(err, dex.ErrUnrecognized) {
			o.logf("decode %s: %v", tx.Signature, err)
		}
		o.mu.Lock()
		o.decodeErrors++
		o.mu.Unlock()
		observability.RecordDecodeError(decodeReason(err))
		return
	}

	for _, ev := range events {
		o.txlog.Append(ev)
		o.mu.Lock()
		o.eventsDecoded++
		o.mu.Unlock()
		observability.RecordEventDecoded(string(ev.Protocol))

		price, err := pricing.Derive(ev)
		if err != nil {
			continue
		}
		if o.cache.Update(price) {
			observability.RecordPriceUpdate()
		}
	}
}

// runCleanup sweeps the price cache, the transaction log and the
// monitor's seen set, and refreshes gauges.
func (o *Orchestrator) runCleanup() {
	now := time.Now().UnixMilli()

	evictedPrices := o.cache.Sweep(now)
	evictedEvents := o.txlog.Sweep(now)
	evictedSeen := o.monitor.SweepSeen(now, o.seenTTL)

	observability.RecordSweep("prices", evictedPrices)
	observability.RecordSweep("txlog", evictedEvents)
	observability.RecordSweep("seen", evictedSeen)
	observability.UpdateFeedGauges(o.cache.Len(), o.txlog.Len())
	observability.UpdateTradingGauges(
		o.tracker.Count(),
		len(o.monitor.Watched()),
		o.monitor.Dropped(),
		o.tracker.RealizedPnL(),
	)

	if evictedPrices+evictedEvents+evictedSeen > 0 {
		o.logf("cleanup: evicted %d prices, %d events, %d seen entries",
			evictedPrices, evictedEvents, evictedSeen)
	}
}

func decodeReason(err error) string {
	switch {
	case errors.Is(err, dex.ErrProgramMismatch):
		return "program_mismatch"
	case errors.Is(err, dex.ErrUnrecognized):
		return "unrecognized"
	default:
		return "other"
	}
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.logger != nil {
		o.logger.Printf("[orchestrator] "+format, args...)
	}
}
