// Package main runs the live copy-trading engine:
// - DEX feed: decode swaps into trade events and prices
// - Wallet monitoring: copy signals from watched wallets
// - Strategy: copy buys, take-profit / stop-loss exits (paper execution)
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"solana-copy-trader/internal/config"
	"solana-copy-trader/internal/dex"
	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/executor"
	"solana-copy-trader/internal/observability"
	"solana-copy-trader/internal/orchestrator"
	"solana-copy-trader/internal/position"
	"solana-copy-trader/internal/pricing"
	"solana-copy-trader/internal/solana"
	"solana-copy-trader/internal/storage"
	"solana-copy-trader/internal/storage/memory"
	pgstore "solana-copy-trader/internal/storage/postgres"
	"solana-copy-trader/internal/strategy"
	"solana-copy-trader/internal/txlog"
	"solana-copy-trader/internal/wallet"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("SOLANA_WS_ENDPOINT"), "Solana WebSocket endpoint (empty: poll instead of stream)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	protocols := flag.String("protocols", envOr("PROTOCOLS", "RAYDIUM_CPMM,PUMP_FUN,PUMP_SWAP,BONK"), "Comma-separated DEX protocols to monitor")
	wallets := flag.String("wallets", os.Getenv("WATCHED_WALLETS"), "Comma-separated wallet addresses to copy")

	buyRatio := flag.Float64("buy-ratio", 0.5, "Fraction of the watched wallet's spend to copy")
	minBuySOL := flag.Float64("min-buy-sol", 0.01, "Minimum copy buy in SOL")
	maxBuySOL := flag.Float64("max-buy-sol", 1.0, "Maximum copy buy in SOL")
	minCopySOL := flag.Float64("min-copy-sol", 0.1, "Ignore watched buys below this many SOL")
	takeProfit := flag.Float64("take-profit", 0.5, "Take-profit threshold (0.5 = +50%)")
	stopLoss := flag.Float64("stop-loss", 0.2, "Stop-loss threshold (0.2 = -20%)")
	onOpenPosition := flag.String("on-open-position", "ignore", "Signal policy for already-open positions (ignore|add)")
	slippageBps := flag.Int("slippage-bps", 100, "Order slippage tolerance in basis points")

	dexPollInterval := flag.Duration("dex-poll-interval", 5*time.Second, "DEX signature poll interval")
	walletPollInterval := flag.Duration("wallet-poll-interval", 10*time.Second, "Wallet poll interval")
	strategyInterval := flag.Duration("strategy-interval", 10*time.Second, "Strategy evaluation interval")
	cleanupInterval := flag.Duration("cleanup-interval", 30*time.Second, "Cleanup sweep interval")
	priceTTL := flag.Duration("price-ttl", time.Minute, "Price cache freshness window")
	seenTTL := flag.Duration("seen-ttl", 24*time.Hour, "Signature dedup retention")
	txLogMax := flag.Int("txlog-max", 1000, "Maximum events kept in the transaction log")
	txLogRetention := flag.Duration("txlog-retention", 24*time.Hour, "Transaction log retention")

	httpAddr := flag.String("http-addr", ":8080", "HTTP address for health/metrics/status")

	flag.Parse()

	logger := log.New(os.Stdout, "[trader] ", log.LstdFlags|log.Lshortfile)

	protocolList, err := parseProtocols(*protocols)
	if err != nil {
		logger.Fatalf("Invalid --protocols: %v", err)
	}

	cfg := &config.Config{
		RPCEndpoint:        *rpcEndpoint,
		WSEndpoint:         *wsEndpoint,
		PostgresDSN:        *postgresDSN,
		Protocols:          protocolList,
		Wallets:            splitList(*wallets),
		BuyRatio:           *buyRatio,
		MinBuy:             solToLamports(*minBuySOL),
		MaxBuy:             solToLamports(*maxBuySOL),
		TakeProfitPct:      *takeProfit,
		StopLossPct:        *stopLoss,
		MinCopyAmount:      solToLamports(*minCopySOL),
		OnOpenPosition:     strategy.OpenPositionPolicy(*onOpenPosition),
		SlippageBps:        *slippageBps,
		DEXPollInterval:    *dexPollInterval,
		WalletPollInterval: *walletPollInterval,
		StrategyInterval:   *strategyInterval,
		CleanupInterval:    *cleanupInterval,
		PriceTTL:           *priceTTL,
		SeenTTL:            *seenTTL,
		TxLogMaxCount:      *txLogMax,
		TxLogRetention:     *txLogRetention,
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}
	if !*useMemory && cfg.PostgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stores
	positionStore, fillJournal, cleanupStores, err := createStores(ctx, cfg.PostgresDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanupStores()

	// Feed components
	registry, err := dex.NewRegistry(cfg.Protocols)
	if err != nil {
		logger.Fatalf("Failed to build DEX registry: %v", err)
	}
	cache := pricing.NewCache(cfg.PriceTTL)
	eventLog := txlog.New(cfg.TxLogMaxCount, cfg.TxLogRetention)

	rpc := solana.NewHTTPClient(cfg.RPCEndpoint)

	var ws solana.WSClient
	if cfg.WSEndpoint != "" {
		wsClient, err := solana.NewWSClient(ctx, cfg.WSEndpoint, nil)
		if err != nil {
			logger.Fatalf("Failed to connect websocket: %v", err)
		}
		defer wsClient.Close()
		ws = wsClient
	}

	// Trading components
	tracker := position.NewTracker(position.Options{Store: positionStore, Logger: logger})
	if err := tracker.Restore(ctx); err != nil {
		logger.Fatalf("Failed to restore positions: %v", err)
	}

	monitor, err := wallet.NewMonitor(wallet.Options{
		RPC:           rpc,
		Registry:      registry,
		Logger:        logger,
		MinCopyAmount: cfg.MinCopyAmount,
	})
	if err != nil {
		logger.Fatalf("Failed to create wallet monitor: %v", err)
	}
	for _, w := range cfg.Wallets {
		monitor.Watch(w)
	}

	engine, err := strategy.NewEngine(strategy.Options{
		Signals:  monitor.Signals(),
		Tracker:  tracker,
		Executor: executor.NewPaper(cache, logger),
		Prices:   cache,
		Journal:  fillJournal,
		Logger:   logger,
		Config: strategy.Config{
			BuyRatio:       cfg.BuyRatio,
			MinBuy:         cfg.MinBuy,
			MaxBuy:         cfg.MaxBuy,
			TakeProfitPct:  cfg.TakeProfitPct,
			StopLossPct:    cfg.StopLossPct,
			OnOpenPosition: cfg.OnOpenPosition,
			SlippageBps:    cfg.SlippageBps,
		},
	})
	if err != nil {
		logger.Fatalf("Failed to create strategy engine: %v", err)
	}

	orch, err := orchestrator.New(orchestrator.Options{
		RPC:                rpc,
		WS:                 ws,
		Registry:           registry,
		Cache:              cache,
		TxLog:              eventLog,
		Monitor:            monitor,
		Engine:             engine,
		Tracker:            tracker,
		Logger:             logger,
		DEXPollInterval:    cfg.DEXPollInterval,
		WalletPollInterval: cfg.WalletPollInterval,
		StrategyInterval:   cfg.StrategyInterval,
		CleanupInterval:    cfg.CleanupInterval,
		SeenTTL:            cfg.SeenTTL,
	})
	if err != nil {
		logger.Fatalf("Failed to create orchestrator: %v", err)
	}

	// HTTP server for health/metrics/status
	go startHTTPServer(*httpAddr, logger, orch, tracker, cache)

	logger.Printf("Monitoring %d protocols, copying %d wallets", len(cfg.Protocols), len(cfg.Wallets))
	orch.Start(ctx)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
	cancel()

	done := make(chan struct{})
	go func() {
		orch.Stop()
		close(done)
	}()

	select {
	case <-done:
	case sig := <-sigCh:
		logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
		os.Exit(1)
	case <-time.After(30 * time.Second):
		logger.Println("Graceful shutdown timed out after 30s, forcing exit")
		os.Exit(1)
	}

	logger.Println("Shutdown complete")
}

// createStores creates the position store and fill journal.
func createStores(ctx context.Context, postgresDSN string, useMemory bool) (storage.PositionStore, storage.FillJournal, func(), error) {
	if useMemory {
		return memory.NewPositionStore(), memory.NewFillJournal(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return pgstore.NewPositionStore(pool), pgstore.NewFillJournal(pool), pool.Close, nil
}

// startHTTPServer serves health, metrics and JSON status endpoints.
func startHTTPServer(addr string, logger *log.Logger, orch *orchestrator.Orchestrator, tracker *position.Tracker, cache *pricing.Cache) {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", observability.Handler())

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, orch.Status())
	})

	mux.HandleFunc("/positions", func(w http.ResponseWriter, r *http.Request) {
		summary := tracker.Summary(func(mint string) (float64, bool) {
			p, ok := cache.Get(mint)
			return p.PriceSOL, ok
		})
		writeJSON(w, struct {
			Summary   domain.PositionsSummary `json:"summary"`
			Positions []*domain.Position      `json:"positions"`
		}{summary, tracker.ListOpen()})
	})

	mux.HandleFunc("/prices", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, cache.Snapshot())
	})

	logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Printf("HTTP server error: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// parseProtocols parses a comma-separated protocol list.
func parseProtocols(s string) ([]domain.Protocol, error) {
	var out []domain.Protocol
	for _, item := range splitList(s) {
		p, err := domain.ParseProtocol(item)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// splitList splits a comma-separated list, trimming blanks.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// solToLamports converts a SOL amount to lamports.
func solToLamports(sol float64) uint64 {
	return uint64(sol * float64(domain.LamportsPerSOL))
}

// envOr returns the environment variable value or a default.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
