package orchestrator

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"testing"
	"time"

	"github.com/mr-tron/base58"

	"solana-copy-trader/internal/dex"
	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/executor"
	"solana-copy-trader/internal/position"
	"solana-copy-trader/internal/pricing"
	"solana-copy-trader/internal/solana"
	"solana-copy-trader/internal/solana/stub"
	"solana-copy-trader/internal/strategy"
	"solana-copy-trader/internal/txlog"
	"solana-copy-trader/internal/wallet"
)

const pumpFunProgram = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"

var (
	testUser = base58.Encode(bytes.Repeat([]byte{0x51}, 32))
	testMint = base58.Encode(bytes.Repeat([]byte{0x11}, 32))
)

func pumpFunBuyTx(signature string, solAmount, tokenAmount uint64) *solana.Transaction {
	payload := make([]byte, 97)
	copy(payload[0:8], []byte{0xbd, 0xdb, 0x7f, 0xd3, 0x4e, 0xe6, 0x61, 0xee})
	mintBytes, _ := base58.Decode(testMint)
	copy(payload[8:40], mintBytes)
	binary.LittleEndian.PutUint64(payload[40:48], solAmount)
	binary.LittleEndian.PutUint64(payload[48:56], tokenAmount)
	payload[56] = 1
	userBytes, _ := base58.Decode(testUser)
	copy(payload[57:89], userBytes)
	binary.LittleEndian.PutUint64(payload[89:97], uint64(time.Now().Unix()))

	return &solana.Transaction{
		Slot:      900,
		Signature: signature,
		BlockTime: time.Now().Unix(),
		Meta: &solana.TransactionMeta{
			LogMessages: []string{
				"Program " + pumpFunProgram + " invoke [1]",
				"Program data: " + base64.StdEncoding.EncodeToString(payload),
				"Program " + pumpFunProgram + " success",
			},
		},
		Message: &solana.TransactionMessage{AccountKeys: []string{testUser}},
	}
}

type fixture struct {
	orch    *Orchestrator
	rpc     *stub.RPCClient
	cache   *pricing.Cache
	log     *txlog.Log
	tracker *position.Tracker
	monitor *wallet.Monitor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	rpc := stub.NewRPCClient()
	registry, err := dex.NewRegistry([]domain.Protocol{domain.ProtocolPumpFun})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	cache := pricing.NewCache(pricing.DefaultTTL)
	eventLog := txlog.New(txlog.DefaultMaxCount, txlog.DefaultRetention)
	tracker := position.NewTracker(position.Options{})

	monitor, err := wallet.NewMonitor(wallet.Options{RPC: rpc, Registry: registry})
	if err != nil {
		t.Fatalf("NewMonitor: %v", err)
	}

	engine, err := strategy.NewEngine(strategy.Options{
		Signals:  monitor.Signals(),
		Tracker:  tracker,
		Executor: executor.NewPaper(cache, nil),
		Prices:   cache,
		Config: strategy.Config{
			BuyRatio:      0.5,
			MinBuy:        1,
			MaxBuy:        5_000_000_000,
			TakeProfitPct: 0.5,
			StopLossPct:   0.2,
		},
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	orch, err := New(Options{
		RPC:                rpc,
		Registry:           registry,
		Cache:              cache,
		TxLog:              eventLog,
		Monitor:            monitor,
		Engine:             engine,
		Tracker:            tracker,
		DEXPollInterval:    10 * time.Millisecond,
		WalletPollInterval: 10 * time.Millisecond,
		StrategyInterval:   10 * time.Millisecond,
		CleanupInterval:    10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return &fixture{orch: orch, rpc: rpc, cache: cache, log: eventLog, tracker: tracker, monitor: monitor}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestOrchestrator_DEXFeedIngestsTrades(t *testing.T) {
	f := newFixture(t)
	f.rpc.AddTransaction(pumpFunBuyTx("sig1", 2_000_000_000, 1_000_000))
	f.rpc.AddSignatures(pumpFunProgram, []solana.SignatureInfo{{Signature: "sig1"}})

	ctx := context.Background()
	f.orch.StartDEX(ctx)
	defer f.orch.StopDEX()

	waitFor(t, func() bool { return f.log.Len() == 1 }, "expected the trade event in the log")

	price, ok := f.cache.Get(testMint)
	if !ok {
		t.Fatal("expected a derived price in the cache")
	}
	if price.PriceSOL != 2_000.0 {
		t.Errorf("expected price 2000 lamports/unit, got %g", price.PriceSOL)
	}

	status := f.orch.Status()
	if !status.DEXRunning || status.EventsDecoded != 1 {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestOrchestrator_EndToEndCopyTrade(t *testing.T) {
	f := newFixture(t)

	// The same transaction feeds the price cache via the DEX loop and
	// triggers a copy signal via the wallet loop.
	f.rpc.AddTransaction(pumpFunBuyTx("sig1", 2_000_000_000, 1_000_000))
	f.rpc.AddSignatures(pumpFunProgram, []solana.SignatureInfo{{Signature: "sig1"}})
	f.rpc.AddSignatures(testUser, []solana.SignatureInfo{{Signature: "sig1"}})

	f.monitor.Watch(testUser)

	ctx := context.Background()
	f.orch.Start(ctx)
	defer f.orch.Stop()

	waitFor(t, func() bool { return f.tracker.Count() == 1 }, "expected a copied position to open")

	p, err := f.tracker.Get(testMint)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	// 2 SOL spend * 0.5 ratio = 1 SOL at 2000 lamports/unit
	if p.Quantity != 500_000 {
		t.Errorf("expected 500000 units, got %d", p.Quantity)
	}
}

func TestOrchestrator_StartStopIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.orch.Start(ctx)
	f.orch.Start(ctx) // second start is a no-op

	status := f.orch.Status()
	if !status.DEXRunning || !status.WalletsRunning || !status.CoreRunning {
		t.Fatalf("expected all subsystems running, got %+v", status)
	}

	f.orch.Stop()
	f.orch.Stop() // second stop is a no-op

	status = f.orch.Status()
	if status.DEXRunning || status.WalletsRunning || status.CoreRunning {
		t.Fatalf("expected all subsystems stopped, got %+v", status)
	}
}

func TestOrchestrator_SubsystemsIndependent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.orch.StartDEX(ctx)
	if s := f.orch.Status(); !s.DEXRunning || s.WalletsRunning {
		t.Fatalf("expected only the dex feed running, got %+v", s)
	}

	f.orch.StartWallets(ctx)
	f.orch.StopDEX()
	if s := f.orch.Status(); s.DEXRunning || !s.WalletsRunning {
		t.Fatalf("expected only wallets running, got %+v", s)
	}

	f.orch.StopWallets()
}

func TestOrchestrator_FeedSurvivesRPCErrors(t *testing.T) {
	f := newFixture(t)
	f.rpc.SetFail(stub.ErrNotFound)

	ctx := context.Background()
	f.orch.StartDEX(ctx)

	time.Sleep(50 * time.Millisecond) // a few failing polls

	f.rpc.SetFail(nil)
	f.rpc.AddTransaction(pumpFunBuyTx("sig1", 1_000_000_000, 1_000))
	f.rpc.AddSignatures(pumpFunProgram, []solana.SignatureInfo{{Signature: "sig1"}})

	waitFor(t, func() bool { return f.log.Len() == 1 }, "expected the feed to recover after errors")
	f.orch.StopDEX()
}
