package txlog

import (
	"fmt"
	"testing"
	"time"

	"solana-copy-trader/internal/domain"
)

func event(protocol domain.Protocol, mint, wallet string, ts int64) domain.TradeEvent {
	return domain.TradeEvent{
		Protocol:    protocol,
		TxSignature: fmt.Sprintf("sig-%s-%d", mint, ts),
		Mint:        mint,
		Wallet:      wallet,
		Side:        domain.SideBuy,
		BaseAmount:  100,
		QuoteAmount: 200,
		Timestamp:   ts,
	}
}

func TestLog_AppendAndQuery(t *testing.T) {
	l := New(100, time.Hour)

	l.Append(event(domain.ProtocolPumpFun, "mintA", "w1", 1000))
	l.Append(event(domain.ProtocolRaydiumCPMM, "mintB", "w2", 2000))
	l.Append(event(domain.ProtocolPumpFun, "mintA", "w2", 3000))

	all := l.Query(Filter{})
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}
	if all[0].Timestamp != 1000 || all[2].Timestamp != 3000 {
		t.Error("expected oldest-first ordering")
	}

	proto := domain.ProtocolPumpFun
	byProto := l.Query(Filter{Protocol: &proto})
	if len(byProto) != 2 {
		t.Errorf("expected 2 PUMP_FUN events, got %d", len(byProto))
	}

	byMint := l.Query(Filter{Mint: "mintB"})
	if len(byMint) != 1 || byMint[0].Mint != "mintB" {
		t.Errorf("unexpected mint query result: %+v", byMint)
	}

	byWallet := l.Query(Filter{Wallet: "w2"})
	if len(byWallet) != 2 {
		t.Errorf("expected 2 events for w2, got %d", len(byWallet))
	}

	limited := l.Query(Filter{Limit: 2})
	if len(limited) != 2 {
		t.Errorf("expected 2 events with limit, got %d", len(limited))
	}
}

func TestLog_QueryReturnsSnapshot(t *testing.T) {
	l := New(100, time.Hour)
	l.Append(event(domain.ProtocolBonk, "mintA", "w1", 1000))

	snap := l.Query(Filter{})
	l.Append(event(domain.ProtocolBonk, "mintA", "w1", 2000))

	if len(snap) != 1 {
		t.Errorf("snapshot should be unaffected by later appends, got %d", len(snap))
	}
}

func TestLog_SweepByAge(t *testing.T) {
	l := New(100, time.Minute)
	now := int64(10_000_000)

	l.Append(event(domain.ProtocolPumpFun, "old", "w", now-120_000))
	l.Append(event(domain.ProtocolPumpFun, "fresh", "w", now-1000))

	removed := l.Sweep(now)
	if removed != 1 {
		t.Errorf("expected 1 removed by age, got %d", removed)
	}
	if l.Len() != 1 {
		t.Errorf("expected 1 remaining, got %d", l.Len())
	}
	if got := l.Query(Filter{}); len(got) != 1 || got[0].Mint != "fresh" {
		t.Errorf("expected fresh event to remain, got %+v", got)
	}
}

func TestLog_SweepByCount(t *testing.T) {
	l := New(5, time.Hour)
	now := int64(10_000_000)

	for i := 0; i < 8; i++ {
		l.Append(event(domain.ProtocolPumpFun, fmt.Sprintf("m%d", i), "w", now-int64(8-i)))
	}

	removed := l.Sweep(now)
	if removed != 3 {
		t.Errorf("expected 3 removed by count bound, got %d", removed)
	}
	if l.Len() != 5 {
		t.Errorf("expected 5 remaining, got %d", l.Len())
	}

	// Oldest events were dropped
	remaining := l.Query(Filter{})
	if remaining[0].Mint != "m3" {
		t.Errorf("expected oldest survivor m3, got %s", remaining[0].Mint)
	}
}

func TestLog_SweepNothingToDo(t *testing.T) {
	l := New(10, time.Hour)
	now := int64(10_000_000)

	l.Append(event(domain.ProtocolPumpFun, "m", "w", now))

	if removed := l.Sweep(now); removed != 0 {
		t.Errorf("expected 0 removed, got %d", removed)
	}
}
