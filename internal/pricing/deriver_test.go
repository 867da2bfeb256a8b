package pricing

import (
	"errors"
	"testing"

	"solana-copy-trader/internal/domain"
)

func TestDerive(t *testing.T) {
	ev := domain.TradeEvent{
		Protocol:    domain.ProtocolPumpFun,
		Mint:        "mintA",
		Side:        domain.SideBuy,
		BaseAmount:  2_000_000,
		QuoteAmount: 1_000_000_000,
		Timestamp:   1700000000000,
	}

	p, err := Derive(ev)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}

	if p.PriceSOL != 500.0 {
		t.Errorf("expected price 500, got %f", p.PriceSOL)
	}
	if p.Mint != "mintA" {
		t.Errorf("expected mint mintA, got %s", p.Mint)
	}
	if p.Timestamp != ev.Timestamp {
		t.Errorf("expected timestamp %d, got %d", ev.Timestamp, p.Timestamp)
	}
	if p.Source != domain.ProtocolPumpFun {
		t.Errorf("expected source PUMP_FUN, got %s", p.Source)
	}
}

func TestDerive_ZeroBaseAmount(t *testing.T) {
	ev := domain.TradeEvent{
		Mint:        "mintA",
		BaseAmount:  0,
		QuoteAmount: 1_000_000,
	}

	_, err := Derive(ev)
	if !errors.Is(err, ErrDegenerateAmount) {
		t.Errorf("expected ErrDegenerateAmount, got %v", err)
	}
}
