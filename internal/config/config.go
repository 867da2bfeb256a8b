// Package config holds the runtime configuration and its validation.
package config

import (
	"fmt"
	"time"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/strategy"
)

// Config is the full runtime configuration, built from flags and
// environment in cmd/trader.
type Config struct {
	// Connectivity
	RPCEndpoint string
	WSEndpoint  string // optional: empty disables the streaming feed
	PostgresDSN string // optional: empty selects in-memory stores

	// Feed
	Protocols []domain.Protocol
	Wallets   []string // watched wallet addresses

	// Trading
	BuyRatio       float64
	MinBuy         uint64 // lamports
	MaxBuy         uint64 // lamports
	TakeProfitPct  float64
	StopLossPct    float64
	MinCopyAmount  uint64 // lamports
	OnOpenPosition strategy.OpenPositionPolicy
	SlippageBps    int

	// Intervals and retention
	DEXPollInterval    time.Duration
	WalletPollInterval time.Duration
	StrategyInterval   time.Duration
	CleanupInterval    time.Duration
	PriceTTL           time.Duration
	SeenTTL            time.Duration
	TxLogMaxCount      int
	TxLogRetention     time.Duration
}

// Validate checks the configuration and returns the first problem found.
// A trader must not start with a partially valid config.
func (c *Config) Validate() error {
	if c.RPCEndpoint == "" {
		return fmt.Errorf("rpc endpoint is required")
	}

	if len(c.Protocols) == 0 {
		return fmt.Errorf("at least one protocol is required")
	}
	for _, p := range c.Protocols {
		if !p.IsValid() {
			return fmt.Errorf("unknown protocol %q", p)
		}
	}

	for _, w := range c.Wallets {
		if err := validateWallet(w); err != nil {
			return fmt.Errorf("wallet %q: %w", w, err)
		}
	}

	if c.BuyRatio <= 0 {
		return fmt.Errorf("buy ratio must be positive, got %g", c.BuyRatio)
	}
	if c.MinBuy == 0 || c.MaxBuy == 0 {
		return fmt.Errorf("min and max buy must be positive")
	}
	if c.MinBuy > c.MaxBuy {
		return fmt.Errorf("min buy %d exceeds max buy %d", c.MinBuy, c.MaxBuy)
	}
	if c.TakeProfitPct <= 0 {
		return fmt.Errorf("take profit threshold must be positive, got %g", c.TakeProfitPct)
	}
	if c.StopLossPct <= 0 {
		return fmt.Errorf("stop loss threshold must be positive, got %g", c.StopLossPct)
	}
	if c.SlippageBps < 0 {
		return fmt.Errorf("slippage must not be negative, got %d", c.SlippageBps)
	}
	switch c.OnOpenPosition {
	case "", strategy.PolicyIgnore, strategy.PolicyAdd:
	default:
		return fmt.Errorf("unknown open-position policy %q", c.OnOpenPosition)
	}

	for name, d := range map[string]time.Duration{
		"dex poll interval":    c.DEXPollInterval,
		"wallet poll interval": c.WalletPollInterval,
		"strategy interval":    c.StrategyInterval,
		"cleanup interval":     c.CleanupInterval,
		"price ttl":            c.PriceTTL,
		"seen ttl":             c.SeenTTL,
		"txlog retention":      c.TxLogRetention,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if c.TxLogMaxCount <= 0 {
		return fmt.Errorf("txlog max count must be positive, got %d", c.TxLogMaxCount)
	}

	return nil
}

// validateWallet checks that an address is base58, 32 bytes, and a
// valid ed25519 point. Wallets are regular keypair accounts; off-curve
// addresses are PDAs and cannot sign trades.
func validateWallet(address string) error {
	raw, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("not base58: %w", err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("expected 32 bytes, got %d", len(raw))
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return fmt.Errorf("not on the ed25519 curve")
	}
	return nil
}
