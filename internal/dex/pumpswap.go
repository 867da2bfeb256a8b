package dex

import (
	"bytes"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/solana"
)

// PumpSwapProgram is the PumpSwap AMM program ID.
const PumpSwapProgram = "pAMMBay6oceH9fJKBRHGP5D4bD4sWpmSwMn52FMfXEA"

// PumpSwap anchor event discriminators.
var (
	pumpSwapBuyDiscriminator  = []byte{0x67, 0xf4, 0x52, 0x1f, 0x2c, 0xf5, 0x77, 0x26}
	pumpSwapSellDiscriminator = []byte{0x3e, 0x2f, 0x37, 0x0a, 0xa5, 0x03, 0xdc, 0x2a}
)

// PumpSwap event layout:
// discriminator(8) + pool(32) + mint(32) + baseAmount(8) + quoteAmount(8)
const (
	pumpSwapEventLen       = 88
	pumpSwapPoolOffset     = 8
	pumpSwapMintOffset     = 40
	pumpSwapBaseAmtOffset  = 72
	pumpSwapQuoteAmtOffset = 80
)

// PumpSwapAdapter decodes PumpSwap AMM trades from emitted anchor events.
type PumpSwapAdapter struct{}

// NewPumpSwapAdapter creates a PumpSwap adapter.
func NewPumpSwapAdapter() *PumpSwapAdapter {
	return &PumpSwapAdapter{}
}

var _ Adapter = (*PumpSwapAdapter)(nil)

func (a *PumpSwapAdapter) Protocol() domain.Protocol { return domain.ProtocolPumpSwap }

func (a *PumpSwapAdapter) ProgramID() string { return PumpSwapProgram }

// Decode extracts buy/sell events from "Program data:" log entries.
func (a *PumpSwapAdapter) Decode(tx *solana.Transaction) ([]domain.TradeEvent, error) {
	logs := tx.Logs()
	if !programInvoked(logs, PumpSwapProgram) {
		return nil, ErrProgramMismatch
	}

	var events []domain.TradeEvent

	for _, logLine := range logs {
		data := programDataPayload(logLine)
		if data == nil || len(data) < pumpSwapEventLen {
			continue
		}

		var side domain.Side
		switch {
		case bytes.Equal(data[:8], pumpSwapBuyDiscriminator):
			side = domain.SideBuy
		case bytes.Equal(data[:8], pumpSwapSellDiscriminator):
			side = domain.SideSell
		default:
			continue
		}

		pool := pubkeyAt(data, pumpSwapPoolOffset)
		ev := domain.TradeEvent{
			Protocol:    domain.ProtocolPumpSwap,
			TxSignature: tx.Signature,
			Slot:        tx.Slot,
			Wallet:      tx.Signer(),
			Mint:        pubkeyAt(data, pumpSwapMintOffset),
			Side:        side,
			BaseAmount:  readUint64LE(data, pumpSwapBaseAmtOffset),
			QuoteAmount: readUint64LE(data, pumpSwapQuoteAmtOffset),
			Timestamp:   eventTimestamp(tx),
		}
		if pool != "" {
			ev.Pool = &pool
		}

		events = append(events, ev)
	}

	if len(events) == 0 {
		return nil, ErrUnrecognized
	}
	return events, nil
}
