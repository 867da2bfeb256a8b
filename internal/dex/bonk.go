package dex

import (
	"bytes"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/solana"
)

// BonkProgram is the LetsBonk launchpad (Raydium LaunchLab) program ID.
const BonkProgram = "LanMV9sAd7wArD4vJFi2qDdfnVhFxYSUg6eADduJ3uj"

// bonkTradeDiscriminator marks a launchpad trade event.
var bonkTradeDiscriminator = []byte{0xe4, 0x45, 0xa5, 0x2e, 0x51, 0xcb, 0x9a, 0x1d}

// Bonk trade event layout:
// discriminator(8) + pool(32) + mint(32) + amountIn(8) + amountOut(8) + direction(1)
// direction: 0 = buy (SOL in), 1 = sell (token in).
const (
	bonkEventLen        = 89
	bonkPoolOffset      = 8
	bonkMintOffset      = 40
	bonkAmtInOffset     = 72
	bonkAmtOutOffset    = 80
	bonkDirectionOffset = 88
)

// BonkAdapter decodes LetsBonk launchpad trades.
type BonkAdapter struct{}

// NewBonkAdapter creates a Bonk adapter.
func NewBonkAdapter() *BonkAdapter {
	return &BonkAdapter{}
}

var _ Adapter = (*BonkAdapter)(nil)

func (a *BonkAdapter) Protocol() domain.Protocol { return domain.ProtocolBonk }

func (a *BonkAdapter) ProgramID() string { return BonkProgram }

// Decode extracts trade events from "Program data:" log entries.
func (a *BonkAdapter) Decode(tx *solana.Transaction) ([]domain.TradeEvent, error) {
	logs := tx.Logs()
	if !programInvoked(logs, BonkProgram) {
		return nil, ErrProgramMismatch
	}

	var events []domain.TradeEvent

	for _, logLine := range logs {
		data := programDataPayload(logLine)
		if data == nil || len(data) < bonkEventLen {
			continue
		}
		if !bytes.Equal(data[:8], bonkTradeDiscriminator) {
			continue
		}

		amountIn := readUint64LE(data, bonkAmtInOffset)
		amountOut := readUint64LE(data, bonkAmtOutOffset)
		pool := pubkeyAt(data, bonkPoolOffset)

		ev := domain.TradeEvent{
			Protocol:    domain.ProtocolBonk,
			TxSignature: tx.Signature,
			Slot:        tx.Slot,
			Wallet:      tx.Signer(),
			Mint:        pubkeyAt(data, bonkMintOffset),
			Timestamp:   eventTimestamp(tx),
		}
		if pool != "" {
			ev.Pool = &pool
		}

		switch data[bonkDirectionOffset] {
		case 0:
			ev.Side = domain.SideBuy
			ev.QuoteAmount = amountIn
			ev.BaseAmount = amountOut
		case 1:
			ev.Side = domain.SideSell
			ev.BaseAmount = amountIn
			ev.QuoteAmount = amountOut
		default:
			continue
		}

		events = append(events, ev)
	}

	if len(events) == 0 {
		return nil, ErrUnrecognized
	}
	return events, nil
}
