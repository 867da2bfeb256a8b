package dex

import (
	"encoding/base64"
	"regexp"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/solana"
)

// RaydiumCPMMProgram is the Raydium CPMM program ID.
const RaydiumCPMMProgram = "CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C"

// Raydium swap log layout:
// discriminator(1) + pool(32) + inputMint(32) + outputMint(32) + amountIn(8) + amountOut(8)
const (
	rayLogSwapLen       = 113
	rayLogPoolOffset    = 1
	rayLogInMintOffset  = 33
	rayLogOutMintOffset = 65
	rayLogInAmtOffset   = 97
	rayLogOutAmtOffset  = 105
)

// Raydium swap discriminators: 0x09 = SwapBaseIn, 0x0b = SwapBaseOut.
func isRaySwapDiscriminator(b byte) bool {
	return b == 0x09 || b == 0x0b
}

// RaydiumCPMMAdapter decodes Raydium CPMM swaps from ray_log entries.
type RaydiumCPMMAdapter struct {
	rayLogPattern *regexp.Regexp
}

// NewRaydiumCPMMAdapter creates a Raydium CPMM adapter.
func NewRaydiumCPMMAdapter() *RaydiumCPMMAdapter {
	return &RaydiumCPMMAdapter{
		rayLogPattern: regexp.MustCompile(`ray_log: ([A-Za-z0-9+/=]+)`),
	}
}

var _ Adapter = (*RaydiumCPMMAdapter)(nil)

func (a *RaydiumCPMMAdapter) Protocol() domain.Protocol { return domain.ProtocolRaydiumCPMM }

func (a *RaydiumCPMMAdapter) ProgramID() string { return RaydiumCPMMProgram }

// Decode extracts swap events from ray_log entries. Only SOL-quoted pairs
// produce events; swaps between two non-SOL tokens are skipped.
func (a *RaydiumCPMMAdapter) Decode(tx *solana.Transaction) ([]domain.TradeEvent, error) {
	logs := tx.Logs()
	if !programInvoked(logs, RaydiumCPMMProgram) {
		return nil, ErrProgramMismatch
	}

	var events []domain.TradeEvent

	for _, logLine := range logs {
		matches := a.rayLogPattern.FindStringSubmatch(logLine)
		if matches == nil {
			continue
		}

		data, err := base64.StdEncoding.DecodeString(matches[1])
		if err != nil || len(data) < rayLogSwapLen {
			continue
		}
		if !isRaySwapDiscriminator(data[0]) {
			continue
		}

		pool := pubkeyAt(data, rayLogPoolOffset)
		inMint := pubkeyAt(data, rayLogInMintOffset)
		outMint := pubkeyAt(data, rayLogOutMintOffset)
		amountIn := readUint64LE(data, rayLogInAmtOffset)
		amountOut := readUint64LE(data, rayLogOutAmtOffset)

		ev := domain.TradeEvent{
			Protocol:    domain.ProtocolRaydiumCPMM,
			TxSignature: tx.Signature,
			Slot:        tx.Slot,
			Wallet:      tx.Signer(),
			Timestamp:   eventTimestamp(tx),
		}
		if pool != "" {
			ev.Pool = &pool
		}

		switch {
		case inMint == domain.WSOL && outMint != domain.WSOL:
			// SOL in, token out
			ev.Side = domain.SideBuy
			ev.Mint = outMint
			ev.QuoteAmount = amountIn
			ev.BaseAmount = amountOut
		case outMint == domain.WSOL && inMint != domain.WSOL:
			// token in, SOL out
			ev.Side = domain.SideSell
			ev.Mint = inMint
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
