package dex

import (
	"bytes"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/solana"
)

// PumpFunProgram is the pump.fun bonding curve program ID.
const PumpFunProgram = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"

// pumpFunTradeDiscriminator is the anchor event discriminator of the
// pump.fun TradeEvent.
var pumpFunTradeDiscriminator = []byte{0xbd, 0xdb, 0x7f, 0xd3, 0x4e, 0xe6, 0x61, 0xee}

// pump.fun TradeEvent layout:
// discriminator(8) + mint(32) + solAmount(8) + tokenAmount(8) + isBuy(1) + user(32) + timestamp(8)
const (
	pumpTradeLen        = 97
	pumpMintOffset      = 8
	pumpSolAmtOffset    = 40
	pumpTokenAmtOffset  = 48
	pumpIsBuyOffset     = 56
	pumpUserOffset      = 57
	pumpTimestampOffset = 89
)

// PumpFunAdapter decodes pump.fun trades from emitted anchor events.
type PumpFunAdapter struct{}

// NewPumpFunAdapter creates a pump.fun adapter.
func NewPumpFunAdapter() *PumpFunAdapter {
	return &PumpFunAdapter{}
}

var _ Adapter = (*PumpFunAdapter)(nil)

func (a *PumpFunAdapter) Protocol() domain.Protocol { return domain.ProtocolPumpFun }

func (a *PumpFunAdapter) ProgramID() string { return PumpFunProgram }

// Decode extracts trade events from "Program data:" log entries.
func (a *PumpFunAdapter) Decode(tx *solana.Transaction) ([]domain.TradeEvent, error) {
	logs := tx.Logs()
	if !programInvoked(logs, PumpFunProgram) {
		return nil, ErrProgramMismatch
	}

	var events []domain.TradeEvent

	for _, logLine := range logs {
		data := programDataPayload(logLine)
		if data == nil || len(data) < pumpTradeLen {
			continue
		}
		if !bytes.Equal(data[:8], pumpFunTradeDiscriminator) {
			continue
		}

		mint := pubkeyAt(data, pumpMintOffset)
		user := pubkeyAt(data, pumpUserOffset)
		solAmount := readUint64LE(data, pumpSolAmtOffset)
		tokenAmount := readUint64LE(data, pumpTokenAmtOffset)

		ev := domain.TradeEvent{
			Protocol:    domain.ProtocolPumpFun,
			TxSignature: tx.Signature,
			Slot:        tx.Slot,
			Wallet:      user,
			Mint:        mint,
			BaseAmount:  tokenAmount,
			QuoteAmount: solAmount,
			Timestamp:   eventTimestamp(tx),
		}
		if ev.Wallet == "" {
			ev.Wallet = tx.Signer()
		}

		if data[pumpIsBuyOffset] == 1 {
			ev.Side = domain.SideBuy
		} else {
			ev.Side = domain.SideSell
		}

		// Event carries its own trade timestamp in seconds; prefer it
		// when present.
		if ts := readUint64LE(data, pumpTimestampOffset); ts > 0 {
			ev.Timestamp = int64(ts) * 1000
		}

		events = append(events, ev)
	}

	if len(events) == 0 {
		return nil, ErrUnrecognized
	}
	return events, nil
}
