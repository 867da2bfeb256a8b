// Package dex decodes raw DEX transactions into canonical trade events.
package dex

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/solana"
)

// Decode errors. Both are expected conditions on a live feed: transactions
// for other programs and unknown instruction shapes are skipped, not fatal.
var (
	// ErrProgramMismatch means the transaction does not invoke the
	// adapter's program.
	ErrProgramMismatch = errors.New("transaction does not invoke program")

	// ErrUnrecognized means the program matched but no decodable swap
	// payload was found.
	ErrUnrecognized = errors.New("no recognizable swap payload")
)

// Adapter decodes transactions of a single DEX protocol.
// Decode returns ErrProgramMismatch when the transaction belongs to a
// different program and ErrUnrecognized when the payload cannot be decoded.
// Implementations must never panic on malformed input.
type Adapter interface {
	Protocol() domain.Protocol
	ProgramID() string
	Decode(tx *solana.Transaction) ([]domain.TradeEvent, error)
}

// NewAdapter constructs the adapter for a protocol.
func NewAdapter(p domain.Protocol) (Adapter, error) {
	switch p {
	case domain.ProtocolRaydiumCPMM:
		return NewRaydiumCPMMAdapter(), nil
	case domain.ProtocolPumpFun:
		return NewPumpFunAdapter(), nil
	case domain.ProtocolPumpSwap:
		return NewPumpSwapAdapter(), nil
	case domain.ProtocolBonk:
		return NewBonkAdapter(), nil
	default:
		return nil, fmt.Errorf("unknown protocol %q", p)
	}
}

// Registry dispatches transactions to adapters by program ID.
type Registry struct {
	byProgram  map[string]Adapter
	byProtocol map[domain.Protocol]Adapter
	ordered    []Adapter
}

// NewRegistry builds a registry for the given protocols.
func NewRegistry(protocols []domain.Protocol) (*Registry, error) {
	r := &Registry{
		byProgram:  make(map[string]Adapter),
		byProtocol: make(map[domain.Protocol]Adapter),
	}

	for _, p := range protocols {
		if _, exists := r.byProtocol[p]; exists {
			return nil, fmt.Errorf("duplicate protocol %q", p)
		}
		a, err := NewAdapter(p)
		if err != nil {
			return nil, err
		}
		r.byProgram[a.ProgramID()] = a
		r.byProtocol[p] = a
		r.ordered = append(r.ordered, a)
	}

	return r, nil
}

// ByProtocol returns the adapter for a protocol, nil if not registered.
func (r *Registry) ByProtocol(p domain.Protocol) Adapter {
	return r.byProtocol[p]
}

// Adapters returns registered adapters in registration order.
func (r *Registry) Adapters() []Adapter {
	return r.ordered
}

// Programs returns the program IDs of all registered adapters.
func (r *Registry) Programs() []string {
	out := make([]string, 0, len(r.ordered))
	for _, a := range r.ordered {
		out = append(out, a.ProgramID())
	}
	return out
}

// Decode runs every adapter whose program appears in the transaction and
// merges their events. Returns ErrProgramMismatch when no registered
// program is invoked.
func (r *Registry) Decode(tx *solana.Transaction) ([]domain.TradeEvent, error) {
	var events []domain.TradeEvent
	matched := false

	for _, a := range r.ordered {
		evts, err := a.Decode(tx)
		if err != nil {
			if errors.Is(err, ErrProgramMismatch) {
				continue
			}
			matched = true
			continue // ErrUnrecognized: program matched, nothing decodable
		}
		matched = true
		events = append(events, evts...)
	}

	if !matched {
		return nil, ErrProgramMismatch
	}
	if len(events) == 0 {
		return nil, ErrUnrecognized
	}
	return events, nil
}

// Shared log-scanning helpers.

// programInvoked reports whether logs contain an invocation of programID.
func programInvoked(logs []string, programID string) bool {
	marker := "Program " + programID + " invoke"
	for _, l := range logs {
		if strings.Contains(l, marker) {
			return true
		}
	}
	return false
}

// programDataPayload extracts and decodes the base64 payload of a
// "Program data:" log line. Returns nil when the line has another shape.
func programDataPayload(logLine string) []byte {
	const prefix = "Program data: "
	idx := strings.Index(logLine, prefix)
	if idx < 0 {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(logLine[idx+len(prefix):]))
	if err != nil {
		return nil
	}
	return data
}

// readUint64LE reads a little-endian uint64 from data at offset.
// Returns 0 when out of bounds; callers bounds-check payload length first.
func readUint64LE(data []byte, offset int) uint64 {
	if offset < 0 || offset+8 > len(data) {
		return 0
	}
	return binary.LittleEndian.Uint64(data[offset:])
}

// pubkeyAt base58-encodes the 32-byte pubkey at offset, "" if out of bounds.
func pubkeyAt(data []byte, offset int) string {
	if offset < 0 || offset+32 > len(data) {
		return ""
	}
	return base58.Encode(data[offset : offset+32])
}

// eventTimestamp converts a transaction block time (seconds) to unix ms.
func eventTimestamp(tx *solana.Transaction) int64 {
	return tx.BlockTime * 1000
}
