package domain

import "fmt"

// Protocol identifies a supported DEX protocol.
type Protocol string

const (
	ProtocolRaydiumCPMM Protocol = "RAYDIUM_CPMM"
	ProtocolPumpFun     Protocol = "PUMP_FUN"
	ProtocolPumpSwap    Protocol = "PUMP_SWAP"
	ProtocolBonk        Protocol = "BONK"
)

// AllProtocols lists every supported protocol.
var AllProtocols = []Protocol{
	ProtocolRaydiumCPMM,
	ProtocolPumpFun,
	ProtocolPumpSwap,
	ProtocolBonk,
}

// String returns the string representation of Protocol.
func (p Protocol) String() string {
	return string(p)
}

// IsValid checks if the protocol is a supported value.
func (p Protocol) IsValid() bool {
	switch p {
	case ProtocolRaydiumCPMM, ProtocolPumpFun, ProtocolPumpSwap, ProtocolBonk:
		return true
	}
	return false
}

// ParseProtocol converts a configuration string into a Protocol.
// Unknown names are a configuration error, not a runtime condition.
func ParseProtocol(s string) (Protocol, error) {
	p := Protocol(s)
	if !p.IsValid() {
		return "", fmt.Errorf("unknown protocol %q", s)
	}
	return p, nil
}
