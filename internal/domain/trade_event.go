package domain

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL uint64 = 1_000_000_000

// WSOL is the Wrapped SOL mint address.
const WSOL = "So11111111111111111111111111111111111111112"

// Side indicates the direction of a trade relative to the token.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// TradeEvent is a decoded swap in canonical form. Amounts stay in native
// integer units (lamports for the SOL leg, raw token units for the token
// leg); conversion to a floating-point price happens only in pricing.
type TradeEvent struct {
	Protocol    Protocol
	TxSignature string
	Slot        int64
	Wallet      string  // signer that initiated the swap, empty if unknown
	Mint        string  // token mint of the non-SOL leg
	Pool        *string // pool address when the protocol exposes one
	Side        Side
	BaseAmount  uint64 // raw token units
	QuoteAmount uint64 // lamports
	Timestamp   int64  // unix milliseconds
}
