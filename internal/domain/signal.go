package domain

// CopySignal is emitted when a watched wallet buys a token.
// Each qualifying transaction signature produces at most one signal.
type CopySignal struct {
	Wallet      string
	Mint        string
	Protocol    Protocol
	QuoteAmount uint64 // lamports the watched wallet spent
	TxSignature string
	Timestamp   int64 // unix milliseconds
}
