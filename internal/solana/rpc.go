package solana

import "context"

// RPCClient defines the Solana RPC HTTP surface the engine depends on.
type RPCClient interface {
	// GetTransaction retrieves a transaction by signature.
	// Returns (nil, nil) when the transaction is not found.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetSignaturesForAddress retrieves signatures for an address with pagination.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)
}

// Transaction represents a Solana transaction.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds)
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta contains transaction metadata.
type TransactionMeta struct {
	Err         interface{}
	LogMessages []string
}

// TransactionMessage contains parsed transaction message.
type TransactionMessage struct {
	AccountKeys []string
}

// Failed reports whether the transaction errored on chain.
func (t *Transaction) Failed() bool {
	return t.Meta != nil && t.Meta.Err != nil
}

// Logs returns the transaction log messages, nil-safe.
func (t *Transaction) Logs() []string {
	if t.Meta == nil {
		return nil
	}
	return t.Meta.LogMessages
}

// Signer returns the fee payer (first account key), empty if unknown.
func (t *Transaction) Signer() string {
	if t.Message == nil || len(t.Message.AccountKeys) == 0 {
		return ""
	}
	return t.Message.AccountKeys[0]
}
