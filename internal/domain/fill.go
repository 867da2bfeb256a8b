package domain

// TradeReason records why an order was submitted.
type TradeReason string

const (
	ReasonCopyTrade  TradeReason = "COPY_TRADE"
	ReasonTakeProfit TradeReason = "TAKE_PROFIT"
	ReasonStopLoss   TradeReason = "STOP_LOSS"
)

// Fill is an executed order, journaled for audit.
type Fill struct {
	FillID      string // execution signature, unique per fill
	Mint        string
	Side        Side
	Reason      TradeReason
	BaseAmount  uint64 // raw token units filled
	QuoteAmount uint64 // lamports paid or received
	Price       float64
	SourceTx    string   // watched-wallet signature that triggered a copy buy
	RealizedPnL *float64 // lamports-scale PnL, sells only
	Timestamp   int64    // unix milliseconds
}
