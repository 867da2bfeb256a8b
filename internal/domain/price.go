package domain

// TokenPrice is a single price observation derived from a trade.
// PriceSOL is expressed in lamports per raw token unit.
type TokenPrice struct {
	Mint      string
	PriceSOL  float64
	Timestamp int64 // unix milliseconds of the observed trade
	Source    Protocol
}
