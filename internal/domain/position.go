package domain

// Position is an open holding in a single token.
// CostBasis is the weighted-average price paid, in lamports per raw
// token unit (same scale as TokenPrice.PriceSOL).
type Position struct {
	Mint      string
	Quantity  uint64 // raw token units held
	CostBasis float64
	OpenedAt  int64 // unix milliseconds
	UpdatedAt int64 // unix milliseconds
}

// PositionsSummary aggregates open positions for status reporting.
type PositionsSummary struct {
	OpenCount     int
	TotalCostSOL  float64 // sum of quantity * basis, in SOL
	UnrealizedSOL float64 // sum of quantity * (price - basis) where a price is known, in SOL
	PricedCount   int     // positions with a fresh price observation
}
