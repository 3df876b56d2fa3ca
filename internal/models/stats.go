package models

// Stats holds aggregate P&L figures over the ledger.
type Stats struct {
	TotalPnl float64 `json:"totalPnl"`
	AvgPnl   float64 `json:"avgPnl"`
}

// Holding is the derived valuation of one coin's closed, non-losing trades.
type Holding struct {
	Coin  string  `json:"coin"`
	Value float64 `json:"value"`
}

// Portfolio is the full holdings valuation. Only coins with a strictly
// positive value appear in Holdings.
type Portfolio struct {
	TotalValue float64   `json:"totalValue"`
	Holdings   []Holding `json:"holdings"`
}

// DailyReport is the once-a-day rollup of all trades stamped with the
// current UTC calendar day.
type DailyReport struct {
	Date     string  `json:"date"` // 2006-01-02, UTC
	TotalPnl float64 `json:"totalPnl"`
	Trades   []Trade `json:"trades"`
}

// PriceAlertHit records a triggered price alert.
type PriceAlertHit struct {
	Coin   string  `json:"coin"`
	Target float64 `json:"target"`
	Price  float64 `json:"price"` // the price that met or exceeded the target
}
