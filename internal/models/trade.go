package models

// TimestampLayout is the fixed display format for trade timestamps (UTC).
const TimestampLayout = "2006-01-02 15:04:05"

// Trade represents a single simulated trade record.
// A trade is immutable once appended to the ledger, with one exception:
// an insider trade is created without an exit price and closed in place
// later by the deferred take-profit/stop-loss check.
type Trade struct {
	ID            string  `json:"id"`
	Coin          string  `json:"coin"`
	EntryPrice    float64 `json:"entryPrice"`
	ExitPrice     float64 `json:"exitPrice,omitempty"` // 0 while the position is open
	Amount        float64 `json:"amount"`
	PnlUSD        float64 `json:"pnlUSD"`
	PnlPercentage float64 `json:"pnlPercentage"`
	Timestamp     string  `json:"timestamp"`
	DCALevel      int     `json:"dcaLevel,omitempty"` // >=1 only on averaging-derived trades
	Insider       bool    `json:"insider,omitempty"`
}

// Closed reports whether the trade has an exit price. Generated trades are
// always closed; insider trades stay open until their deferred close fires.
func (t Trade) Closed() bool {
	return t.ExitPrice > 0
}
