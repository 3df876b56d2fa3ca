package models

// MaxDCALevel caps how far an averaging position can be escalated.
const MaxDCALevel = 3

// DCAPosition tracks the running averaging ladder for one coin.
// There is at most one open position per coin at any time.
type DCAPosition struct {
	Coin     string  `json:"coin"`
	Level    int     `json:"dcaLevel"`
	AvgEntry float64 `json:"avgEntry"` // volume-weighted average entry price
	Amount   float64 `json:"amount"`   // cumulative position size
}

// DCAStatus is the read-only snapshot of an open position exposed to queries.
type DCAStatus struct {
	Coin     string  `json:"coin"`
	Level    int     `json:"dcaLevel"`
	AvgEntry float64 `json:"avgEntry"`
}
