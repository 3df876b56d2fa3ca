package engine

import (
	"sort"
	"strings"

	"meme-trade-bot-go/internal/models"
)

// Read-only aggregate queries over the ledger. Each takes the engine lock
// and works on the stored order, so reductions are deterministic.

// TopGainer returns the stored trade with the highest pnl (first occurrence
// wins on ties). An empty ledger falls back to a freshly generated trade
// rather than an error.
func (e *Engine) TopGainer() models.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ledger.Len() == 0 {
		return e.gen.Generate()
	}
	best := e.ledger.trades[0]
	for _, t := range e.ledger.trades[1:] {
		if t.PnlUSD > best.PnlUSD {
			best = t
		}
	}
	return best
}

// TopLoser returns the stored trade with the lowest pnl, with the same
// tie-break and empty-ledger fallback as TopGainer.
func (e *Engine) TopLoser() models.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ledger.Len() == 0 {
		return e.gen.Generate()
	}
	worst := e.ledger.trades[0]
	for _, t := range e.ledger.trades[1:] {
		if t.PnlUSD < worst.PnlUSD {
			worst = t
		}
	}
	return worst
}

// LastTrades returns the most recent n trades in chronological order.
func (e *Engine) LastTrades(n int) []models.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Last(n)
}

// LedgerSize returns the number of retained trades.
func (e *Engine) LedgerSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Len()
}

// FindTrade looks a retained trade up by id (used for card re-downloads).
func (e *Engine) FindTrade(id string) (models.Trade, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Find(id)
}

// TotalStats sums pnl over every retained trade. Both figures are rounded
// to 2 decimals for presentation; an empty ledger yields zeros.
func (e *Engine) TotalStats() models.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	var total float64
	for _, t := range e.ledger.trades {
		total += t.PnlUSD
	}
	avg := 0.0
	if n := e.ledger.Len(); n > 0 {
		avg = total / float64(n)
	}
	return models.Stats{TotalPnl: round2(total), AvgPnl: round2(avg)}
}

// DCAStatus snapshots every open averaging position, sorted by coin for a
// stable presentation order.
func (e *Engine) DCAStatus() []models.DCAStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]models.DCAStatus, 0, len(e.positions))
	for _, pos := range e.positions {
		out = append(out, models.DCAStatus{Coin: pos.Coin, Level: pos.Level, AvgEntry: pos.AvgEntry})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Coin < out[j].Coin })
	return out
}

// Portfolio values, per candidate coin, the closed trades that did not lose
// money: value = sum of amount * exit price. Coins with no positive value
// are omitted; TotalValue is the sum over the included holdings.
func (e *Engine) Portfolio() models.Portfolio {
	e.mu.Lock()
	defer e.mu.Unlock()

	var p models.Portfolio
	for _, coin := range e.gen.coins {
		var value float64
		for _, t := range e.ledger.trades {
			if t.Coin == coin && t.PnlUSD >= 0 && t.Closed() {
				value += t.Amount * t.ExitPrice
			}
		}
		if value > 0 {
			value = round2(value)
			p.Holdings = append(p.Holdings, models.Holding{Coin: coin, Value: value})
			p.TotalValue += value
		}
	}
	p.TotalValue = round2(p.TotalValue)
	return p
}

// DailyReport compiles every retained trade stamped with the given UTC date
// (2006-01-02) into a rollup.
func (e *Engine) DailyReport(date string) models.DailyReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := models.DailyReport{Date: date}
	for _, t := range e.ledger.trades {
		if strings.HasPrefix(t.Timestamp, date) {
			r.Trades = append(r.Trades, t)
			r.TotalPnl += t.PnlUSD
		}
	}
	r.TotalPnl = round2(r.TotalPnl)
	return r
}

// RiskLevel grades the current exposure: High once total pnl breaches the
// max loss limit, Medium while underwater, Low otherwise.
func (e *Engine) RiskLevel() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var total float64
	for _, t := range e.ledger.trades {
		total += t.PnlUSD
	}
	switch {
	case total < e.settings.MaxLossLimit:
		return "High"
	case total < 0:
		return "Medium"
	default:
		return "Low"
	}
}
