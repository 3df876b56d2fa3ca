package engine

import "meme-trade-bot-go/internal/models"

// DefaultLedgerCapacity bounds how many trades are retained.
const DefaultLedgerCapacity = 50

// Ledger is a bounded, insertion-ordered buffer of trades with FIFO
// eviction. It is the source of truth for all aggregate queries. It is not
// safe for concurrent use; the engine owns it and serializes access.
type Ledger struct {
	capacity int
	trades   []models.Trade
}

// NewLedger creates a ledger holding at most capacity trades.
func NewLedger(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = DefaultLedgerCapacity
	}
	return &Ledger{capacity: capacity, trades: make([]models.Trade, 0, capacity)}
}

// Append pushes a trade to the tail, evicting the oldest entry once the
// capacity is exceeded.
func (l *Ledger) Append(t models.Trade) {
	l.trades = append(l.trades, t)
	if len(l.trades) > l.capacity {
		l.trades = l.trades[1:]
	}
}

// Len returns the number of retained trades.
func (l *Ledger) Len() int {
	return len(l.trades)
}

// All returns a copy of every retained trade in insertion order.
func (l *Ledger) All() []models.Trade {
	out := make([]models.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// Last returns copies of the most recently appended n trades in
// chronological order, or fewer if the ledger holds fewer.
func (l *Ledger) Last(n int) []models.Trade {
	if n <= 0 {
		return nil
	}
	if n > len(l.trades) {
		n = len(l.trades)
	}
	out := make([]models.Trade, n)
	copy(out, l.trades[len(l.trades)-n:])
	return out
}

// Find returns the retained trade with the given id.
func (l *Ledger) Find(id string) (models.Trade, bool) {
	for _, t := range l.trades {
		if t.ID == id {
			return t, true
		}
	}
	return models.Trade{}, false
}

// Replace overwrites the retained trade with the same id. This is only used
// for the deferred close of insider trades; everything else treats stored
// trades as immutable.
func (l *Ledger) Replace(t models.Trade) bool {
	for i := range l.trades {
		if l.trades[i].ID == t.ID {
			l.trades[i] = t
			return true
		}
	}
	return false
}
