package engine

import (
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"meme-trade-bot-go/internal/models"
)

// Thresholds of the simulation model.
const (
	dipPriceFactor     = 0.9  // synthetic dip buys are priced at 90% of entry
	dipAmountFactor    = 0.5  // and sized at 50% of the triggering amount
	stopLossMultiplier = -20  // position dropped once pnl < -20 * amount
	takeProfitFactor   = 3.0  // insider close: price moved to >= 3x entry
	insiderStopFactor  = 0.9  // insider close: price fell to <= 0.9x entry
)

// Settings are the user-adjustable simulation knobs. Malformed updates are
// ignored and the prior value retained.
type Settings struct {
	MaxLossLimit      float64
	SlippageTolerance float64
	ProfitTarget      float64
}

// DefaultSettings returns the stock simulation settings.
func DefaultSettings() Settings {
	return Settings{MaxLossLimit: -200, SlippageTolerance: 0.05, ProfitTarget: 20}
}

// Engine owns all simulation state: the trade ledger, the per-coin DCA
// ladder, pending price alerts and open insider trades. Every mutation and
// read goes through one mutex, so timer callbacks and message handlers may
// call it from any goroutine.
type Engine struct {
	mu        sync.Mutex
	logger    *zap.Logger
	gen       *Generator
	ledger    *Ledger
	positions map[string]*models.DCAPosition
	alerts    map[string]float64      // coin -> target price
	pending   map[string]models.Trade // open insider trades by id
	settings  Settings
	liveMode  bool
}

// NewEngine creates an engine over the given candidate coins. A nil rng gets
// a time-seeded source; tests inject a fixed seed for determinism.
func NewEngine(logger *zap.Logger, coins []string, rng *rand.Rand) *Engine {
	return &Engine{
		logger:    logger,
		gen:       NewGenerator(coins, rng),
		ledger:    NewLedger(DefaultLedgerCapacity),
		positions: make(map[string]*models.DCAPosition),
		alerts:    make(map[string]float64),
		pending:   make(map[string]models.Trade),
		settings:  DefaultSettings(),
	}
}

// GenerateTrade fabricates a fresh trade without recording it.
func (e *Engine) GenerateTrade() models.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen.Generate()
}

// SimulatedPrice draws one simulated current price.
func (e *Engine) SimulatedPrice() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen.SimulatedPrice()
}

// RecordTrade appends the trade to the ledger and folds it through the DCA
// ladder. A losing trade for a coin without an open position opens one at
// level 1; while a position is open, qualifying trades escalate it up to
// level 3. Each step synthesizes a derived trade (averaged entry, combined
// size) that is itself recorded, so one losing trade can add up to three
// extra ledger entries. The cascade is a bounded loop; the level cap makes
// termination structural.
//
// The derived trades carry the P&L of the triggering trade unchanged, and
// the escalation guard compares pnl dollars against avgEntry*0.9. Both are
// intentional; ledger totals and the alert history depend on them.
func (e *Engine) RecordTrade(t models.Trade) {
	e.mu.Lock()
	defer e.mu.Unlock()

	stopLoss := false
	cur := t
	for {
		e.ledger.Append(cur)
		if cur.PnlUSD < stopLossMultiplier*cur.Amount {
			stopLoss = true
		}

		pos, open := e.positions[cur.Coin]
		switch {
		case cur.PnlUSD < 0 && !open:
			dipAmount := cur.Amount * dipAmountFactor
			total := cur.Amount + dipAmount
			avg := (cur.EntryPrice*cur.Amount + cur.EntryPrice*dipPriceFactor*dipAmount) / total
			e.positions[cur.Coin] = &models.DCAPosition{
				Coin:     cur.Coin,
				Level:    1,
				AvgEntry: avg,
				Amount:   total,
			}
			e.logger.Debug("opened DCA position",
				zap.String("coin", cur.Coin), zap.Float64("avg_entry", avg))
			cur = derivedTrade(cur, avg, total, 1)
			continue

		case open && pos.Level < models.MaxDCALevel && cur.PnlUSD < pos.AvgEntry*dipPriceFactor:
			pos.Level++
			dipAmount := cur.Amount * dipAmountFactor
			pos.AvgEntry = (pos.AvgEntry*pos.Amount + cur.EntryPrice*dipPriceFactor*dipAmount) / (pos.Amount + dipAmount)
			pos.Amount += dipAmount
			e.logger.Debug("escalated DCA position",
				zap.String("coin", cur.Coin), zap.Int("level", pos.Level),
				zap.Float64("avg_entry", pos.AvgEntry))
			cur = derivedTrade(cur, pos.AvgEntry, pos.Amount, pos.Level)
			continue
		}
		break
	}

	// The stop-loss is evaluated per cascade step but acted on only after
	// the whole cascade has been recorded, so the derived entries land first.
	if stopLoss {
		e.logger.Info("stop loss triggered, dropping DCA position",
			zap.String("coin", t.Coin), zap.Float64("pnl_usd", t.PnlUSD))
		delete(e.positions, t.Coin)
	}
}

// derivedTrade clones the triggering trade with the averaged entry price,
// the combined amount and the new ladder level. P&L fields are copied, not
// recomputed. The clone gets its own id so ledger entries stay unique.
func derivedTrade(t models.Trade, avgEntry, amount float64, level int) models.Trade {
	t.ID = uuid.NewString()
	t.EntryPrice = avgEntry
	t.Amount = amount
	t.DCALevel = level
	return t
}

// SetPriceAlert arms (or re-arms) a one-shot alert for the coin.
func (e *Engine) SetPriceAlert(coin string, price float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.alerts[coin] = price
}

// PriceAlerts returns a snapshot of the pending alerts.
func (e *Engine) PriceAlerts() map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]float64, len(e.alerts))
	for coin, target := range e.alerts {
		out[coin] = target
	}
	return out
}

// ScanPriceAlerts checks every pending alert against the cycle's trade. The
// trade's entry price is used for its own coin; any other coin is checked
// against a fresh simulated price. Triggered alerts are removed and
// returned.
func (e *Engine) ScanPriceAlerts(t models.Trade) []models.PriceAlertHit {
	e.mu.Lock()
	defer e.mu.Unlock()

	var hits []models.PriceAlertHit
	for coin, target := range e.alerts {
		price := t.EntryPrice
		if coin != t.Coin {
			price = e.gen.SimulatedPrice()
		}
		if price >= target {
			hits = append(hits, models.PriceAlertHit{Coin: coin, Target: target, Price: price})
			delete(e.alerts, coin)
		}
	}
	return hits
}

// OpenInsiderTrade synthesizes an open trade for the detected token: entry
// at the current simulated price, random size, no exit and zero P&L. The
// trade is appended to the ledger and tracked in the pending set until its
// deferred close resolves it.
func (e *Engine) OpenInsiderTrade(token string) models.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := models.Trade{
		ID:         uuid.NewString(),
		Coin:       token,
		EntryPrice: e.gen.SimulatedPrice(),
		Amount:     e.gen.amount(),
		Timestamp:  time.Now().UTC().Format(models.TimestampLayout),
		Insider:    true,
	}
	e.ledger.Append(t)
	e.pending[t.ID] = t
	return t
}

// SettleInsiderTrade evaluates the deferred close for a pending insider
// trade against the given current price. The trade is closed in place once
// the price has reached 3x entry (take-profit) or fallen to 0.9x entry
// (stop-loss); otherwise it stays open with no further evaluation
// scheduled. Returns the (possibly closed) trade and whether it was closed.
func (e *Engine) SettleInsiderTrade(id string, price float64) (models.Trade, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.pending[id]
	if !ok {
		return models.Trade{}, false
	}
	if price < t.EntryPrice*takeProfitFactor && price > t.EntryPrice*insiderStopFactor {
		return t, false
	}

	t.ExitPrice = round4(price)
	t.PnlUSD = round2((t.ExitPrice - t.EntryPrice) * t.Amount)
	t.PnlPercentage = round2((t.ExitPrice - t.EntryPrice) / t.EntryPrice * 100)
	e.ledger.Replace(t)
	delete(e.pending, id)
	return t, true
}

// PendingInsiderTrades returns a snapshot of the still-open insider trades.
func (e *Engine) PendingInsiderTrades() []models.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Trade, 0, len(e.pending))
	for _, t := range e.pending {
		out = append(out, t)
	}
	return out
}

// ApplySetting updates one runtime setting from its raw text value.
// Non-numeric input is silently ignored and the prior value retained.
func (e *Engine) ApplySetting(name, raw string) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	switch name {
	case "max_loss_limit":
		e.settings.MaxLossLimit = v
	case "slippage_tolerance":
		e.settings.SlippageTolerance = v
	case "profit_target":
		e.settings.ProfitTarget = v
	}
}

// Settings returns the current runtime settings.
func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// ConfigureSettings overwrites the runtime settings, used at bootstrap.
func (e *Engine) ConfigureSettings(s Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings = s
}

// ToggleLiveMode flips the demo/live flag and returns the new value. The
// flag only changes how alerts are labelled; there is no live trading.
func (e *Engine) ToggleLiveMode() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.liveMode = !e.liveMode
	return e.liveMode
}

// LiveMode reports the current mode flag.
func (e *Engine) LiveMode() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.liveMode
}

// TrendScore returns a uniformly random 0..100 sentiment score.
func (e *Engine) TrendScore() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen.rng.Intn(101)
}
