package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"meme-trade-bot-go/internal/models"
)

func newTestEngine(seed int64, coins ...string) *Engine {
	return NewEngine(zap.NewNop(), coins, rand.New(rand.NewSource(seed)))
}

func closedTrade(id, coin string, entry, exit, amount float64) models.Trade {
	return models.Trade{
		ID:            id,
		Coin:          coin,
		EntryPrice:    entry,
		ExitPrice:     exit,
		Amount:        amount,
		PnlUSD:        (exit - entry) * amount,
		PnlPercentage: (exit - entry) / entry * 100,
		Timestamp:     "2026-08-29 10:00:00",
	}
}

func TestRecordTrade_WinningTradeOpensNothing(t *testing.T) {
	eng := newTestEngine(1)

	eng.RecordTrade(closedTrade("t1", "bonk", 1.0, 1.2, 100))

	assert.Equal(t, 1, eng.LedgerSize())
	assert.Empty(t, eng.DCAStatus())
}

func TestRecordTrade_LosingTradeCascadesToLevelThree(t *testing.T) {
	eng := newTestEngine(1)

	eng.RecordTrade(closedTrade("t1", "bonk", 1.0, 0.8, 100))

	// One losing trade produces its own entry plus one derived entry per
	// ladder level.
	trades := eng.LastTrades(10)
	assert.Len(t, trades, 4)

	assert.Equal(t, 0, trades[0].DCALevel)
	assert.Equal(t, 1.0, trades[0].EntryPrice)
	assert.Equal(t, 100.0, trades[0].Amount)

	assert.Equal(t, 1, trades[1].DCALevel)
	assert.InDelta(t, 0.9666667, trades[1].EntryPrice, 1e-6)
	assert.InDelta(t, 150.0, trades[1].Amount, 1e-9)

	assert.Equal(t, 2, trades[2].DCALevel)
	assert.InDelta(t, 0.9344444, trades[2].EntryPrice, 1e-6)
	assert.InDelta(t, 225.0, trades[2].Amount, 1e-9)

	assert.Equal(t, 3, trades[3].DCALevel)
	assert.InDelta(t, 0.9032963, trades[3].EntryPrice, 1e-6)
	assert.InDelta(t, 337.5, trades[3].Amount, 1e-9)

	// The P&L of the triggering trade is carried onto every derived entry.
	for _, trade := range trades {
		assert.InDelta(t, -20.0, trade.PnlUSD, 1e-9)
		assert.InDelta(t, -20.0, trade.PnlPercentage, 1e-9)
	}

	// Each derived entry gets its own id.
	ids := map[string]struct{}{}
	for _, trade := range trades {
		ids[trade.ID] = struct{}{}
	}
	assert.Len(t, ids, 4)

	status := eng.DCAStatus()
	assert.Len(t, status, 1)
	assert.Equal(t, "bonk", status[0].Coin)
	assert.Equal(t, 3, status[0].Level)
	assert.Greater(t, status[0].AvgEntry, 0.9)
	assert.Less(t, status[0].AvgEntry, 1.0)
}

func TestRecordTrade_LadderIsCappedAcrossTrades(t *testing.T) {
	eng := newTestEngine(1)

	eng.RecordTrade(closedTrade("t1", "bonk", 1.0, 0.8, 100))
	eng.RecordTrade(closedTrade("t2", "bonk", 1.0, 0.9, 50))

	// The second losing trade finds the ladder already at the cap, so it
	// only adds its own entry.
	assert.Equal(t, 5, eng.LedgerSize())

	status := eng.DCAStatus()
	assert.Len(t, status, 1)
	assert.Equal(t, 3, status[0].Level)
}

func TestRecordTrade_StopLossDropsPositionAfterCascade(t *testing.T) {
	eng := newTestEngine(1)

	// pnl = (2 - 25) * 10 = -230, below -20 * 10.
	eng.RecordTrade(closedTrade("t1", "bonk", 25, 2, 10))

	// The full cascade is still recorded before the position is dropped.
	assert.Equal(t, 4, eng.LedgerSize())
	assert.Empty(t, eng.DCAStatus())
}

func TestRecordTrade_IndependentLaddersPerCoin(t *testing.T) {
	eng := newTestEngine(1)

	eng.RecordTrade(closedTrade("t1", "bonk", 1.0, 0.8, 100))
	eng.RecordTrade(closedTrade("t2", "pepe", 2.0, 1.5, 40))

	status := eng.DCAStatus()
	assert.Len(t, status, 2)
	assert.Equal(t, "bonk", status[0].Coin)
	assert.Equal(t, "pepe", status[1].Coin)
}

func TestTotalStats(t *testing.T) {
	eng := newTestEngine(1)

	eng.RecordTrade(closedTrade("t1", "bonk", 1.0, 1.5, 100)) // +50
	eng.RecordTrade(closedTrade("t2", "pepe", 2.0, 2.2, 50))  // +10

	stats := eng.TotalStats()
	assert.InDelta(t, 60.0, stats.TotalPnl, 0.01)
	assert.InDelta(t, 30.0, stats.AvgPnl, 0.01)
}

func TestTotalStats_EmptyLedger(t *testing.T) {
	eng := newTestEngine(1)

	stats := eng.TotalStats()
	assert.Zero(t, stats.TotalPnl)
	assert.Zero(t, stats.AvgPnl)
}

func TestTopGainerAndLoser(t *testing.T) {
	eng := newTestEngine(1)

	eng.RecordTrade(closedTrade("t1", "bonk", 1.0, 1.5, 100)) // +50
	eng.RecordTrade(closedTrade("t2", "pepe", 2.0, 2.2, 50))  // +10
	eng.RecordTrade(closedTrade("t3", "mew", 1.0, 1.8, 100))  // +80

	assert.Equal(t, "t3", eng.TopGainer().ID)
	assert.Equal(t, "t2", eng.TopLoser().ID)
}

func TestTopGainer_EmptyLedgerFallsBackToGenerated(t *testing.T) {
	eng := newTestEngine(1)

	trade := eng.TopGainer()
	assert.NotEmpty(t, trade.ID)
	// The fallback is synthesized, not stored.
	assert.Equal(t, 0, eng.LedgerSize())
}

func TestPortfolio(t *testing.T) {
	eng := newTestEngine(1, "bonk", "pepe")

	eng.RecordTrade(closedTrade("t1", "bonk", 1.0, 2.0, 10)) // value 20
	eng.RecordTrade(closedTrade("t2", "bonk", 1.0, 3.0, 10)) // value 30
	// Losing trades never count toward holdings.
	eng.RecordTrade(closedTrade("t3", "pepe", 10.0, 1.0, 1))

	p := eng.Portfolio()
	assert.Len(t, p.Holdings, 1)
	assert.Equal(t, "bonk", p.Holdings[0].Coin)
	assert.InDelta(t, 50.0, p.Holdings[0].Value, 0.01)
	assert.InDelta(t, 50.0, p.TotalValue, 0.01)
}

func TestDailyReport(t *testing.T) {
	eng := newTestEngine(1)

	today := closedTrade("t1", "bonk", 1.0, 1.5, 100)
	yesterday := closedTrade("t2", "pepe", 2.0, 2.2, 50)
	yesterday.Timestamp = "2026-08-28 23:59:00"
	eng.RecordTrade(today)
	eng.RecordTrade(yesterday)

	report := eng.DailyReport("2026-08-29")
	assert.Equal(t, "2026-08-29", report.Date)
	assert.Len(t, report.Trades, 1)
	assert.Equal(t, "t1", report.Trades[0].ID)
	assert.InDelta(t, 50.0, report.TotalPnl, 0.01)

	empty := eng.DailyReport("2020-01-01")
	assert.Empty(t, empty.Trades)
	assert.Zero(t, empty.TotalPnl)
}

func TestScanPriceAlerts(t *testing.T) {
	eng := newTestEngine(1)

	eng.SetPriceAlert("bonk", 1.5)
	eng.SetPriceAlert("pepe", 11.0) // above the simulated price range

	hits := eng.ScanPriceAlerts(closedTrade("t1", "bonk", 2.0, 2.1, 10))
	assert.Len(t, hits, 1)
	assert.Equal(t, "bonk", hits[0].Coin)
	assert.Equal(t, 1.5, hits[0].Target)
	assert.Equal(t, 2.0, hits[0].Price)

	// Triggered alerts are one-shot; the unreachable one stays armed.
	remaining := eng.PriceAlerts()
	assert.Len(t, remaining, 1)
	assert.Contains(t, remaining, "pepe")
}

func TestScanPriceAlerts_BelowTarget(t *testing.T) {
	eng := newTestEngine(1)

	eng.SetPriceAlert("bonk", 5.0)
	hits := eng.ScanPriceAlerts(closedTrade("t1", "bonk", 2.0, 2.1, 10))
	assert.Empty(t, hits)
	assert.Len(t, eng.PriceAlerts(), 1)
}

func TestInsiderTrade_TakeProfit(t *testing.T) {
	eng := newTestEngine(1)

	trade := eng.OpenInsiderTrade("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	assert.True(t, trade.Insider)
	assert.False(t, trade.Closed())
	assert.Zero(t, trade.PnlUSD)
	assert.Len(t, eng.PendingInsiderTrades(), 1)
	assert.Equal(t, 1, eng.LedgerSize())

	closed, ok := eng.SettleInsiderTrade(trade.ID, trade.EntryPrice*3)
	assert.True(t, ok)
	assert.True(t, closed.Closed())
	assert.Greater(t, closed.PnlUSD, 0.0)
	assert.InDelta(t, 200.0, closed.PnlPercentage, 0.01)
	assert.Empty(t, eng.PendingInsiderTrades())

	// The ledger entry was updated in place, not appended.
	assert.Equal(t, 1, eng.LedgerSize())
	stored, found := eng.FindTrade(trade.ID)
	assert.True(t, found)
	assert.True(t, stored.Closed())
}

func TestInsiderTrade_StopLoss(t *testing.T) {
	eng := newTestEngine(1)

	trade := eng.OpenInsiderTrade("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

	closed, ok := eng.SettleInsiderTrade(trade.ID, trade.EntryPrice*0.5)
	assert.True(t, ok)
	assert.Less(t, closed.PnlUSD, 0.0)
}

func TestInsiderTrade_StaysOpenBetweenThresholds(t *testing.T) {
	eng := newTestEngine(1)

	trade := eng.OpenInsiderTrade("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

	_, ok := eng.SettleInsiderTrade(trade.ID, trade.EntryPrice*1.5)
	assert.False(t, ok)

	// The trade remains open, both in the pending set and in the ledger.
	assert.Len(t, eng.PendingInsiderTrades(), 1)
	stored, found := eng.FindTrade(trade.ID)
	assert.True(t, found)
	assert.False(t, stored.Closed())
}

func TestInsiderTrade_UnknownID(t *testing.T) {
	eng := newTestEngine(1)

	_, ok := eng.SettleInsiderTrade("missing", 1.0)
	assert.False(t, ok)
}

func TestApplySetting(t *testing.T) {
	eng := newTestEngine(1)

	eng.ApplySetting("max_loss_limit", "-500")
	assert.Equal(t, -500.0, eng.Settings().MaxLossLimit)

	eng.ApplySetting("profit_target", "35")
	assert.Equal(t, 35.0, eng.Settings().ProfitTarget)

	// Malformed values are ignored and the prior value retained.
	eng.ApplySetting("max_loss_limit", "not-a-number")
	assert.Equal(t, -500.0, eng.Settings().MaxLossLimit)

	// Unknown keys are ignored.
	eng.ApplySetting("unknown", "1")
	assert.Equal(t, Settings{MaxLossLimit: -500, SlippageTolerance: 0.05, ProfitTarget: 35}, eng.Settings())
}

func TestRiskLevel(t *testing.T) {
	eng := newTestEngine(1)
	assert.Equal(t, "Low", eng.RiskLevel())

	eng.RecordTrade(closedTrade("t1", "bonk", 1.0, 1.2, 50))
	assert.Equal(t, "Low", eng.RiskLevel())

	// -10 carried onto each of the four cascade entries: total -30.
	eng.RecordTrade(closedTrade("t2", "pepe", 2.0, 1.9, 100))
	assert.Equal(t, "Medium", eng.RiskLevel())

	eng.RecordTrade(closedTrade("t3", "mew", 25, 2, 10)) // -230 each cascade entry
	assert.Equal(t, "High", eng.RiskLevel())
}

func TestToggleLiveMode(t *testing.T) {
	eng := newTestEngine(1)

	assert.False(t, eng.LiveMode())
	assert.True(t, eng.ToggleLiveMode())
	assert.True(t, eng.LiveMode())
	assert.False(t, eng.ToggleLiveMode())
}

func TestTrendScore_Range(t *testing.T) {
	eng := newTestEngine(1)

	for i := 0; i < 200; i++ {
		score := eng.TrendScore()
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 100)
	}
}
