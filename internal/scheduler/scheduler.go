package scheduler

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"meme-trade-bot-go/internal/engine"
	"meme-trade-bot-go/internal/journal"
	"meme-trade-bot-go/internal/models"
)

// Notifier is the outbound alert boundary the scheduler emits through.
type Notifier interface {
	TradeAlert(ctx context.Context, t models.Trade, action models.Action) error
	PriceAlert(ctx context.Context, hit models.PriceAlertHit) error
	DailyReport(ctx context.Context, r models.DailyReport) error
	InsiderAlert(ctx context.Context, t models.Trade, opened bool) error
}

// JournalWriter is the best-effort log sink, one line per alert cycle.
type JournalWriter interface {
	Append(e journal.Entry) error
}

// Config holds the scheduler cadences and the insider-watcher setup.
type Config struct {
	Tick            time.Duration // scheduler wakeup period
	AlertInterval   time.Duration // minimum spacing between alert cycles
	DailyReportTime string        // HH:MM, UTC
	CloseDelay      time.Duration // insider deferred-close delay
	AllowedSenders  []string
}

// DefaultConfig returns the stock cadences: 1s tick, 30s alert gate,
// 20:00 UTC report, 30s insider close.
func DefaultConfig() Config {
	return Config{
		Tick:            time.Second,
		AlertInterval:   30 * time.Second,
		DailyReportTime: "20:00",
		CloseDelay:      30 * time.Second,
	}
}

// Scheduler drives the simulation: a 1-second tick gated by a rate limiter
// runs full alert cycles, a 1-minute tick fires the once-daily rollup, and
// HandleMessage feeds the insider watcher. All engine state is mutated
// through the engine's own lock, so timer callbacks are safe.
type Scheduler struct {
	logger   *zap.Logger
	engine   *engine.Engine
	notifier Notifier
	journal  JournalWriter
	cfg      Config
	limiter  *rate.Limiter
	rng      *rand.Rand
	allowed  map[string]struct{}

	mu            sync.Mutex
	timers        map[string]*time.Timer // pending insider closes by trade id
	lastReportDay string
}

// New creates a scheduler. journal may be nil to run without a log sink; a
// nil rng gets a time-seeded source.
func New(logger *zap.Logger, eng *engine.Engine, notifier Notifier, jw JournalWriter, cfg Config, rng *rand.Rand) *Scheduler {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	if cfg.AlertInterval <= 0 {
		cfg.AlertInterval = 30 * time.Second
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedSenders))
	for _, s := range cfg.AllowedSenders {
		allowed[s] = struct{}{}
	}
	return &Scheduler{
		logger:   logger,
		engine:   eng,
		notifier: notifier,
		journal:  jw,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Every(cfg.AlertInterval), 1),
		rng:      rng,
		allowed:  allowed,
		timers:   make(map[string]*time.Timer),
	}
}

// Run blocks until the context is cancelled. Pending insider-close timers
// are cancelled on the way out.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("Starting alert scheduler",
		zap.Duration("tick", s.cfg.Tick),
		zap.Duration("alert_interval", s.cfg.AlertInterval))

	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()
	reportTicker := time.NewTicker(time.Minute)
	defer reportTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping alert scheduler...")
			s.cancelPendingCloses()
			return
		case <-ticker.C:
			if s.limiter.Allow() {
				s.cycle(ctx)
			}
		case now := <-reportTicker.C:
			s.checkDailyReport(ctx, now.UTC())
		}
	}
}

// cycle performs one full alert cycle: generate, record, classify, notify,
// journal, scan price alerts. Every downstream failure is logged and
// swallowed; the simulation never stops over I/O.
func (s *Scheduler) cycle(ctx context.Context) {
	trade := s.engine.GenerateTrade()
	s.engine.RecordTrade(trade)
	action := s.classify()

	s.logger.Info("Alert cycle",
		zap.String("coin", trade.Coin),
		zap.String("action", string(action)),
		zap.Float64("pnl_usd", trade.PnlUSD))

	if err := s.notifier.TradeAlert(ctx, trade, action); err != nil {
		s.logger.Warn("Trade alert failed", zap.Error(err))
	}

	if s.journal != nil {
		entry := journal.Entry{
			Timestamp: trade.Timestamp,
			Coin:      trade.Coin,
			Action:    string(action),
			PnlUSD:    trade.PnlUSD,
		}
		if err := s.journal.Append(entry); err != nil {
			s.logger.Warn("Journal write failed", zap.Error(err))
		}
	}

	for _, hit := range s.engine.ScanPriceAlerts(trade) {
		s.logger.Info("Price alert triggered",
			zap.String("coin", hit.Coin), zap.Float64("target", hit.Target))
		if err := s.notifier.PriceAlert(ctx, hit); err != nil {
			s.logger.Warn("Price alert notification failed", zap.Error(err))
		}
	}
}

// classify draws the cycle's action: Buy 34%, Sell 33%, Hold 33%.
func (s *Scheduler) classify() models.Action {
	switch r := s.rng.Float64(); {
	case r < 0.34:
		return models.ActionBuy
	case r < 0.67:
		return models.ActionSell
	default:
		return models.ActionHold
	}
}

// checkDailyReport fires the rollup once per UTC calendar day, the first
// time the minute ticker lands at or past the configured time-of-day.
func (s *Scheduler) checkDailyReport(ctx context.Context, now time.Time) {
	at, err := time.Parse("15:04", s.cfg.DailyReportTime)
	if err != nil {
		return
	}
	if now.Hour()*60+now.Minute() < at.Hour()*60+at.Minute() {
		return
	}

	day := now.Format("2006-01-02")
	s.mu.Lock()
	if s.lastReportDay == day {
		s.mu.Unlock()
		return
	}
	s.lastReportDay = day
	s.mu.Unlock()

	report := s.engine.DailyReport(day)
	s.logger.Info("Emitting daily report",
		zap.String("date", day),
		zap.Int("trades", len(report.Trades)),
		zap.Float64("total_pnl", report.TotalPnl))
	if err := s.notifier.DailyReport(ctx, report); err != nil {
		s.logger.Warn("Daily report failed", zap.Error(err))
	}
}

// cancelPendingCloses stops every scheduled insider close.
func (s *Scheduler) cancelPendingCloses() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// pendingCloses reports how many deferred closes are still armed.
func (s *Scheduler) pendingCloses() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
