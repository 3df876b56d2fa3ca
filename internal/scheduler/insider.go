package scheduler

import (
	"context"
	"regexp"
	"time"

	"github.com/mr-tron/base58"
	"go.uber.org/zap"
)

// tokenPattern matches a base58 run of mint-address length. Candidates are
// still decoded before they count: a real address is exactly 32 bytes.
var tokenPattern = regexp.MustCompile(`[1-9A-HJ-NP-Za-km-z]{43,44}`)

// tokenAddressLen is the decoded size of a valid token address.
const tokenAddressLen = 32

// HandleMessage inspects one inbound chat message. Messages from senders
// outside the allowlist are ignored. The first embedded token address opens
// an insider trade, emits the open alert and arms the deferred close.
func (s *Scheduler) HandleMessage(ctx context.Context, sender, text string) {
	if _, ok := s.allowed[sender]; !ok {
		return
	}

	token := findTokenAddress(text)
	if token == "" {
		return
	}

	trade := s.engine.OpenInsiderTrade(token)
	s.logger.Info("Insider trade opened",
		zap.String("sender", sender),
		zap.String("token", token),
		zap.Float64("entry", trade.EntryPrice))

	if err := s.notifier.InsiderAlert(ctx, trade, true); err != nil {
		s.logger.Warn("Insider open alert failed", zap.Error(err))
	}
	s.scheduleClose(trade.ID)
}

// scheduleClose arms the deferred close for an insider trade. Timers are
// keyed by trade id so shutdown can cancel them.
func (s *Scheduler) scheduleClose(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers[id] = time.AfterFunc(s.cfg.CloseDelay, func() {
		s.settleInsider(context.Background(), id)
	})
}

// settleInsider runs the take-profit/stop-loss check against a fresh
// simulated price. A position that hits neither threshold stays open with
// no further evaluation scheduled.
func (s *Scheduler) settleInsider(ctx context.Context, id string) {
	s.mu.Lock()
	delete(s.timers, id)
	s.mu.Unlock()

	price := s.engine.SimulatedPrice()
	trade, closed := s.engine.SettleInsiderTrade(id, price)
	if !closed {
		if trade.ID != "" {
			s.logger.Debug("Insider trade left open",
				zap.String("token", trade.Coin), zap.Float64("price", price))
		}
		return
	}

	s.logger.Info("Insider trade closed",
		zap.String("token", trade.Coin),
		zap.Float64("exit", trade.ExitPrice),
		zap.Float64("pnl_usd", trade.PnlUSD))
	if err := s.notifier.InsiderAlert(ctx, trade, false); err != nil {
		s.logger.Warn("Insider close alert failed", zap.Error(err))
	}
}

// findTokenAddress returns the first validated token address in the text.
func findTokenAddress(text string) string {
	for _, candidate := range tokenPattern.FindAllString(text, -1) {
		raw, err := base58.Decode(candidate)
		if err == nil && len(raw) == tokenAddressLen {
			return candidate
		}
	}
	return ""
}
