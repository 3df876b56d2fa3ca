package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"meme-trade-bot-go/internal/models"
)

// Sender is the outbound message transport, satisfied by telegram.Client.
type Sender interface {
	SendMessage(ctx context.Context, text string) error
	SendPhoto(ctx context.Context, photo []byte, caption string) error
}

// CardRenderer turns a trade record into a PNG trade card. Rendering is
// pure presentation and lives behind this boundary; the engine never sees
// image data.
type CardRenderer interface {
	Render(t models.Trade) ([]byte, error)
}

// ErrNoRenderer is returned by NoopRenderer; the notifier treats it as the
// expected "text-only deployment" case rather than a failure.
var ErrNoRenderer = errors.New("no card renderer configured")

// NoopRenderer is the default renderer when no card pipeline is wired in.
type NoopRenderer struct{}

func (NoopRenderer) Render(models.Trade) ([]byte, error) { return nil, ErrNoRenderer }

// Notifier formats and delivers alerts. Card or photo failures degrade to a
// text-only message; delivery errors are returned for the caller to log,
// never fatal.
type Notifier struct {
	sender   Sender
	renderer CardRenderer
	logger   *zap.Logger
}

// NewNotifier creates a notifier over the given transport. A nil renderer
// defaults to NoopRenderer.
func NewNotifier(sender Sender, renderer CardRenderer, logger *zap.Logger) *Notifier {
	if renderer == nil {
		renderer = NoopRenderer{}
	}
	return &Notifier{sender: sender, renderer: renderer, logger: logger}
}

// TradeAlert delivers the per-cycle alert: trade card photo plus the
// Markdown summary, degrading to text-only if the card cannot be produced
// or sent.
func (n *Notifier) TradeAlert(ctx context.Context, t models.Trade, action models.Action) error {
	text := FormatTradeAlert(t, action)

	card, err := n.renderer.Render(t)
	if err == nil {
		err = n.sender.SendPhoto(ctx, card, fmt.Sprintf("%s | %s", t.Coin, action))
	}
	if err != nil {
		if !errors.Is(err, ErrNoRenderer) {
			n.logger.Warn("Trade card failed, falling back to text-only alert", zap.Error(err))
			text += "\n*Error:* photo failed, text-only alert ⚠️"
		}
		return n.sender.SendMessage(ctx, text)
	}
	return n.sender.SendMessage(ctx, text)
}

// PriceAlert delivers a triggered price-alert notification.
func (n *Notifier) PriceAlert(ctx context.Context, hit models.PriceAlertHit) error {
	text := fmt.Sprintf("*Price Alert* 🔔\n*%s* reached $%.4f (target $%.4f)", hit.Coin, hit.Price, hit.Target)
	return n.sender.SendMessage(ctx, text)
}

// DailyReport delivers the once-a-day rollup.
func (n *Notifier) DailyReport(ctx context.Context, r models.DailyReport) error {
	var b strings.Builder
	fmt.Fprintf(&b, "*Daily Report %s* 📊\nTotal PnL: $%.2f\n", r.Date, r.TotalPnl)
	if len(r.Trades) == 0 {
		b.WriteString("No trades today.")
	}
	for _, t := range r.Trades {
		fmt.Fprintf(&b, "%s - PnL: $%.2f (%.2f%%)\n", t.Coin, t.PnlUSD, t.PnlPercentage)
	}
	return n.sender.SendMessage(ctx, strings.TrimRight(b.String(), "\n"))
}

// InsiderAlert delivers the open or close notification for an insider trade.
func (n *Notifier) InsiderAlert(ctx context.Context, t models.Trade, opened bool) error {
	var text string
	if opened {
		text = fmt.Sprintf("*Insider Entry* 🕵️\n*Token:* %s\n*Entry:* $%.4f | *Amount:* %.2f\n*Time:* %s UTC",
			t.Coin, t.EntryPrice, t.Amount, t.Timestamp)
	} else {
		text = fmt.Sprintf("*Insider Exit* 🕵️\n*Token:* %s\n*Entry:* $%.4f | *Exit:* $%.4f\n*PnL:* $%.2f (%.2f%%)",
			t.Coin, t.EntryPrice, t.ExitPrice, t.PnlUSD, t.PnlPercentage)
	}
	return n.sender.SendMessage(ctx, text)
}

// FormatTradeAlert renders the Markdown body of a trade alert.
func FormatTradeAlert(t models.Trade, action models.Action) string {
	emoji := "📉⚠️"
	if t.PnlUSD >= 0 {
		emoji = "💰📈"
	}

	var actionText string
	switch action {
	case models.ActionBuy:
		actionText = "BUY 🚀"
	case models.ActionSell:
		actionText = "SELL 💸"
	default:
		actionText = "HOLD 🌱"
	}

	exit := "N/A"
	if t.Closed() {
		exit = fmt.Sprintf("$%.4f", t.ExitPrice)
	}

	return fmt.Sprintf(
		"*%s Alert* %s (Demo Mode - Simulated)\n*Coin:* %s 🪙\n*Entry:* $%.4f 📥 | *Exit:* %s 📤\n*PnL:* $%.2f (%.2f%%) 💹\n*Time:* %s UTC ⏰",
		actionText, emoji, t.Coin, t.EntryPrice, exit, t.PnlUSD, t.PnlPercentage, t.Timestamp)
}
