package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Runs before TestLoadConfig: viper state is global, so once a later test
// registers a directory that contains a config file, a lookup can no longer
// miss.
func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	content := []byte(`
telegram:
  bot_token: "token-123"
  chat_id: "42"

trading:
  coins: ["bonk", "pepe"]
  max_loss_limit: -500

insider:
  allowed_senders: ["insider_channel"]
`)
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), content, 0o644))

	// Act
	cfg, err := LoadConfig(dir)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, "token-123", cfg.Telegram.BotToken)
	assert.Equal(t, "42", cfg.Telegram.ChatID)
	assert.Equal(t, []string{"bonk", "pepe"}, cfg.Trading.Coins)
	assert.Equal(t, -500.0, cfg.Trading.MaxLossLimit)
	assert.Equal(t, []string{"insider_channel"}, cfg.Insider.AllowedSenders)

	// Unset keys fall back to defaults.
	assert.Equal(t, 0.05, cfg.Trading.SlippageTolerance)
	assert.Equal(t, 1, cfg.Alerts.TickInterval)
	assert.Equal(t, 30, cfg.Alerts.AlertInterval)
	assert.Equal(t, "20:00", cfg.Alerts.DailyReportTime)
	assert.Equal(t, 30, cfg.Insider.CloseDelay)
	assert.Equal(t, "trades.db", cfg.Journal.DSN)
	assert.Equal(t, 8080, cfg.Server.Port)
}
