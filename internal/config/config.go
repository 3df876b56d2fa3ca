package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Telegram Telegram `mapstructure:"telegram"`
	Trading  Trading  `mapstructure:"trading"`
	Alerts   Alerts   `mapstructure:"alerts"`
	Insider  Insider  `mapstructure:"insider"`
	Journal  Journal  `mapstructure:"journal"`
	Logger   Logger   `mapstructure:"logger"`
	Server   Server   `mapstructure:"server"`
}

// Telegram holds the Bot API credentials and send limits.
type Telegram struct {
	BotToken       string  `mapstructure:"bot_token"`
	ChatID         string  `mapstructure:"chat_id"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Trading holds the simulation parameters.
type Trading struct {
	Coins             []string `mapstructure:"coins"` // empty = built-in memecoin list
	MaxLossLimit      float64  `mapstructure:"max_loss_limit"`
	SlippageTolerance float64  `mapstructure:"slippage_tolerance"`
	ProfitTarget      float64  `mapstructure:"profit_target"`
}

// Alerts holds the scheduler cadences.
type Alerts struct {
	TickInterval    int    `mapstructure:"tick_interval"`     // seconds between scheduler wakeups
	AlertInterval   int    `mapstructure:"alert_interval"`    // minimum seconds between alert cycles
	DailyReportTime string `mapstructure:"daily_report_time"` // HH:MM, UTC
}

// Insider holds the inbound-message watcher configuration.
type Insider struct {
	AllowedSenders []string `mapstructure:"allowed_senders"`
	CloseDelay     int      `mapstructure:"close_delay"` // seconds until the deferred close fires
}

// Journal holds the configuration for the alert journal.
type Journal struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Server holds the configuration for the status API server.
type Server struct {
	Port int `mapstructure:"port"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("telegram.rate_limit", 1) // messages per second
	viper.SetDefault("telegram.rate_limit_burst", 5)
	viper.SetDefault("trading.max_loss_limit", -200)
	viper.SetDefault("trading.slippage_tolerance", 0.05)
	viper.SetDefault("trading.profit_target", 20)
	viper.SetDefault("alerts.tick_interval", 1)
	viper.SetDefault("alerts.alert_interval", 30)
	viper.SetDefault("alerts.daily_report_time", "20:00")
	viper.SetDefault("insider.close_delay", 30)
	viper.SetDefault("journal.dsn", "trades.db")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("server.port", 8080)

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
