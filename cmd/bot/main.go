package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"meme-trade-bot-go/internal/config"
	"meme-trade-bot-go/internal/engine"
	"meme-trade-bot-go/internal/journal"
	"meme-trade-bot-go/internal/logger"
	"meme-trade-bot-go/internal/notify"
	"meme-trade-bot-go/internal/scheduler"
	"meme-trade-bot-go/internal/server"
	"meme-trade-bot-go/internal/telegram"
)

const (
	probeAttempts = 3
	retryDelay    = 5 * time.Second
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Probe the Telegram API: fixed backoff, then fatal.
	tg := telegram.NewClient(&cfg.Telegram, log)
	user, err := backoff.Retry(ctx, func() (*telegram.User, error) {
		probeCtx, probeCancel := context.WithTimeout(ctx, 10*time.Second)
		defer probeCancel()
		return tg.GetMe(probeCtx)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(retryDelay)),
		backoff.WithMaxTries(probeAttempts),
	)
	if err != nil {
		log.Fatal("Failed to reach Telegram after retries", zap.Error(err))
	}
	log.Info("Bot initialized successfully", zap.String("username", user.Username))

	// Open the alert journal
	jrnl, err := journal.Open(cfg.Journal.DSN)
	if err != nil {
		log.Fatal("Failed to open alert journal", zap.Error(err))
	}
	defer jrnl.Close()

	// Assemble the engine and its collaborators
	eng := engine.NewEngine(log, cfg.Trading.Coins, nil)
	eng.ConfigureSettings(engine.Settings{
		MaxLossLimit:      cfg.Trading.MaxLossLimit,
		SlippageTolerance: cfg.Trading.SlippageTolerance,
		ProfitTarget:      cfg.Trading.ProfitTarget,
	})
	notifier := notify.NewNotifier(tg, nil, log)

	sched := scheduler.New(log, eng, notifier, jrnl, scheduler.Config{
		Tick:            time.Duration(cfg.Alerts.TickInterval) * time.Second,
		AlertInterval:   time.Duration(cfg.Alerts.AlertInterval) * time.Second,
		DailyReportTime: cfg.Alerts.DailyReportTime,
		CloseDelay:      time.Duration(cfg.Insider.CloseDelay) * time.Second,
		AllowedSenders:  cfg.Insider.AllowedSenders,
	}, nil)

	api := server.NewAPIServer(eng, jrnl, cfg.Server.Port, log)
	api.Start()
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		api.Stop(stopCtx)
	}()

	// Run the scheduler, restarting after a fixed delay on an uncaught
	// fault. Only context cancellation ends the loop.
	for {
		runScheduler(ctx, sched, log)
		if ctx.Err() != nil {
			break
		}
		log.Error("Scheduler stopped unexpectedly, restarting", zap.Duration("delay", retryDelay))
		time.Sleep(retryDelay)
	}

	log.Info("Bot has been shut down.")
}

// runScheduler isolates a scheduler crash so the main loop can restart it.
func runScheduler(ctx context.Context, s *scheduler.Scheduler, log *zap.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Scheduler panicked", zap.Any("panic", r))
		}
	}()
	s.Run(ctx)
}
