package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/reshetovitsme/channel-digest/internal/di"
	"github.com/reshetovitsme/channel-digest/internal/modules/digest/scheduler"
	"github.com/reshetovitsme/channel-digest/internal/shared/config"
	httpServer "github.com/reshetovitsme/channel-digest/internal/transport/http"
	"github.com/samber/do/v2"
	slogmulti "github.com/samber/slog-multi"
)

func main() {
	// Setup structured logging with multiple handlers using slog-multi
	level := new(slog.LevelVar)
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	jsonHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})

	// Use Fanout to send logs to both handlers
	multiHandler := slogmulti.Fanout(textHandler, jsonHandler)
	logger := slog.New(multiHandler)
	slog.SetDefault(logger)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Setup dependency injection
	injector, err := di.Setup()
	if err != nil {
		slog.Error("Failed to setup dependency injection", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := di.Shutdown(injector); err != nil {
			slog.Error("Error during shutdown", "error", err)
		}
	}()

	// Get services from DI container
	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Debug() {
		level.Set(slog.LevelDebug)
	}

	b, err := do.Invoke[*bot.Bot](injector)
	if err != nil {
		slog.Error("Failed to initialize bot", "error", err)
		os.Exit(1)
	}
	digestScheduler := do.MustInvoke[*scheduler.Scheduler](injector)
	httpServer := do.MustInvoke[*httpServer.Server](injector)

	// Start receiving updates
	if cfg.TelegramWebhookURL != "" {
		if _, err := b.SetWebhook(ctx, &bot.SetWebhookParams{
			URL:         cfg.TelegramWebhookURL,
			SecretToken: cfg.TelegramWebhookSecret,
		}); err != nil {
			slog.Error("Failed to set webhook", "url", cfg.TelegramWebhookURL, "error", err)
			os.Exit(1)
		}
		go b.StartWebhook(ctx)
	} else {
		go b.Start(ctx)
	}

	// Start daily reports
	digestScheduler.Start(ctx)

	// Start HTTP server
	go func() {
		if err := httpServer.Start(); err != nil {
			slog.Error("Failed to start HTTP server", "error", err)
			cancel()
		}
	}()

	slog.Info("Application started",
		"channel", cfg.ChannelID,
		"port", cfg.HTTPPort,
		"webhook", cfg.TelegramWebhookURL != "",
	)
	slog.Info("Press Ctrl+C to stop")

	<-ctx.Done()
	slog.Info("Shutting down...")
}
