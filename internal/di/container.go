package di

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	channelRepo "github.com/reshetovitsme/channel-digest/internal/modules/channel/repository"
	collectorService "github.com/reshetovitsme/channel-digest/internal/modules/collector/service"
	"github.com/reshetovitsme/channel-digest/internal/modules/digest/scheduler"
	feedService "github.com/reshetovitsme/channel-digest/internal/modules/feed/service"
	postRepo "github.com/reshetovitsme/channel-digest/internal/modules/post/repository"
	reportService "github.com/reshetovitsme/channel-digest/internal/modules/report/service"
	"github.com/reshetovitsme/channel-digest/internal/shared/config"
	httpServer "github.com/reshetovitsme/channel-digest/internal/transport/http"
	telegramHandler "github.com/reshetovitsme/channel-digest/internal/transport/telegram"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
)

const shutdownTimeout = 10 * time.Second

// Setup initializes the dependency injection container
func Setup() (do.Injector, error) {
	injector := do.New()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, oops.With("context", "failed to load config").Wrap(err)
		}
		return cfg, nil
	})

	// Register Channel History
	do.Provide(injector, func(i do.Injector) (*channelRepo.MemoryStorage, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return channelRepo.NewMemoryStorage(cfg.ChannelID, cfg.HistoryBufferSize), nil
	})

	// Register Post Ledger
	do.Provide(injector, func(i do.Injector) (postRepo.Repository, error) {
		return postRepo.NewMemoryStorage(), nil
	})

	// Register Collector
	do.Provide(injector, func(i do.Injector) (*collectorService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		history := do.MustInvoke[*channelRepo.MemoryStorage](i)
		ledger := do.MustInvoke[postRepo.Repository](i)
		return collectorService.New(cfg, history, ledger, time.Now), nil
	})

	// Register Report Service
	do.Provide(injector, func(i do.Injector) (*reportService.Service, error) {
		return reportService.New(), nil
	})

	// Register Feed Service
	do.Provide(injector, func(i do.Injector) (*feedService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		ledger := do.MustInvoke[postRepo.Repository](i)
		return feedService.New(cfg.ChannelID, ledger), nil
	})

	// Register Telegram Sender
	do.Provide(injector, func(i do.Injector) (*telegramHandler.Sender, error) {
		return telegramHandler.NewSender(), nil
	})

	// Register Scheduler
	do.Provide(injector, func(i do.Injector) (*scheduler.Scheduler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		collector := do.MustInvoke[*collectorService.Service](i)
		report := do.MustInvoke[*reportService.Service](i)
		sender := do.MustInvoke[*telegramHandler.Sender](i)
		s, err := scheduler.New(cfg, collector, report, sender, scheduler.SystemClock())
		if err != nil {
			return nil, oops.With("context", "failed to create scheduler").Wrap(err)
		}
		return s, nil
	})

	// Register Telegram Handler
	do.Provide(injector, func(i do.Injector) (*telegramHandler.Handler, error) {
		history := do.MustInvoke[*channelRepo.MemoryStorage](i)
		s := do.MustInvoke[*scheduler.Scheduler](i)
		return telegramHandler.New(history, s), nil
	})

	// Register HTTP Server
	do.Provide(injector, func(i do.Injector) (*httpServer.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		feed := do.MustInvoke[*feedService.Service](i)
		ledger := do.MustInvoke[postRepo.Repository](i)
		history := do.MustInvoke[*channelRepo.MemoryStorage](i)
		s := do.MustInvoke[*scheduler.Scheduler](i)
		server := httpServer.New(cfg, feed, ledger, history, s)
		server.SetLogger(slog.Default())
		return server, nil
	})

	// Register Bot (needs to be initialized after handlers are ready)
	do.Provide(injector, func(i do.Injector) (*bot.Bot, error) {
		cfg := do.MustInvoke[*config.Config](i)
		handler := do.MustInvoke[*telegramHandler.Handler](i)

		opts := []bot.Option{
			bot.WithDefaultHandler(handler.HandleUpdate),
			bot.WithServerURL(cfg.TelegramAPIURL),
		}
		if cfg.TelegramWebhookSecret != "" {
			opts = append(opts, bot.WithWebhookSecretToken(cfg.TelegramWebhookSecret))
		}

		b, err := bot.New(cfg.TelegramBotToken, opts...)
		if err != nil {
			return nil, oops.With("context", "failed to create telegram bot").Wrap(err)
		}

		// Register bot commands
		handler.RegisterCommands(b)

		// Set bot in sender
		do.MustInvoke[*telegramHandler.Sender](i).SetBot(b)

		if cfg.TelegramWebhookURL != "" {
			do.MustInvoke[*httpServer.Server](i).SetWebhookHandler(b.WebhookHandler())
		}

		return b, nil
	})

	return injector, nil
}

// Shutdown gracefully shuts down all services
func Shutdown(injector do.Injector) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Stop the daily loop if it exists
	if s, err := do.Invoke[*scheduler.Scheduler](injector); err == nil && s != nil {
		s.Stop()
	}

	// Shutdown HTTP server if it exists
	if server, err := do.Invoke[*httpServer.Server](injector); err == nil && server != nil {
		if err := server.Shutdown(ctx); err != nil {
			return oops.With("context", "failed to shutdown http server").Wrap(err)
		}
	}

	return nil
}
