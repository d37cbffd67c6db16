package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/handler"
	"github.com/set-night/mindchat/internal/middleware"
	"github.com/set-night/mindchat/internal/repository"
	"github.com/set-night/mindchat/internal/service"
	"github.com/set-night/mindchat/internal/telegram"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if err := cfg.ValidateBot(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open local storage
	kv, err := repository.Open(cfg.StorageDriver, cfg.StoragePath)
	if err != nil {
		slog.Error("failed to open storage", "driver", cfg.StorageDriver, "path", cfg.StoragePath, "error", err)
		os.Exit(1)
	}
	defer kv.Close()

	// Handler pointer for use in default handler closure
	var h *handler.Handler

	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(),
			middleware.Logging(),
			middleware.OwnerOnly(cfg.IsOwner),
			middleware.RateLimit(middleware.NewLimiter(config.RateLimitPerMinute)),
		),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if h == nil || update.Message == nil {
				return
			}
			h.HandleText(ctx, b, update)
		}),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	// Initialize services
	history := service.NewPromptHistory(kv)
	assistants := service.NewAssistantRegistry(kv, history, config.BuiltinAssistants(), cfg.DefaultModel)
	settings := service.NewContextSettings(kv, assistants)
	store := service.NewConversationStore(kv)
	gateway := service.NewHTTPGateway(cfg.APIKey, cfg.APIEndpoint, cfg.DefaultModel, cfg.RequestTimeout)
	sessions := service.NewSessionService(service.EngineDeps{
		Assistants: assistants,
		Settings:   settings,
		Gateway:    gateway,
		Store:      store,
	},
		config.DefaultAssistantID,
		service.WithNotifier(telegram.NewNotifier(b, cfg.OwnerID)),
		service.WithSaveDebounce(cfg.SaveDebounce),
	)

	h = handler.New(handler.Deps{
		Bot:        b,
		Cfg:        cfg,
		Sessions:   sessions,
		Assistants: assistants,
		Settings:   settings,
		History:    history,
		Store:      store,
		Forms:      service.NewFormRunner(assistants, gateway),
		Models:     gateway,
	})
	h.Register()

	if cfg.DropPendingUpdates {
		if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
			slog.Warn("failed to drop pending updates", "error", err)
		}
	}

	me, err := b.GetMe(ctx)
	if err != nil {
		slog.Error("failed to get bot info", "error", err)
		os.Exit(1)
	}

	slog.Info("starting bot", "username", me.Username, "id", me.ID, "storage", cfg.StorageDriver)
	b.Start(ctx)

	// Stop running generations and write pending conversation changes
	sessions.StopAll()
	slog.Info("bot stopped gracefully")
}
