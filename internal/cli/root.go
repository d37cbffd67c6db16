// Package cli implements the mindctl commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/repository"
	"github.com/set-night/mindchat/internal/service"
	"github.com/spf13/cobra"
)

// app holds the services every command works with.
type app struct {
	cfg        *config.Config
	kv         repository.Storage
	history    *service.PromptHistory
	assistants *service.AssistantRegistry
	settings   *service.ContextSettings
	store      *service.ConversationStore
	gateway    *service.HTTPGateway
}

func openApp(cfg *config.Config) (*app, error) {
	kv, err := repository.Open(cfg.StorageDriver, cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	history := service.NewPromptHistory(kv)
	assistants := service.NewAssistantRegistry(kv, history, config.BuiltinAssistants(), cfg.DefaultModel)
	return &app{
		cfg:        cfg,
		kv:         kv,
		history:    history,
		assistants: assistants,
		settings:   service.NewContextSettings(kv, assistants),
		store:      service.NewConversationStore(kv),
		gateway:    service.NewHTTPGateway(cfg.APIKey, cfg.APIEndpoint, cfg.DefaultModel, cfg.RequestTimeout),
	}, nil
}

func (a *app) engineDeps() service.EngineDeps {
	return service.EngineDeps{
		Assistants: a.assistants,
		Settings:   a.settings,
		Gateway:    a.gateway,
		Store:      a.store,
	}
}

func (a *app) Close() error {
	return a.kv.Close()
}

type appKey struct{}

// appFrom returns the app opened by the root command.
func appFrom(cmd *cobra.Command) *app {
	a, _ := cmd.Context().Value(appKey{}).(*app)
	return a
}

func newRootCmd() *cobra.Command {
	var driver, path, logLevel string

	root := &cobra.Command{
		Use:           "mindctl",
		Short:         "Chat with the configured assistants and manage the local store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if driver != "" {
				cfg.StorageDriver = driver
			}
			if path != "" {
				cfg.StoragePath = path
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}

			slog.SetDefault(slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: cfg.SlogLevel(),
			})))

			a, err := openApp(cfg)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, appKey{}, a))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a := appFrom(cmd); a != nil {
				return a.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&driver, "storage-driver", "", "storage driver: bolt or sqlite (default from STORAGE_DRIVER)")
	root.PersistentFlags().StringVar(&path, "storage-path", "", "storage file (default from STORAGE_PATH)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (default from LOG_LEVEL)")

	root.AddCommand(
		newChatCmd(),
		newConversationsCmd(),
		newContextCmd(),
		newPromptsCmd(),
		newAssistantsCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗", err)
		os.Exit(1)
	}
}
