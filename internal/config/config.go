package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Telegram
	BotToken           string `env:"BOT_TOKEN"`
	OwnerID            int64  `env:"OWNER_ID"`
	DropPendingUpdates bool   `env:"BOT_DROP_PENDING_UPDATES" envDefault:"false"`

	// Remote completion API
	APIKey         string        `env:"API_KEY"`
	APIEndpoint    string        `env:"API_ENDPOINT" envDefault:"https://api.openai.com/v1/chat/completions"`
	DefaultModel   string        `env:"DEFAULT_MODEL" envDefault:"gpt-4o-mini"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"90s"`

	// Local storage
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"bolt"`
	StoragePath   string `env:"STORAGE_PATH" envDefault:"data/mindchat.bolt"`

	SaveDebounce time.Duration `env:"SAVE_DEBOUNCE" envDefault:"1s"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = RequestTimeout
	}
	if cfg.SaveDebounce <= 0 {
		cfg.SaveDebounce = SaveDebounce
	}
	return cfg, nil
}

// ValidateBot checks the settings only the Telegram front-end needs.
func (c *Config) ValidateBot() error {
	var missing []string
	if c.BotToken == "" {
		missing = append(missing, "BOT_TOKEN")
	}
	if c.OwnerID == 0 {
		missing = append(missing, "OWNER_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) IsOwner(telegramID int64) bool {
	return c.OwnerID != 0 && c.OwnerID == telegramID
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
