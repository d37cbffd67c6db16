package service

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/repository"
)

const contextConfigKey = "contextConfig"

type assistantLookup interface {
	Get(id string) (domain.Assistant, error)
}

// ContextSettings resolves the context budget for an assistant:
// global default, then the assistant's defaults, then the user override.
type ContextSettings struct {
	mu         sync.Mutex
	kv         repository.Storage
	assistants assistantLookup
}

func NewContextSettings(kv repository.Storage, assistants assistantLookup) *ContextSettings {
	return &ContextSettings{kv: kv, assistants: assistants}
}

func (s *ContextSettings) Resolve(assistantID string) domain.ContextConfig {
	cfg := config.DefaultContextConfig()
	if a, err := s.assistants.Get(assistantID); err == nil {
		cfg = cfg.Apply(a.Context)
	}
	return cfg.Apply(s.UserOverride())
}

// UserOverride returns the persisted override. Corrupt data reads as empty.
func (s *ContextSettings) UserOverride() domain.ContextOverride {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// SaveUserOverride merges o onto the persisted override.
func (s *ContextSettings) SaveUserOverride(o domain.ContextOverride) (domain.ContextOverride, error) {
	if err := o.Validate(); err != nil {
		return domain.ContextOverride{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.load().Merge(o)
	raw, err := json.Marshal(merged)
	if err != nil {
		return domain.ContextOverride{}, fmt.Errorf("marshal context config: %w", err)
	}
	if err := s.kv.Set(contextConfigKey, raw); err != nil {
		return domain.ContextOverride{}, fmt.Errorf("save context config: %w", err)
	}
	return merged, nil
}

func (s *ContextSettings) ResetUserOverride() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(contextConfigKey); err != nil {
		slog.Error("reset context config", "error", err)
	}
}

func (s *ContextSettings) load() domain.ContextOverride {
	raw, ok, err := s.kv.Get(contextConfigKey)
	if err != nil {
		slog.Error("load context config", "error", err)
		return domain.ContextOverride{}
	}
	if !ok {
		return domain.ContextOverride{}
	}
	var o domain.ContextOverride
	if err := json.Unmarshal(raw, &o); err != nil {
		slog.Warn("context config is corrupt, ignoring", "error", err)
		return domain.ContextOverride{}
	}
	return o
}

// ParseContextOverride reads key=value pairs such as "maxMessages=10".
// Keys are matched case-insensitively.
func ParseContextOverride(pairs []string) (domain.ContextOverride, error) {
	var o domain.ContextOverride
	fields := map[string]string{}

	for _, pair := range pairs {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			fields[pair] = "expected key=value"
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if strings.EqualFold(key, "enableOptimization") {
			b, err := strconv.ParseBool(value)
			if err != nil {
				fields[key] = "must be true or false"
				continue
			}
			o.EnableOptimization = &b
			continue
		}

		var target **int
		switch strings.ToLower(key) {
		case "maxmessages":
			target = &o.MaxMessages
		case "maxcharspermessage":
			target = &o.MaxCharsPerMessage
		case "maxtotalchars":
			target = &o.MaxTotalChars
		case "preserverecentmessages":
			target = &o.PreserveRecentMessages
		default:
			fields[key] = "unknown setting"
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			fields[key] = "must be an integer"
			continue
		}
		*target = &n
	}

	if len(fields) > 0 {
		return domain.ContextOverride{}, &domain.ValidationError{Fields: fields}
	}
	if o.IsEmpty() {
		return o, &domain.ValidationError{Fields: map[string]string{"settings": "nothing to set"}}
	}
	return o, o.Validate()
}
