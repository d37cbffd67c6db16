package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/repository"
	"github.com/shopspring/decimal"
)

const assistantOverridesKey = "assistantOverrides"

var (
	minTemperature = decimal.Zero
	maxTemperature = decimal.NewFromInt(2)
)

type storedOverride struct {
	domain.AssistantUpdate
	UpdatedAt time.Time `json:"updatedAt"`
}

// AssistantRegistry is the configuration store for assistants. Built-in
// records are layered with persisted overrides. Readers always get copies
// and Update returns the new value.
type AssistantRegistry struct {
	mu           sync.RWMutex
	kv           repository.Storage
	history      *PromptHistory
	builtin      map[string]domain.Assistant
	order        []string
	overrides    map[string]storedOverride
	defaultModel string
	now          func() time.Time
}

func NewAssistantRegistry(kv repository.Storage, history *PromptHistory, builtin []domain.Assistant, defaultModel string) *AssistantRegistry {
	r := &AssistantRegistry{
		kv:           kv,
		history:      history,
		builtin:      make(map[string]domain.Assistant, len(builtin)),
		overrides:    map[string]storedOverride{},
		defaultModel: defaultModel,
		now:          time.Now,
	}
	for _, a := range builtin {
		if _, dup := r.builtin[a.ID]; dup {
			continue
		}
		r.builtin[a.ID] = a.Clone()
		r.order = append(r.order, a.ID)
	}
	r.loadOverrides()
	return r
}

func (r *AssistantRegistry) Get(id string) (domain.Assistant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.resolve(id)
	if !ok {
		return domain.Assistant{}, fmt.Errorf("get assistant %q: %w", id, domain.ErrAssistantNotFound)
	}
	return a, nil
}

// List returns every assistant in declaration order.
func (r *AssistantRegistry) List() []domain.Assistant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Assistant, 0, len(r.order))
	for _, id := range r.order {
		a, _ := r.resolve(id)
		out = append(out, a)
	}
	return out
}

// Update validates and persists u for the assistant and returns the
// resulting record.
func (r *AssistantRegistry) Update(id string, u domain.AssistantUpdate) (domain.Assistant, error) {
	if err := validateAssistantUpdate(u); err != nil {
		return domain.Assistant{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.builtin[id]; !ok {
		return domain.Assistant{}, fmt.Errorf("update assistant %q: %w", id, domain.ErrAssistantNotFound)
	}

	prev, had := r.overrides[id]
	r.overrides[id] = storedOverride{
		AssistantUpdate: prev.AssistantUpdate.Merge(u),
		UpdatedAt:       r.now(),
	}
	if err := r.storeOverrides(); err != nil {
		if had {
			r.overrides[id] = prev
		} else {
			delete(r.overrides, id)
		}
		return domain.Assistant{}, fmt.Errorf("save assistant overrides: %w", err)
	}

	a, _ := r.resolve(id)
	slog.Info("assistant updated", "assistant_id", id)
	return a, nil
}

// UpdateSystemPrompt sets the system prompt and model, then records the
// prompt in the assistant's prompt history. An empty model falls back to
// the default model.
func (r *AssistantRegistry) UpdateSystemPrompt(id, prompt, model string) (domain.Assistant, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return domain.Assistant{}, &domain.ValidationError{Fields: map[string]string{"systemPrompt": "must not be empty"}}
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = r.defaultModel
	}

	a, err := r.Update(id, domain.AssistantUpdate{SystemPrompt: &prompt, Model: &model})
	if err != nil {
		return domain.Assistant{}, err
	}
	if r.history != nil {
		r.history.Save(id, prompt)
	}
	return a, nil
}

// ResetSystemPrompt restores the built-in system prompt.
func (r *AssistantRegistry) ResetSystemPrompt(id string) (domain.Assistant, error) {
	r.mu.RLock()
	base, ok := r.builtin[id]
	r.mu.RUnlock()
	if !ok {
		return domain.Assistant{}, fmt.Errorf("reset assistant %q: %w", id, domain.ErrAssistantNotFound)
	}
	return r.Update(id, domain.AssistantUpdate{SystemPrompt: &base.SystemPrompt})
}

func (r *AssistantRegistry) resolve(id string) (domain.Assistant, bool) {
	base, ok := r.builtin[id]
	if !ok {
		return domain.Assistant{}, false
	}
	ov, ok := r.overrides[id]
	if !ok {
		return base.Clone(), true
	}
	a := base.Apply(ov.AssistantUpdate)
	a.UpdatedAt = ov.UpdatedAt
	return a, true
}

func (r *AssistantRegistry) loadOverrides() {
	raw, ok, err := r.kv.Get(assistantOverridesKey)
	if err != nil {
		slog.Error("load assistant overrides", "error", err)
		return
	}
	if !ok {
		return
	}
	var stored map[string]storedOverride
	if err := json.Unmarshal(raw, &stored); err != nil {
		slog.Warn("assistant overrides are corrupt, ignoring", "error", err)
		return
	}
	for id, ov := range stored {
		if _, known := r.builtin[id]; !known {
			continue
		}
		if err := validateAssistantUpdate(ov.AssistantUpdate); err != nil {
			slog.Warn("ignoring invalid assistant override", "assistant_id", id, "error", err)
			continue
		}
		r.overrides[id] = ov
	}
}

func (r *AssistantRegistry) storeOverrides() error {
	raw, err := json.Marshal(r.overrides)
	if err != nil {
		return err
	}
	return r.kv.Set(assistantOverridesKey, raw)
}

func validateAssistantUpdate(u domain.AssistantUpdate) error {
	fields := map[string]string{}
	if u.Temperature != nil {
		if _, err := parseTemperature(*u.Temperature); err != nil {
			fields["temperature"] = err.Error()
		}
	}
	if u.APIEndpoint != nil && *u.APIEndpoint != "" &&
		!strings.HasPrefix(*u.APIEndpoint, "http://") && !strings.HasPrefix(*u.APIEndpoint, "https://") {
		fields["apiEndpoint"] = "must be an http(s) URL"
	}
	if u.Context != nil {
		if err := u.Context.Validate(); err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				for k, v := range verr.Fields {
					fields["context."+k] = v
				}
			}
		}
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// parseTemperature accepts decimal strings in [0, 2].
func parseTemperature(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", s)
	}
	if d.LessThan(minTemperature) || d.GreaterThan(maxTemperature) {
		return decimal.Zero, fmt.Errorf("must be between %s and %s", minTemperature, maxTemperature)
	}
	return d, nil
}
