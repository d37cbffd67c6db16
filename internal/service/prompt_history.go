package service

import (
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/repository"
)

const promptHistoryKey = "prompt-history"

// PromptHistory remembers the last system prompts applied per assistant.
type PromptHistory struct {
	mu    sync.Mutex
	kv    repository.Storage
	limit int
	now   func() time.Time
}

func NewPromptHistory(kv repository.Storage) *PromptHistory {
	return &PromptHistory{kv: kv, limit: config.PromptHistoryLimit, now: time.Now}
}

// Load returns the assistant's prompts, newest first.
func (h *PromptHistory) Load(assistantID string) []domain.PromptHistoryItem {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.view(h.load(), assistantID)
}

// Save records prompt as the assistant's newest entry. Saving the current
// newest prompt again is a no-op; an older duplicate moves to the front.
func (h *PromptHistory) Save(assistantID, prompt string) []domain.PromptHistoryItem {
	if assistantID == "" || strings.TrimSpace(prompt) == "" {
		slog.Warn("refusing to save empty prompt to history", "assistant_id", assistantID)
		return []domain.PromptHistoryItem{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	all := h.load()
	mine := h.view(all, assistantID)
	if len(mine) > 0 && mine[0].Prompt == prompt {
		return mine
	}

	ts := h.now().UnixMilli()
	for _, it := range all {
		// timestamps identify entries for Delete
		if it.AssistantID == assistantID && it.Timestamp >= ts {
			ts = it.Timestamp + 1
		}
	}

	next := make([]domain.PromptHistoryItem, 0, len(all)+1)
	next = append(next, domain.PromptHistoryItem{AssistantID: assistantID, Prompt: prompt, Timestamp: ts})
	kept := 1
	for _, it := range all {
		if it.AssistantID != assistantID {
			next = append(next, it)
			continue
		}
		if it.Prompt == prompt || kept >= h.limit {
			continue
		}
		next = append(next, it)
		kept++
	}

	if err := h.store(next); err != nil {
		slog.Error("save prompt history", "error", err, "assistant_id", assistantID)
		return []domain.PromptHistoryItem{}
	}
	return h.view(next, assistantID)
}

// Delete removes the assistant's entry with the given timestamp.
func (h *PromptHistory) Delete(assistantID string, timestamp int64) []domain.PromptHistoryItem {
	h.mu.Lock()
	defer h.mu.Unlock()

	all := h.load()
	next := make([]domain.PromptHistoryItem, 0, len(all))
	for _, it := range all {
		if it.AssistantID == assistantID && it.Timestamp == timestamp {
			continue
		}
		next = append(next, it)
	}
	if err := h.store(next); err != nil {
		slog.Error("delete prompt history", "error", err, "assistant_id", assistantID)
		return h.view(all, assistantID)
	}
	return h.view(next, assistantID)
}

// Clear drops the history of every assistant.
func (h *PromptHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.kv.Delete(promptHistoryKey); err != nil {
		slog.Error("clear prompt history", "error", err)
	}
}

func (h *PromptHistory) load() []domain.PromptHistoryItem {
	raw, ok, err := h.kv.Get(promptHistoryKey)
	if err != nil {
		slog.Error("load prompt history", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var items []domain.PromptHistoryItem
	if err := json.Unmarshal(raw, &items); err != nil {
		slog.Warn("prompt history is corrupt, resetting", "error", err)
		return nil
	}
	return items
}

func (h *PromptHistory) store(items []domain.PromptHistoryItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return h.kv.Set(promptHistoryKey, raw)
}

func (h *PromptHistory) view(all []domain.PromptHistoryItem, assistantID string) []domain.PromptHistoryItem {
	out := make([]domain.PromptHistoryItem, 0, h.limit)
	for _, it := range all {
		if it.AssistantID == assistantID {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	if len(out) > h.limit {
		out = out[:h.limit]
	}
	return out
}
