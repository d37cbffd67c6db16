package handler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/repository"
	"github.com/set-night/mindchat/internal/service"
)

type stubGateway struct{}

func (stubGateway) SendPrompt(context.Context, service.PromptRequest) (service.Reply, error) {
	return service.Reply{Kind: service.ReplyContent, Content: "ok"}, nil
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	kv, err := repository.OpenBolt(filepath.Join(t.TempDir(), "bot.bolt"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { kv.Close() })

	history := service.NewPromptHistory(kv)
	registry := service.NewAssistantRegistry(kv, history, config.BuiltinAssistants(), "gpt-4o-mini")
	settings := service.NewContextSettings(kv, registry)
	store := service.NewConversationStore(kv)
	sessions := service.NewSessionService(service.EngineDeps{
		Assistants: registry,
		Settings:   settings,
		Gateway:    stubGateway{},
		Store:      store,
	}, config.DefaultAssistantID, service.WithSaveDebounce(time.Hour))

	return New(Deps{
		Cfg:        &config.Config{},
		Sessions:   sessions,
		Assistants: registry,
		Settings:   settings,
		History:    history,
		Store:      store,
	})
}

func TestCommandArgs(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/context", ""},
		{"/context set maxMessages=5", "set maxMessages=5"},
		{"/docs\noverview: x", "overview: x"},
		{"  /prompt   be brief  ", "be brief"},
	}
	for _, tt := range tests {
		if got := commandArgs(tt.in); got != tt.want {
			t.Errorf("commandArgs(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCommandName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/docs", "docs"},
		{"/research@mindchat_bot company: x", "research"},
		{"/requirements\nworkingOn: x", "requirements"},
	}
	for _, tt := range tests {
		if got := commandName(tt.in); got != tt.want {
			t.Errorf("commandName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUserMessage(t *testing.T) {
	verr := &domain.ValidationError{Fields: map[string]string{
		"goal":      "must be at least 10 characters",
		"workingOn": "must be at least 5 characters",
	}}
	got := userMessage(fmt.Errorf("run form: %w", verr))
	if !strings.Contains(got, "• goal must be at least 10 characters\n• workingOn") {
		t.Errorf("expected sorted field lines, got %q", got)
	}

	if got := userMessage(domain.ErrRequestInFlight); !strings.Contains(got, "/stop") {
		t.Errorf("unexpected in-flight text %q", got)
	}
	if got := userMessage(&domain.RemoteError{StatusCode: 502}); !strings.Contains(got, "502") {
		t.Errorf("unexpected remote text %q", got)
	}
}

func TestNotifiedByEngine(t *testing.T) {
	if notifiedByEngine(domain.ErrRequestInFlight) || notifiedByEngine(domain.ErrNotRegenerable) {
		t.Error("precondition errors are not notified by the engine")
	}
	if !notifiedByEngine(domain.ErrRequestCancelled) || !notifiedByEngine(errors.New("dial tcp")) {
		t.Error("call failures are notified by the engine")
	}
}

func TestReplyKeyboard(t *testing.T) {
	kb := replyKeyboard(domain.Message{ID: "m1", Liked: true})
	row := kb.InlineKeyboard[0]
	if len(row) != 3 {
		t.Fatalf("expected three buttons, got %d", len(row))
	}
	if row[0].Text != "👍✓" || row[0].CallbackData != "like:m1" {
		t.Errorf("unexpected like button %+v", row[0])
	}
	if row[1].Text != "👎" || row[2].CallbackData != "regen:m1" {
		t.Errorf("unexpected buttons %+v", row)
	}
}

func TestLastReply(t *testing.T) {
	msgs := []domain.Message{
		{ID: "u1", Role: domain.RoleUser},
		{ID: "r1", Role: domain.RoleSystem},
		{ID: "u2", Role: domain.RoleUser},
	}
	if got := lastReply(msgs); got != "r1" {
		t.Errorf("expected r1, got %q", got)
	}
	if got := lastReply(msgs[:1]); got != "" {
		t.Errorf("expected no reply, got %q", got)
	}
}

func TestTemperatureHelpers(t *testing.T) {
	if got := displayTemperature(""); got != "0.5" {
		t.Errorf("expected default 0.5, got %s", got)
	}
	if got := displayTemperature("1.20"); got != "1.2" {
		t.Errorf("expected 1.2, got %s", got)
	}
	if !sameTemperature("0.5", "") || !sameTemperature("1.2", "1.20") || sameTemperature("0", "0.9") {
		t.Error("unexpected temperature comparison")
	}
}

func TestFormatContext(t *testing.T) {
	cfg := domain.ContextConfig{MaxMessages: 10, MaxCharsPerMessage: 2000, MaxTotalChars: 8000, PreserveRecentMessages: 6, EnableOptimization: true}
	text := formatContext("developer", cfg, domain.ContextOverride{MaxMessages: domain.IntPtr(10)})

	if !strings.Contains(text, "maxMessages = 10 (yours)") {
		t.Errorf("expected user override marked, got %q", text)
	}
	if strings.Contains(text, "maxTotalChars = 8000 (yours)") {
		t.Errorf("inherited value marked as user override: %q", text)
	}
}

func TestHistoryPage(t *testing.T) {
	h := newTestHandler(t)
	id := h.sessions.ActiveID()
	for i := 0; i < config.ConversationsPerPage+2; i++ {
		h.store.Save(id, []domain.Message{{ID: fmt.Sprint("u", i), Role: domain.RoleUser, Content: fmt.Sprint("topic ", i)}}, "")
		h.store.ForgetCurrent(id)
	}

	text, kb := h.historyPage(0)
	if !strings.Contains(text, fmt.Sprintf("(%d)", config.ConversationsPerPage+2)) {
		t.Errorf("expected total in header, got %q", text)
	}
	// five conversations plus the pagination row
	if len(kb.InlineKeyboard) != config.ConversationsPerPage+1 {
		t.Fatalf("expected %d rows, got %d", config.ConversationsPerPage+1, len(kb.InlineKeyboard))
	}

	_, kb = h.historyPage(99)
	if len(kb.InlineKeyboard) != 3 {
		t.Errorf("expected the last page clamped with two rows and pagination, got %d rows", len(kb.InlineKeyboard))
	}
}

func TestPromptsPage(t *testing.T) {
	h := newTestHandler(t)

	text, kb := h.promptsPage()
	if !strings.Contains(text, "No system prompts") || len(kb.InlineKeyboard) != 0 {
		t.Errorf("expected empty page, got %q", text)
	}

	if _, err := h.assistants.UpdateSystemPrompt(h.sessions.ActiveID(), "Be terse.", ""); err != nil {
		t.Fatal(err)
	}
	text, kb = h.promptsPage()
	if !strings.Contains(text, "Be terse.") || len(kb.InlineKeyboard) != 1 {
		t.Errorf("expected one prompt, got %q", text)
	}
}
