package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/set-night/mindchat/internal/domain"
)

func newTestSessions(t *testing.T) (*SessionService, *ConversationStore, *fakeGateway) {
	t.Helper()
	kv := newTestStorage(t)
	registry, _ := newTestRegistry(t, kv)
	store := NewConversationStore(kv)
	store.newID = sequentialIDs("conv")
	gw := &fakeGateway{reply: Reply{Kind: ReplyContent, Content: "ok"}}

	s := NewSessionService(EngineDeps{
		Assistants: registry,
		Settings:   NewContextSettings(kv, registry),
		Gateway:    gw,
		Store:      store,
	}, "generalist", WithSaveDebounce(time.Hour))
	return s, store, gw
}

func TestSessionService_EngineIsCachedPerAssistant(t *testing.T) {
	s, _, _ := newTestSessions(t)

	a, err := s.Engine("developer")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := s.Engine("developer")
	if a != b {
		t.Error("expected the same engine on second lookup")
	}

	if _, err := s.Engine("nobody"); !errors.Is(err, domain.ErrAssistantNotFound) {
		t.Errorf("expected ErrAssistantNotFound, got %v", err)
	}
}

func TestSessionService_SwitchTo(t *testing.T) {
	s, _, _ := newTestSessions(t)

	if s.ActiveID() != "generalist" {
		t.Fatalf("expected default assistant, got %s", s.ActiveID())
	}
	if _, err := s.SwitchTo("nobody"); err == nil {
		t.Fatal("expected error for unknown assistant")
	}
	if s.ActiveID() != "generalist" {
		t.Error("failed switch must keep the active assistant")
	}

	e, err := s.SwitchTo("developer")
	if err != nil {
		t.Fatal(err)
	}
	active, _ := s.Active()
	if active != e || s.ActiveID() != "developer" {
		t.Error("expected developer in front")
	}
}

func TestSessionService_EngineResumesCurrentConversation(t *testing.T) {
	s, store, _ := newTestSessions(t)
	store.Save("developer", []domain.Message{userMsg("u1", "hello")}, "")

	e, err := s.Engine("developer")
	if err != nil {
		t.Fatal(err)
	}
	if got := e.Messages(); len(got) != 1 || got[0].Content != "hello" {
		t.Errorf("expected resumed log, got %+v", got)
	}
}

func TestSessionService_OpenConversation(t *testing.T) {
	s, store, _ := newTestSessions(t)
	store.Save("product-owner", []domain.Message{userMsg("u1", "roadmap")}, "")
	convs := store.LoadAll("product-owner")
	store.ForgetCurrent("product-owner")

	e, err := s.OpenConversation(convs[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if s.ActiveID() != "product-owner" {
		t.Errorf("expected product-owner in front, got %s", s.ActiveID())
	}
	if e.ConversationID() != convs[0].ID || len(e.Messages()) != 1 {
		t.Errorf("expected conversation loaded, got %s %+v", e.ConversationID(), e.Messages())
	}
	if store.CurrentConversationID("product-owner") != convs[0].ID {
		t.Error("expected conversation marked current")
	}

	if _, err := s.OpenConversation("missing"); !errors.Is(err, domain.ErrConversationNotFound) {
		t.Errorf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestSessionService_DeleteActiveConversationResets(t *testing.T) {
	s, store, _ := newTestSessions(t)

	e, _ := s.Engine("developer")
	if _, err := e.Submit(context.Background(), "first"); err != nil {
		t.Fatal(err)
	}
	e.Flush()
	id := e.ConversationID()
	if id == "" {
		t.Fatal("expected a persisted conversation")
	}

	remaining, err := s.DeleteConversation(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 0 {
		t.Errorf("expected no conversations left, got %d", len(remaining))
	}
	if len(e.Messages()) != 0 || e.ConversationID() != "" {
		t.Error("expected engine reset after deleting its conversation")
	}
	if _, ok := store.Get(id); ok {
		t.Error("deleted conversation came back")
	}
}

func TestSessionService_EnginesLogChanges(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	s, _, _ := newTestSessions(t)
	e, err := s.Engine("generalist")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Submit(context.Background(), "hi"); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "chat log changed") || !strings.Contains(out, "assistant_id=generalist messages=2 last_role=system") {
		t.Errorf("expected log change records, got:\n%s", out)
	}
}
