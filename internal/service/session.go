package service

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/set-night/mindchat/internal/domain"
)

// SessionService owns one Engine per assistant for the single operator and
// tracks which assistant is in front.
type SessionService struct {
	deps EngineDeps
	opts []EngineOption

	mu      sync.Mutex
	engines map[string]*Engine
	active  string
}

func NewSessionService(deps EngineDeps, defaultAssistant string, opts ...EngineOption) *SessionService {
	return &SessionService{
		deps:    deps,
		opts:    opts,
		engines: make(map[string]*Engine),
		active:  defaultAssistant,
	}
}

// Engine returns the engine for assistantID, creating it and resuming its
// remembered conversation on first use.
func (s *SessionService) Engine(assistantID string) (*Engine, error) {
	if _, err := s.deps.Assistants.Get(assistantID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	e, ok := s.engines[assistantID]
	if !ok {
		// options given to the service override the default observer
		opts := append([]EngineOption{WithMessagesObserver(LogChanges(assistantID))}, s.opts...)
		e = NewEngine(assistantID, s.deps, opts...)
		s.engines[assistantID] = e
	}
	s.mu.Unlock()

	if !ok && e.Resume() {
		slog.Debug("conversation resumed", "assistant_id", assistantID, "conversation_id", e.ConversationID())
	}
	return e, nil
}

func (s *SessionService) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Active returns the engine of the assistant in front.
func (s *SessionService) Active() (*Engine, error) {
	return s.Engine(s.ActiveID())
}

// SwitchTo brings assistantID to the front. Engines of other assistants keep
// their state.
func (s *SessionService) SwitchTo(assistantID string) (*Engine, error) {
	e, err := s.Engine(assistantID)
	if err != nil {
		return nil, fmt.Errorf("switch assistant: %w", err)
	}
	s.mu.Lock()
	s.active = assistantID
	s.mu.Unlock()
	return e, nil
}

// OpenConversation loads a stored conversation into its assistant's engine
// and brings that assistant to the front.
func (s *SessionService) OpenConversation(conversationID string) (*Engine, error) {
	conv, ok := s.deps.Store.Get(conversationID)
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	e, err := s.SwitchTo(conv.AssistantID)
	if err != nil {
		return nil, err
	}
	e.SelectConversation(conv.ID, conv.Messages)
	return e, nil
}

// DeleteConversation removes a stored conversation. When it was the one on
// screen the engine is reset as well.
func (s *SessionService) DeleteConversation(conversationID string) ([]domain.Conversation, error) {
	conv, ok := s.deps.Store.Get(conversationID)
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	e, err := s.Engine(conv.AssistantID)
	if err != nil {
		return nil, err
	}
	// a pending save would otherwise bring the deleted conversation back
	e.Flush()

	remaining, wasActive := s.deps.Store.Delete(conv.ID, conv.AssistantID)
	if wasActive || e.ConversationID() == conv.ID {
		e.ResetChat()
	}
	return remaining, nil
}

// StopAll aborts every in-flight call and persists pending changes.
func (s *SessionService) StopAll() {
	s.mu.Lock()
	engines := make([]*Engine, 0, len(s.engines))
	for _, e := range s.engines {
		engines = append(engines, e)
	}
	s.mu.Unlock()

	for _, e := range engines {
		e.Stop()
		e.Flush()
	}
}
