package service

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/repository"
)

const (
	conversationsKey     = "assistantConversations"
	currentConversationP = "currentConversation_"
)

func currentConversationKey(assistantID string) string {
	return currentConversationP + assistantID
}

// ConversationStore keeps every assistant's conversations in one collection.
// Storage failures are logged and degrade to empty results.
type ConversationStore struct {
	mu    sync.Mutex
	kv    repository.Storage
	limit int
	now   func() time.Time
	newID func() string
}

func NewConversationStore(kv repository.Storage) *ConversationStore {
	return &ConversationStore{
		kv:    kv,
		limit: config.MaxRecentConversations,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// LoadRecent returns the assistant's most recently updated conversations.
func (s *ConversationStore) LoadRecent(assistantID string) []domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadAll()
	if err != nil {
		slog.Error("load conversations", "error", err)
		return []domain.Conversation{}
	}
	return s.recent(all, assistantID)
}

// LoadAll returns every stored conversation of the assistant, newest first.
func (s *ConversationStore) LoadAll(assistantID string) []domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadAll()
	if err != nil {
		slog.Error("load conversations", "error", err)
		return []domain.Conversation{}
	}
	return filterSorted(all, assistantID)
}

// Get finds a conversation by id regardless of assistant.
func (s *ConversationStore) Get(conversationID string) (domain.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadAll()
	if err != nil {
		slog.Error("load conversations", "error", err)
		return domain.Conversation{}, false
	}
	for _, c := range all {
		if c.ID == conversationID {
			return c, true
		}
	}
	return domain.Conversation{}, false
}

// Save upserts the assistant's active conversation. The target is
// activeID, else the remembered current conversation, else a new id.
// Empty messages are ignored.
func (s *ConversationStore) Save(assistantID string, messages []domain.Message, activeID string) []domain.Conversation {
	if len(messages) == 0 {
		return []domain.Conversation{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadAll()
	if err != nil {
		slog.Error("load conversations", "error", err)
		return []domain.Conversation{}
	}

	targetID := activeID
	if targetID == "" {
		targetID = s.currentID(assistantID)
	}

	now := s.now()
	title := domain.ConversationTitle(messages)
	idx := -1
	if targetID != "" {
		for i := range all {
			if all[i].ID == targetID && all[i].AssistantID == assistantID {
				idx = i
				break
			}
		}
	}

	if idx >= 0 {
		all[idx].Messages = domain.CloneMessages(messages)
		all[idx].Title = title
		all[idx].LastUpdated = now
	} else {
		// unknown, dangling or foreign id: start a new conversation
		targetID = s.newID()
		all = append(all, domain.Conversation{
			ID:          targetID,
			AssistantID: assistantID,
			Messages:    domain.CloneMessages(messages),
			Title:       title,
			LastUpdated: now,
		})
	}

	if err := s.storeAll(all); err != nil {
		slog.Error("save conversations", "error", err, "assistant_id", assistantID)
		return []domain.Conversation{}
	}
	if err := s.kv.Set(currentConversationKey(assistantID), []byte(targetID)); err != nil {
		slog.Error("save current conversation", "error", err, "assistant_id", assistantID)
	}

	return s.recent(all, assistantID)
}

// Delete removes a conversation and reports whether it was the assistant's
// current one.
func (s *ConversationStore) Delete(conversationID, assistantID string) ([]domain.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadAll()
	if err != nil {
		slog.Error("load conversations", "error", err)
		return []domain.Conversation{}, false
	}

	kept := all[:0]
	for _, c := range all {
		if c.ID != conversationID || c.AssistantID != assistantID {
			kept = append(kept, c)
		}
	}
	if err := s.storeAll(kept); err != nil {
		slog.Error("delete conversation", "error", err, "conversation_id", conversationID)
		return []domain.Conversation{}, false
	}

	wasActive := s.currentID(assistantID) == conversationID
	return s.recent(kept, assistantID), wasActive
}

// Prune deletes the assistant's conversations beyond the keep most recent
// and returns how many were removed. Other assistants are untouched.
func (s *ConversationStore) Prune(assistantID string, keep int) int {
	if keep < 0 {
		keep = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadAll()
	if err != nil {
		slog.Error("load conversations", "error", err)
		return 0
	}

	mine := filterSorted(all, assistantID)
	if len(mine) <= keep {
		return 0
	}
	drop := make(map[string]bool, len(mine)-keep)
	for _, c := range mine[keep:] {
		drop[c.ID] = true
	}

	kept := make([]domain.Conversation, 0, len(all)-len(drop))
	for _, c := range all {
		if !drop[c.ID] {
			kept = append(kept, c)
		}
	}
	if err := s.storeAll(kept); err != nil {
		slog.Error("prune conversations", "error", err, "assistant_id", assistantID)
		return 0
	}
	if drop[s.currentID(assistantID)] {
		s.forget(assistantID)
	}
	return len(drop)
}

// CurrentConversationID returns the remembered pointer, which may dangle.
func (s *ConversationStore) CurrentConversationID(assistantID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID(assistantID)
}

// Current resolves the remembered conversation. A dangling pointer is
// cleared and reported as absent.
func (s *ConversationStore) Current(assistantID string) (domain.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.currentID(assistantID)
	if id == "" {
		return domain.Conversation{}, false
	}
	all, err := s.loadAll()
	if err != nil {
		slog.Error("load conversations", "error", err)
		return domain.Conversation{}, false
	}
	for _, c := range all {
		if c.ID == id && c.AssistantID == assistantID {
			return c, true
		}
	}
	slog.Warn("current conversation not found, resetting", "assistant_id", assistantID, "conversation_id", id)
	s.forget(assistantID)
	return domain.Conversation{}, false
}

func (s *ConversationStore) SetCurrent(assistantID, conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Set(currentConversationKey(assistantID), []byte(conversationID)); err != nil {
		slog.Error("save current conversation", "error", err, "assistant_id", assistantID)
	}
}

func (s *ConversationStore) ForgetCurrent(assistantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forget(assistantID)
}

func (s *ConversationStore) forget(assistantID string) {
	if err := s.kv.Delete(currentConversationKey(assistantID)); err != nil {
		slog.Error("forget current conversation", "error", err, "assistant_id", assistantID)
	}
}

func (s *ConversationStore) currentID(assistantID string) string {
	v, ok, err := s.kv.Get(currentConversationKey(assistantID))
	if err != nil {
		slog.Error("load current conversation", "error", err, "assistant_id", assistantID)
		return ""
	}
	if !ok {
		return ""
	}
	return string(v)
}

func (s *ConversationStore) loadAll() ([]domain.Conversation, error) {
	raw, ok, err := s.kv.Get(conversationsKey)
	if err != nil || !ok {
		return []domain.Conversation{}, err
	}
	var all []domain.Conversation
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (s *ConversationStore) storeAll(all []domain.Conversation) error {
	if all == nil {
		all = []domain.Conversation{}
	}
	raw, err := json.Marshal(all)
	if err != nil {
		return err
	}
	return s.kv.Set(conversationsKey, raw)
}

func (s *ConversationStore) recent(all []domain.Conversation, assistantID string) []domain.Conversation {
	out := filterSorted(all, assistantID)
	if len(out) > s.limit {
		out = out[:s.limit]
	}
	return out
}

func filterSorted(all []domain.Conversation, assistantID string) []domain.Conversation {
	out := make([]domain.Conversation, 0)
	for _, c := range all {
		if c.AssistantID == assistantID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastUpdated.After(out[j].LastUpdated)
	})
	return out
}
