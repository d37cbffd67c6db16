package service

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/set-night/mindchat/internal/domain"
)

func userMsg(id, content string) domain.Message {
	return domain.Message{ID: id, Role: domain.RoleUser, Content: content}
}

func replyMsg(id, content string) domain.Message {
	return domain.Message{ID: id, Role: domain.RoleSystem, Content: content}
}

func TestConversationStore_SaveCreatesAndUpdates(t *testing.T) {
	s := newTestConversationStore(t)

	list := s.Save("dev", []domain.Message{userMsg("1", "Hello")}, "")
	if len(list) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(list))
	}
	id := list[0].ID
	if list[0].Title != "Hello" {
		t.Errorf("expected title Hello, got %q", list[0].Title)
	}
	if s.CurrentConversationID("dev") != id {
		t.Errorf("expected current pointer %s, got %s", id, s.CurrentConversationID("dev"))
	}

	list = s.Save("dev", []domain.Message{userMsg("1", "Hello"), replyMsg("2", "Hi")}, "")
	if len(list) != 1 || list[0].ID != id {
		t.Fatalf("expected update of %s, got %+v", id, list)
	}
	if len(list[0].Messages) != 2 {
		t.Errorf("expected 2 messages, got %d", len(list[0].Messages))
	}
}

func TestConversationStore_SaveEmptyIsNoop(t *testing.T) {
	s := newTestConversationStore(t)
	if list := s.Save("dev", nil, ""); len(list) != 0 {
		t.Errorf("expected empty result, got %d", len(list))
	}
	if s.CurrentConversationID("dev") != "" {
		t.Error("empty save must not set a current conversation")
	}
}

func TestConversationStore_TitleFallback(t *testing.T) {
	s := newTestConversationStore(t)
	list := s.Save("dev", []domain.Message{replyMsg("1", "greeting")}, "")
	if list[0].Title != domain.FallbackTitle {
		t.Errorf("expected fallback title, got %q", list[0].Title)
	}

	long := "This is a rather long first message for the title"
	list = s.Save("dev", []domain.Message{userMsg("2", long)}, "")
	if list[0].Title != long[:30]+"..." {
		t.Errorf("unexpected title %q", list[0].Title)
	}
}

func TestConversationStore_RecentLimitAndOrder(t *testing.T) {
	s := newTestConversationStore(t)
	for i := 0; i < 7; i++ {
		s.ForgetCurrent("dev")
		s.Save("dev", []domain.Message{userMsg("m", "q")}, "")
	}

	recent := s.LoadRecent("dev")
	if len(recent) != 5 {
		t.Fatalf("expected 5 recent, got %d", len(recent))
	}
	for i := 1; i < len(recent); i++ {
		if recent[i].LastUpdated.After(recent[i-1].LastUpdated) {
			t.Fatal("recent conversations not sorted newest first")
		}
	}
	if recent[0].ID != "conv-7" {
		t.Errorf("expected newest conv-7 first, got %s", recent[0].ID)
	}
	if all := s.LoadAll("dev"); len(all) != 7 {
		t.Errorf("expected 7 stored conversations, got %d", len(all))
	}
}

func TestConversationStore_DanglingPointerAllocatesNewID(t *testing.T) {
	s := newTestConversationStore(t)
	s.SetCurrent("dev", "gone")

	list := s.Save("dev", []domain.Message{userMsg("1", "Hello")}, "")
	if list[0].ID == "gone" {
		t.Fatal("dangling pointer must not be reused")
	}
	if s.CurrentConversationID("dev") != list[0].ID {
		t.Error("pointer should move to the new conversation")
	}
}

func TestConversationStore_CurrentClearsDangling(t *testing.T) {
	s := newTestConversationStore(t)
	s.SetCurrent("dev", "gone")
	if _, ok := s.Current("dev"); ok {
		t.Fatal("expected no current conversation")
	}
	if s.CurrentConversationID("dev") != "" {
		t.Error("dangling pointer should be cleared")
	}
}

func TestConversationStore_ExplicitActiveID(t *testing.T) {
	s := newTestConversationStore(t)
	first := s.Save("dev", []domain.Message{userMsg("1", "first")}, "")[0].ID
	s.ForgetCurrent("dev")
	second := s.Save("dev", []domain.Message{userMsg("2", "second")}, "")[0].ID

	s.Save("dev", []domain.Message{userMsg("1", "first"), replyMsg("3", "answer")}, first)
	c, ok := s.Get(first)
	if !ok || len(c.Messages) != 2 {
		t.Fatalf("expected explicit id %s updated, got %+v", first, c)
	}
	if c2, _ := s.Get(second); len(c2.Messages) != 1 {
		t.Error("other conversation must be untouched")
	}
	if s.CurrentConversationID("dev") != first {
		t.Error("explicit id should become current")
	}
}

func TestConversationStore_Isolation(t *testing.T) {
	s := newTestConversationStore(t)
	var aIDs []string
	for i := 0; i < 5; i++ {
		s.ForgetCurrent("a")
		aIDs = append(aIDs, s.Save("a", []domain.Message{userMsg("x", "alpha")}, "")[0].ID)
	}
	for i := 0; i < 3; i++ {
		s.ForgetCurrent("b")
		s.Save("b", []domain.Message{userMsg("y", "beta")}, "")
	}

	before, _ := json.Marshal(s.LoadAll("b"))
	list, _ := s.Delete(aIDs[2], "a")
	after, _ := json.Marshal(s.LoadAll("b"))

	if len(list) != 4 {
		t.Errorf("expected 4 conversations for a, got %d", len(list))
	}
	if !bytes.Equal(before, after) {
		t.Errorf("assistant b conversations changed:\nbefore %s\nafter  %s", before, after)
	}
}

func TestConversationStore_ForeignIDLeavesOtherAssistant(t *testing.T) {
	s := newTestConversationStore(t)
	bID := s.Save("b", []domain.Message{userMsg("y", "beta")}, "")[0].ID
	before, _ := json.Marshal(s.LoadAll("b"))

	list := s.Save("a", []domain.Message{userMsg("x", "alpha overwrites")}, bID)
	if len(list) != 1 || list[0].ID == bID || list[0].AssistantID != "a" {
		t.Fatalf("expected a new conversation for a, got %+v", list)
	}
	if _, wasActive := s.Delete(bID, "a"); wasActive {
		t.Error("b's conversation reported as a's current one")
	}
	s.SetCurrent("a", bID)
	if _, ok := s.Current("a"); ok {
		t.Error("a resolved b's conversation as current")
	}

	after, _ := json.Marshal(s.LoadAll("b"))
	if !bytes.Equal(before, after) {
		t.Errorf("assistant b conversations changed:\nbefore %s\nafter  %s", before, after)
	}
}

func TestConversationStore_DeleteActive(t *testing.T) {
	s := newTestConversationStore(t)
	id := s.Save("dev", []domain.Message{userMsg("1", "Hello")}, "")[0].ID

	list, wasActive := s.Delete(id, "dev")
	if !wasActive {
		t.Fatal("expected wasActive for current conversation")
	}
	if len(list) != 0 {
		t.Errorf("expected empty list, got %d", len(list))
	}
	for _, c := range s.LoadRecent("dev") {
		if c.ID == id {
			t.Fatal("deleted conversation still listed")
		}
	}

	next := s.Save("dev", []domain.Message{userMsg("2", "again")}, "")
	if next[0].ID == id {
		t.Error("next save must allocate a new id")
	}
}

func TestConversationStore_DeleteInactive(t *testing.T) {
	s := newTestConversationStore(t)
	first := s.Save("dev", []domain.Message{userMsg("1", "one")}, "")[0].ID
	s.ForgetCurrent("dev")
	s.Save("dev", []domain.Message{userMsg("2", "two")}, "")

	if _, wasActive := s.Delete(first, "dev"); wasActive {
		t.Error("deleting a non-current conversation reported active")
	}
}

func TestConversationStore_CorruptData(t *testing.T) {
	kv := newTestStorage(t)
	if err := kv.Set(conversationsKey, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	s := NewConversationStore(kv)

	if list := s.LoadRecent("dev"); len(list) != 0 {
		t.Errorf("expected empty list on corrupt data, got %d", len(list))
	}
	if list := s.Save("dev", []domain.Message{userMsg("1", "x")}, ""); len(list) != 0 {
		t.Errorf("expected empty result on corrupt data, got %d", len(list))
	}
	if _, ok := s.Get("anything"); ok {
		t.Error("expected miss on corrupt data")
	}
}

func TestConversationStore_Prune(t *testing.T) {
	s := newTestConversationStore(t)
	for i := 0; i < 8; i++ {
		s.ForgetCurrent("a")
		s.Save("a", []domain.Message{userMsg("x", "q")}, "")
	}
	s.Save("b", []domain.Message{userMsg("y", "q")}, "")
	s.SetCurrent("a", "conv-1")

	if removed := s.Prune("a", 5); removed != 3 {
		t.Fatalf("expected 3 removed, got %d", removed)
	}
	if n := len(s.LoadAll("a")); n != 5 {
		t.Errorf("expected 5 left, got %d", n)
	}
	if n := len(s.LoadAll("b")); n != 1 {
		t.Errorf("assistant b affected, has %d", n)
	}
	if s.CurrentConversationID("a") != "" {
		t.Error("pointer to pruned conversation should be cleared")
	}
}
