package service

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/set-night/mindchat/internal/repository"
)

func newTestStorage(t *testing.T) repository.Storage {
	t.Helper()
	st, err := repository.OpenBolt(filepath.Join(t.TempDir(), "test.bolt"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// fakeClock advances one second on every call so saves get distinct stamps.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newTestConversationStore(t *testing.T) *ConversationStore {
	t.Helper()
	s := NewConversationStore(newTestStorage(t))
	s.now = newFakeClock().Now
	s.newID = sequentialIDs("conv")
	return s
}
