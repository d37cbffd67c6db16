package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/set-night/mindchat/internal/domain"
)

func makeHistory(n int, contentLen int) []domain.Message {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.Message, n)
	for i := range out {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleSystem
		}
		prefix := fmt.Sprintf("m%02d:", i)
		out[i] = domain.Message{
			ID:        fmt.Sprintf("id-%02d", i),
			Role:      role,
			Content:   prefix + strings.Repeat("x", max(contentLen-len(prefix), 0)),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func defaultCfg() domain.ContextConfig {
	return domain.ContextConfig{
		MaxMessages:            20,
		MaxCharsPerMessage:     2000,
		MaxTotalChars:          8000,
		PreserveRecentMessages: 6,
		EnableOptimization:     true,
	}
}

func ids(msgs []domain.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func indexOf(history []domain.Message, id string) int {
	for i, m := range history {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func TestSelectContextMessages_Passthrough(t *testing.T) {
	history := makeHistory(40, 5000)
	cfg := defaultCfg()
	cfg.EnableOptimization = false

	got := SelectContextMessages(history, cfg)
	if len(got) != len(history) {
		t.Fatalf("expected %d messages, got %d", len(history), len(got))
	}
	for i := range got {
		if got[i] != history[i] {
			t.Fatalf("message %d changed", i)
		}
	}

	if got := SelectContextMessages(nil, defaultCfg()); len(got) != 0 {
		t.Errorf("expected empty result for empty input, got %d", len(got))
	}
}

func TestSelectContextMessages_ShortHistoryKeepsRecent(t *testing.T) {
	history := makeHistory(10, 50)
	got := SelectContextMessages(history, defaultCfg())

	want := ids(history[4:])
	if strings.Join(ids(got), ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, ids(got))
	}
}

func TestSelectContextMessages_TruncatesLongContent(t *testing.T) {
	history := makeHistory(2, 50)
	history[1].Content = strings.Repeat("é", 3000)
	original := history[1].Content

	got := SelectContextMessages(history, defaultCfg())
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if n := charCount(got[1].Content); n != 2000 {
		t.Errorf("expected truncated length 2000, got %d", n)
	}
	if !strings.HasSuffix(got[1].Content, "...") {
		t.Error("expected ellipsis marker")
	}
	if got[0].Content != history[0].Content {
		t.Error("short content must be untouched")
	}
	if history[1].Content != original {
		t.Error("input was mutated")
	}
}

func TestSelectContextMessages_ScenarioLargeHistory(t *testing.T) {
	history := makeHistory(30, 100)
	got := SelectContextMessages(history, defaultCfg())

	if len(got) > 20 {
		t.Fatalf("expected at most 20 messages, got %d", len(got))
	}
	for _, m := range history[24:] {
		if indexOf(got, m.ID) < 0 {
			t.Errorf("recent message %s missing", m.ID)
		}
	}

	// older messages: every 3rd from newest older (index 23) backwards
	wantOlder := []string{"id-02", "id-05", "id-08", "id-11", "id-14", "id-17", "id-20", "id-23"}
	gotIDs := ids(got)
	if strings.Join(gotIDs[:len(wantOlder)], ",") != strings.Join(wantOlder, ",") {
		t.Errorf("expected older %v, got %v", wantOlder, gotIDs[:len(wantOlder)])
	}
}

func TestSelectContextMessages_OlderTruncatedToHalf(t *testing.T) {
	history := makeHistory(30, 1500)
	cfg := defaultCfg()
	cfg.MaxTotalChars = 100000
	cfg.PreserveRecentMessages = 2

	got := SelectContextMessages(history, cfg)
	for _, m := range got {
		idx := indexOf(history, m.ID)
		if idx < 28 && charCount(m.Content) != 1000 {
			t.Errorf("older message %s expected 1000 chars, got %d", m.ID, charCount(m.Content))
		}
		if idx >= 28 && charCount(m.Content) != 1500 {
			t.Errorf("recent message %s expected 1500 chars, got %d", m.ID, charCount(m.Content))
		}
	}
}

func TestSelectContextMessages_BudgetTooSmall(t *testing.T) {
	history := makeHistory(30, 500)
	cfg := defaultCfg()
	cfg.MaxTotalChars = 100

	got := SelectContextMessages(history, cfg)
	if len(got) != 0 {
		t.Errorf("expected empty context, got %d messages", len(got))
	}
}

func TestSelectContextMessages_PreserveLargerThanHistory(t *testing.T) {
	history := makeHistory(4, 20)
	cfg := defaultCfg()
	cfg.PreserveRecentMessages = 50

	got := SelectContextMessages(history, cfg)
	if len(got) != 4 {
		t.Errorf("expected whole history, got %d", len(got))
	}
}

func TestSelectContextMessages_Invariants(t *testing.T) {
	cases := []struct {
		n, size int
		cfg     domain.ContextConfig
	}{
		{30, 100, defaultCfg()},
		{30, 3000, defaultCfg()},
		{8, 2000, defaultCfg()},
		{50, 10, domain.ContextConfig{MaxMessages: 5, MaxCharsPerMessage: 100, MaxTotalChars: 1000, PreserveRecentMessages: 10, EnableOptimization: true}},
		{25, 700, domain.ContextConfig{MaxMessages: 10, MaxCharsPerMessage: 600, MaxTotalChars: 2500, PreserveRecentMessages: 3, EnableOptimization: true}},
		{12, 90, domain.ContextConfig{MaxMessages: 20, MaxCharsPerMessage: 2, MaxTotalChars: 50, PreserveRecentMessages: 0, EnableOptimization: true}},
		// leftover budget fits a halved older message but not the next recent one
		{30, 2000, domain.ContextConfig{MaxMessages: 20, MaxCharsPerMessage: 2000, MaxTotalChars: 9000, PreserveRecentMessages: 6, EnableOptimization: true}},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("case%d", i), func(t *testing.T) {
			history := makeHistory(tc.n, tc.size)
			got := SelectContextMessages(history, tc.cfg)

			if len(got) > tc.cfg.MaxMessages {
				t.Errorf("count %d exceeds maxMessages %d", len(got), tc.cfg.MaxMessages)
			}
			if total := totalChars(got); total > tc.cfg.MaxTotalChars {
				t.Errorf("total %d exceeds maxTotalChars %d", total, tc.cfg.MaxTotalChars)
			}

			last := -1
			for _, m := range got {
				idx := indexOf(history, m.ID)
				if idx <= last {
					t.Fatalf("output not a chronological subsequence: %v", ids(got))
				}
				last = idx
			}

			// no older message while a recent one was dropped
			recentStart := len(history) - min(tc.cfg.PreserveRecentMessages, len(history))
			hasOlder := false
			recentIncluded := 0
			for _, m := range got {
				if indexOf(history, m.ID) < recentStart {
					hasOlder = true
				} else {
					recentIncluded++
				}
			}
			if hasOlder && recentIncluded != len(history)-recentStart {
				t.Errorf("older message included while recent messages were dropped: %v", ids(got))
			}
		})
	}
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 2, "he"},
		{"привет мир", 6, "при..."},
	}
	for _, tt := range tests {
		if got := truncateText(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncateText(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestSelectContextMessages_NoOlderAfterRecentOverflow(t *testing.T) {
	history := makeHistory(30, 2000)
	cfg := defaultCfg()
	cfg.MaxTotalChars = 9000

	got := SelectContextMessages(history, cfg)

	want := ids(history[26:])
	if strings.Join(ids(got), ",") != strings.Join(want, ",") {
		t.Errorf("expected only the recent messages that fit %v, got %v", want, ids(got))
	}
}
