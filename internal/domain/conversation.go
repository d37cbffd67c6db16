package domain

import (
	"time"
	"unicode/utf8"
)

const (
	TitleMaxLen   = 30
	FallbackTitle = "New conversation"
)

type Conversation struct {
	ID          string    `json:"id"`
	AssistantID string    `json:"assistantId"`
	Messages    []Message `json:"messages"`
	Title       string    `json:"title"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// ConversationTitle derives the title from the first user message.
func ConversationTitle(msgs []Message) string {
	for _, m := range msgs {
		if m.Role != RoleUser {
			continue
		}
		if utf8.RuneCountInString(m.Content) <= TitleMaxLen {
			return m.Content
		}
		return string([]rune(m.Content)[:TitleMaxLen]) + "..."
	}
	return FallbackTitle
}
