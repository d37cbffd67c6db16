package domain

import "time"

type Role string

const (
	RoleUser Role = "user"
	// RoleSystem marks assistant-authored replies.
	RoleSystem Role = "system"
)

type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Liked     bool      `json:"liked,omitempty"`
	Disliked  bool      `json:"disliked,omitempty"`
}

// Feedback is the client-local rating of a reply.
type Feedback string

const (
	FeedbackNone    Feedback = ""
	FeedbackLike    Feedback = "like"
	FeedbackDislike Feedback = "dislike"
)

// CloneMessages returns a copy of msgs that shares no backing array.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
