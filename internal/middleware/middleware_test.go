package middleware

import (
	"testing"
	"time"

	"github.com/go-telegram/bot/models"
)

func TestLimiter_Allow(t *testing.T) {
	l := NewLimiter(2)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.Allow(1) || !l.Allow(1) {
		t.Fatal("first two messages must pass")
	}
	if l.Allow(1) {
		t.Error("third message in the window must be limited")
	}
	if !l.Allow(2) {
		t.Error("other chats have their own window")
	}

	now = now.Add(time.Minute)
	if !l.Allow(1) {
		t.Error("a new window must reset the count")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	l := NewLimiter(0)
	for i := 0; i < 100; i++ {
		if !l.Allow(1) {
			t.Fatal("zero limit disables limiting")
		}
	}
}

func TestOriginOf(t *testing.T) {
	msg := &models.Update{Message: &models.Message{
		Chat: models.Chat{ID: 10},
		From: &models.User{ID: 20},
	}}
	if o := originOf(msg); o.kind != "message" || o.chatID != 10 || o.userID != 20 {
		t.Errorf("unexpected origin %+v", o)
	}

	cb := &models.Update{CallbackQuery: &models.CallbackQuery{
		From: models.User{ID: 30},
		Message: models.MaybeInaccessibleMessage{
			Message: &models.Message{Chat: models.Chat{ID: 30}},
		},
	}}
	if o := originOf(cb); o.kind != "callback_query" || o.chatID != 30 || o.userID != 30 {
		t.Errorf("unexpected origin %+v", o)
	}

	if o := originOf(&models.Update{}); o.kind != "unknown" {
		t.Errorf("unexpected origin %+v", o)
	}
}
