package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Limiter counts messages per chat in fixed one-minute windows.
type Limiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	buckets map[int64]*bucket
}

type bucket struct {
	start time.Time
	count int
}

func NewLimiter(perMinute int) *Limiter {
	return &Limiter{
		limit:   perMinute,
		window:  time.Minute,
		now:     time.Now,
		buckets: make(map[int64]*bucket),
	}
}

// Allow records one message from chatID and reports whether it is within
// the limit.
func (l *Limiter) Allow(chatID int64) bool {
	if l.limit <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[chatID]
	if !ok || now.Sub(b.start) >= l.window {
		b = &bucket{start: now}
		l.buckets[chatID] = b
	}
	b.count++
	return b.count <= l.limit
}

// RateLimit returns middleware that drops messages over the per-minute limit.
func RateLimit(l *Limiter) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			// callbacks are never limited
			if update.Message == nil {
				next(ctx, b, update)
				return
			}

			chatID := update.Message.Chat.ID
			if !l.Allow(chatID) {
				slog.Debug("rate limited", "chat_id", chatID, "limit", l.limit)
				b.SendMessage(ctx, &bot.SendMessageParams{
					ChatID: chatID,
					Text:   "⏳ Too many messages. Wait a moment.",
				})
				return
			}

			next(ctx, b, update)
		}
	}
}
