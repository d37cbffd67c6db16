package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Logging returns middleware that logs update processing time.
func Logging() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			start := time.Now()
			o := originOf(update)

			next(ctx, b, update)

			slog.Debug("update processed",
				"type", o.kind,
				"chat_id", o.chatID,
				"user_id", o.userID,
				"duration", time.Since(start),
			)
		}
	}
}
