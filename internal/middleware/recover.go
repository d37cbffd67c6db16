package middleware

import (
	"context"
	"log/slog"
	"runtime/debug"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Recover returns middleware that recovers from panics and tells the chat
// the command failed.
func Recover() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				o := originOf(update)
				slog.Error("panic recovered in handler",
					"panic", r,
					"type", o.kind,
					"chat_id", o.chatID,
					"stack", string(debug.Stack()),
				)
				if o.chatID != 0 {
					b.SendMessage(ctx, &bot.SendMessageParams{
						ChatID: o.chatID,
						Text:   "❌ Something went wrong handling that.",
					})
				}
			}()
			next(ctx, b, update)
		}
	}
}
