package middleware

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const privateBotText = "This bot is private."

type ctxKey string

const OwnerKey ctxKey = "owner"

// IsOwner reports whether the update passed the owner gate.
func IsOwner(ctx context.Context) bool {
	ok, _ := ctx.Value(OwnerKey).(bool)
	return ok
}

// OwnerOnly drops every update that does not come from the owner's private
// chat. Strangers get a short refusal.
func OwnerOnly(isOwner func(int64) bool) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			o := originOf(update)
			if o.userID != 0 && isOwner(o.userID) && o.chatID == o.userID {
				next(context.WithValue(ctx, OwnerKey, true), b, update)
				return
			}

			slog.Debug("update from stranger ignored", "type", o.kind, "user_id", o.userID, "chat_id", o.chatID)
			switch {
			case update.Message != nil && update.Message.Chat.Type == models.ChatTypePrivate:
				b.SendMessage(ctx, &bot.SendMessageParams{ChatID: o.chatID, Text: privateBotText})
			case update.CallbackQuery != nil:
				b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
					CallbackQueryID: update.CallbackQuery.ID,
					Text:            privateBotText,
				})
			}
		}
	}
}
