package middleware

import "github.com/go-telegram/bot/models"

// origin describes who sent an update and where.
type origin struct {
	kind   string
	chatID int64
	userID int64
}

func originOf(update *models.Update) origin {
	switch {
	case update.Message != nil:
		o := origin{kind: "message", chatID: update.Message.Chat.ID}
		if update.Message.From != nil {
			o.userID = update.Message.From.ID
		}
		return o
	case update.CallbackQuery != nil:
		o := origin{kind: "callback_query", userID: update.CallbackQuery.From.ID}
		if msg := update.CallbackQuery.Message.Message; msg != nil {
			o.chatID = msg.Chat.ID
		}
		return o
	default:
		return origin{kind: "unknown"}
	}
}
