package telegram

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/set-night/mindchat/internal/domain"
)

const notifyTimeout = 10 * time.Second

// Notifier delivers engine notices to a single chat.
type Notifier struct {
	sender MessageSender
	chatID int64
}

func NewNotifier(sender MessageSender, chatID int64) *Notifier {
	return &Notifier{sender: sender, chatID: chatID}
}

func (n *Notifier) Notify(notice domain.Notice) {
	if n.chatID == 0 || notice.Text == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: n.chatID,
		Text:   NoticeText(notice),
	})
	if err != nil {
		slog.Error("failed to send notice", "level", notice.Level, "error", err)
	}
}

// NoticeText prefixes the notice with an icon for its level.
func NoticeText(notice domain.Notice) string {
	switch notice.Level {
	case domain.NoticeError:
		return "❌ " + notice.Text
	case domain.NoticeSuccess:
		return "✅ " + notice.Text
	default:
		return "ℹ️ " + notice.Text
	}
}
