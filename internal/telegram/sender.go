package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindchat/internal/config"
)

// MessageSender is the part of *bot.Bot used for outgoing text.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// SendLongMessage sends text split into Telegram-sized parts. The markup, if
// any, is attached to the last part. Markdown that Telegram rejects is
// resent as plain text.
func SendLongMessage(ctx context.Context, b MessageSender, chatID int64, text string, markup models.ReplyMarkup) (*models.Message, error) {
	text = FixMarkdown(text)
	parts := SplitMessage(text, config.MaxTelegramMessageLen)

	var last *models.Message
	for i, part := range parts {
		params := &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      part,
			ParseMode: models.ParseModeMarkdownV1,
		}
		if i == len(parts)-1 && markup != nil {
			params.ReplyMarkup = markup
		}

		msg, err := b.SendMessage(ctx, params)
		if err != nil {
			slog.Warn("markdown send failed, falling back to plain text", "error", err)
			params.ParseMode = ""
			msg, err = b.SendMessage(ctx, params)
			if err != nil {
				return nil, fmt.Errorf("send message: %w", err)
			}
		}
		last = msg
	}

	return last, nil
}

// EditText replaces the text and keyboard of a sent message, truncating text
// that does not fit.
func EditText(ctx context.Context, b *bot.Bot, chatID int64, messageID int, text string, markup models.ReplyMarkup) error {
	text = FixMarkdown(text)
	if utf8.RuneCountInString(text) > config.MaxTelegramMessageLen {
		text = string([]rune(text)[:config.MaxTelegramMessageLen-3]) + "..."
	}

	params := &bot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   models.ParseModeMarkdownV1,
		ReplyMarkup: markup,
	}
	if _, err := b.EditMessageText(ctx, params); err != nil {
		params.ParseMode = ""
		if _, err := b.EditMessageText(ctx, params); err != nil {
			return fmt.Errorf("edit message: %w", err)
		}
	}
	return nil
}

// StartTyping sends the "typing" action every 4 seconds until the returned
// cancel function is called.
func StartTyping(ctx context.Context, b *bot.Bot, chatID int64) context.CancelFunc {
	ctx, cancel := context.WithCancel(ctx)
	send := func() {
		b.SendChatAction(ctx, &bot.SendChatActionParams{
			ChatID: chatID,
			Action: models.ChatActionTyping,
		})
	}
	go func() {
		ticker := time.NewTicker(4 * time.Second)
		defer ticker.Stop()
		send()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				send()
			}
		}
	}()
	return cancel
}
