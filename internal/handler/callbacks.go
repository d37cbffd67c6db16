package handler

import (
	"context"
	"strings"
	"unicode"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Callback data is "<prefix>:<payload>".
const (
	cbAssistant          = "asst"
	cbTemperature        = "temp"
	cbLike               = "like"
	cbDislike            = "dislike"
	cbRegen              = "regen"
	cbHistoryPage        = "hist"
	cbConversation       = "conv"
	cbConversationDelete = "convdel"
	cbPromptUse          = "puse"
	cbPromptDelete       = "pdel"
	cbModel              = "model"
	cbModelPage          = "mpage"
)

func callbackData(prefix, payload string) string {
	return prefix + ":" + payload
}

// callbackQuery holds what handlers need from a pressed button.
type callbackQuery struct {
	id        string
	prefix    string
	payload   string
	chatID    int64
	messageID int
}

// parseCallback reads the pressed button of update. It reports false for
// updates without callback data.
func parseCallback(update *models.Update) (callbackQuery, bool) {
	cq := update.CallbackQuery
	if cq == nil {
		return callbackQuery{}, false
	}
	prefix, payload, _ := strings.Cut(cq.Data, ":")
	q := callbackQuery{id: cq.ID, prefix: prefix, payload: payload}
	if msg := cq.Message.Message; msg != nil {
		q.chatID = msg.Chat.ID
		q.messageID = msg.ID
	}
	return q, true
}

// answer acknowledges the button press, showing text as a toast when set.
func answer(ctx context.Context, b *bot.Bot, q callbackQuery, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: q.id,
		Text:            text,
	})
}

func (h *Handler) handleNoop(ctx context.Context, b *bot.Bot, update *models.Update) {
	if q, ok := parseCallback(update); ok {
		answer(ctx, b, q, "")
	}
}

// commandArgs returns the text after the command word.
func commandArgs(text string) string {
	text = strings.TrimSpace(text)
	i := strings.IndexFunc(text, unicode.IsSpace)
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(text[i:])
}

// commandName returns the command word without the slash and bot mention.
func commandName(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimPrefix(text, "/")
	name, _, _ := strings.Cut(text, "@")
	return name
}

func (h *Handler) sendText(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
}
