package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindchat/internal/domain"
	tg "github.com/set-night/mindchat/internal/telegram"
)

const promptPreviewLen = 300

func (h *Handler) handlePrompt(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	id := h.sessions.ActiveID()
	args := commandArgs(update.Message.Text)

	var (
		a   domain.Assistant
		err error
	)
	switch {
	case args == "":
		a, err = h.assistants.Get(id)
		if err != nil {
			slog.Error("get assistant", "error", err)
			return
		}
		h.sendText(ctx, b, chatID, fmt.Sprintf("📝 System prompt of %s (%s):\n\n%s\n\nSend /prompt <text> to replace it or /prompt reset.",
			a.Title, a.Model, a.SystemPrompt))
		return
	case strings.EqualFold(args, "reset"):
		a, err = h.assistants.ResetSystemPrompt(id)
	default:
		var cur domain.Assistant
		cur, err = h.assistants.Get(id)
		if err == nil {
			a, err = h.assistants.UpdateSystemPrompt(id, args, cur.Model)
		}
	}
	if err != nil {
		h.sendText(ctx, b, chatID, userMessage(err))
		return
	}
	h.sendText(ctx, b, chatID, fmt.Sprintf("✅ System prompt of %s updated.", a.Title))
}

func (h *Handler) handlePrompts(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	text, kb := h.promptsPage()
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        text,
		ReplyMarkup: kb,
	})
}

func (h *Handler) promptsPage() (string, *models.InlineKeyboardMarkup) {
	id := h.sessions.ActiveID()
	items := h.history.Load(id)
	if len(items) == 0 {
		return "No system prompts saved for this assistant yet.", tg.InlineKeyboard()
	}

	var sb strings.Builder
	sb.WriteString("🕘 Recent system prompts\n")
	var rows [][]models.InlineKeyboardButton
	for i, it := range items {
		fmt.Fprintf(&sb, "\n%d. %s\n%s\n", i+1,
			time.UnixMilli(it.Timestamp).Format("2006-01-02 15:04"), preview(it.Prompt, promptPreviewLen))
		ts := strconv.FormatInt(it.Timestamp, 10)
		rows = append(rows, tg.ButtonRow(
			tg.InlineButton(fmt.Sprintf("Use #%d", i+1), callbackData(cbPromptUse, ts)),
			tg.InlineButton("🗑", callbackData(cbPromptDelete, ts)),
		))
	}
	return sb.String(), tg.InlineKeyboard(rows...)
}

func (h *Handler) handlePromptUse(ctx context.Context, b *bot.Bot, update *models.Update) {
	q, ok := parseCallback(update)
	if !ok {
		return
	}
	id := h.sessions.ActiveID()
	ts, _ := strconv.ParseInt(q.payload, 10, 64)

	for _, it := range h.history.Load(id) {
		if it.Timestamp != ts {
			continue
		}
		cur, err := h.assistants.Get(id)
		if err == nil {
			_, err = h.assistants.UpdateSystemPrompt(id, it.Prompt, cur.Model)
		}
		if err != nil {
			answer(ctx, b, q, userMessage(err))
			return
		}
		answer(ctx, b, q, "System prompt applied.")
		text, kb := h.promptsPage()
		tg.EditText(ctx, b, q.chatID, q.messageID, text, kb)
		return
	}
	answer(ctx, b, q, "That prompt is gone.")
}

func (h *Handler) handlePromptDelete(ctx context.Context, b *bot.Bot, update *models.Update) {
	q, ok := parseCallback(update)
	if !ok {
		return
	}
	ts, err := strconv.ParseInt(q.payload, 10, 64)
	if err != nil {
		answer(ctx, b, q, "")
		return
	}
	h.history.Delete(h.sessions.ActiveID(), ts)
	answer(ctx, b, q, "Deleted.")

	text, kb := h.promptsPage()
	tg.EditText(ctx, b, q.chatID, q.messageID, text, kb)
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
