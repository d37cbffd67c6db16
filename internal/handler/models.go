package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindchat/internal/domain"
	tg "github.com/set-night/mindchat/internal/telegram"
)

const (
	modelsPerPage = 8
	// longer ids do not fit into callback data
	maxModelIDLen = 56
)

func (h *Handler) handleModels(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	text, kb, err := h.modelsPage(ctx, 0)
	if err != nil {
		slog.Error("list models", "error", err)
		h.sendText(ctx, b, chatID, "❌ Could not load the model list.")
		return
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeMarkdownV1,
		ReplyMarkup: kb,
	})
}

func (h *Handler) modelsPage(ctx context.Context, page int) (string, *models.InlineKeyboardMarkup, error) {
	all, err := h.models.ListModels(ctx)
	if err != nil {
		return "", nil, err
	}
	var ids []string
	for _, id := range all {
		if len(id) <= maxModelIDLen {
			ids = append(ids, id)
		}
	}

	a, err := h.assistants.Get(h.sessions.ActiveID())
	if err != nil {
		return "", nil, err
	}

	totalPages := tg.PageCount(len(ids), modelsPerPage)
	page = max(0, min(page, totalPages-1))

	var sb strings.Builder
	fmt.Fprintf(&sb, "🧩 *Models* (%d)\nCurrent model of %s: `%s`", len(ids), tg.EscapeMarkdown(a.Title), a.Model)

	var rows [][]models.InlineKeyboardButton
	start := page * modelsPerPage
	end := min(start+modelsPerPage, len(ids))
	for _, id := range ids[start:end] {
		label := id
		if id == a.Model {
			label = "✅ " + id
		}
		rows = append(rows, tg.ButtonRow(tg.InlineButton(label, callbackData(cbModel, id))))
	}
	if totalPages > 1 {
		rows = append(rows, tg.PaginationRow(page, totalPages, cbModelPage))
	}
	return sb.String(), tg.InlineKeyboard(rows...), nil
}

func (h *Handler) handleModelPage(ctx context.Context, b *bot.Bot, update *models.Update) {
	q, ok := parseCallback(update)
	if !ok {
		return
	}
	answer(ctx, b, q, "")

	page, _ := strconv.Atoi(q.payload)
	text, kb, err := h.modelsPage(ctx, page)
	if err != nil {
		slog.Error("list models", "error", err)
		return
	}
	tg.EditText(ctx, b, q.chatID, q.messageID, text, kb)
}

func (h *Handler) handleModelSelect(ctx context.Context, b *bot.Bot, update *models.Update) {
	q, ok := parseCallback(update)
	if !ok {
		return
	}

	_, err := h.assistants.Update(h.sessions.ActiveID(), domain.AssistantUpdate{Model: domain.StringPtr(q.payload)})
	if err != nil {
		answer(ctx, b, q, userMessage(err))
		return
	}
	answer(ctx, b, q, "Model saved.")

	text, kb, err := h.modelsPage(ctx, 0)
	if err != nil {
		slog.Error("list models", "error", err)
		return
	}
	tg.EditText(ctx, b, q.chatID, q.messageID, text, kb)
}
