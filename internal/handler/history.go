package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
	tg "github.com/set-night/mindchat/internal/telegram"
)

func (h *Handler) handleHistory(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	text, kb := h.historyPage(0)
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        text,
		ParseMode:   models.ParseModeMarkdownV1,
		ReplyMarkup: kb,
	})
}

// historyPage renders one page of the front assistant's conversations,
// newest first.
func (h *Handler) historyPage(page int) (string, *models.InlineKeyboardMarkup) {
	assistantID := h.sessions.ActiveID()
	convs := h.store.LoadAll(assistantID)
	current := h.store.CurrentConversationID(assistantID)

	totalPages := tg.PageCount(len(convs), config.ConversationsPerPage)
	page = max(0, min(page, totalPages-1))

	var sb strings.Builder
	fmt.Fprintf(&sb, "📂 *Conversations* (%d)\n", len(convs))
	if len(convs) == 0 {
		sb.WriteString("\nNothing saved yet.")
	}

	var rows [][]models.InlineKeyboardButton
	start := page * config.ConversationsPerPage
	end := min(start+config.ConversationsPerPage, len(convs))
	for _, c := range convs[start:end] {
		label := c.Title
		if c.ID == current {
			label = "✅ " + label
		}
		rows = append(rows, tg.ButtonRow(
			tg.InlineButton(label, callbackData(cbConversation, c.ID)),
			tg.InlineButton("🗑", callbackData(cbConversationDelete, c.ID)),
		))
	}
	if totalPages > 1 {
		rows = append(rows, tg.PaginationRow(page, totalPages, cbHistoryPage))
	}
	return sb.String(), tg.InlineKeyboard(rows...)
}

func (h *Handler) handleHistoryPage(ctx context.Context, b *bot.Bot, update *models.Update) {
	q, ok := parseCallback(update)
	if !ok {
		return
	}
	answer(ctx, b, q, "")

	page, _ := strconv.Atoi(q.payload)
	text, kb := h.historyPage(page)
	tg.EditText(ctx, b, q.chatID, q.messageID, text, kb)
}

func (h *Handler) handleConversationSelect(ctx context.Context, b *bot.Bot, update *models.Update) {
	q, ok := parseCallback(update)
	if !ok {
		return
	}

	e, err := h.sessions.OpenConversation(q.payload)
	if err != nil {
		answer(ctx, b, q, userMessage(err))
		return
	}
	answer(ctx, b, q, "")

	text, kb := h.historyPage(0)
	tg.EditText(ctx, b, q.chatID, q.messageID, text, kb)

	msgs := e.Messages()
	summary := fmt.Sprintf("📝 %s: %d messages.", domain.ConversationTitle(msgs), len(msgs))
	h.sendText(ctx, b, q.chatID, summary)
	if id := lastReply(msgs); id != "" {
		last := msgs[len(msgs)-1]
		if last.ID == id {
			if _, err := tg.SendLongMessage(ctx, b, q.chatID, last.Content, replyKeyboard(last)); err != nil {
				slog.Error("send last reply", "error", err)
			}
		}
	}
}

func (h *Handler) handleConversationDelete(ctx context.Context, b *bot.Bot, update *models.Update) {
	q, ok := parseCallback(update)
	if !ok {
		return
	}

	if _, err := h.sessions.DeleteConversation(q.payload); err != nil {
		answer(ctx, b, q, userMessage(err))
		return
	}
	answer(ctx, b, q, "Deleted.")

	text, kb := h.historyPage(0)
	tg.EditText(ctx, b, q.chatID, q.messageID, text, kb)
}
