package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
	tg "github.com/set-night/mindchat/internal/telegram"
	"github.com/shopspring/decimal"
)

func (h *Handler) handleAssistants(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        h.assistantsText(),
		ParseMode:   models.ParseModeMarkdownV1,
		ReplyMarkup: h.assistantsKeyboard(),
	})
}

func (h *Handler) assistantsText() string {
	active := h.sessions.ActiveID()
	var sb strings.Builder
	sb.WriteString("🤖 *Assistants*\n\n")
	for _, a := range h.assistants.List() {
		marker := ""
		if a.ID == active {
			marker = " ✅"
		}
		fmt.Fprintf(&sb, "*%s*%s\n%s\n`%s`, temperature %s\n\n",
			tg.EscapeMarkdown(a.Title), marker, tg.EscapeMarkdown(a.Description),
			a.Model, displayTemperature(a.Temperature))
	}
	return sb.String()
}

func (h *Handler) assistantsKeyboard() *models.InlineKeyboardMarkup {
	active := h.sessions.ActiveID()
	var rows [][]models.InlineKeyboardButton
	for _, a := range h.assistants.List() {
		label := a.Title
		if a.ID == active {
			label = "✅ " + label
		}
		rows = append(rows, tg.ButtonRow(tg.InlineButton(label, callbackData(cbAssistant, a.ID))))
	}
	return tg.InlineKeyboard(rows...)
}

func (h *Handler) handleAssistantSelect(ctx context.Context, b *bot.Bot, update *models.Update) {
	q, ok := parseCallback(update)
	if !ok {
		return
	}

	e, err := h.sessions.SwitchTo(q.payload)
	if err != nil {
		slog.Warn("switch assistant", "assistant_id", q.payload, "error", err)
		answer(ctx, b, q, "Unknown assistant.")
		return
	}
	answer(ctx, b, q, "")

	tg.EditText(ctx, b, q.chatID, q.messageID, h.assistantsText(), h.assistantsKeyboard())
	if n := len(e.Messages()); n > 0 {
		h.sendText(ctx, b, q.chatID, fmt.Sprintf("📝 Resumed conversation with %d messages.", n))
	}
}

func (h *Handler) handleTemperature(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	a, err := h.assistants.Get(h.sessions.ActiveID())
	if err != nil {
		slog.Error("get assistant", "error", err)
		return
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        fmt.Sprintf("🌡 Temperature of %s: %s", a.Title, displayTemperature(a.Temperature)),
		ReplyMarkup: temperatureKeyboard(a.Temperature),
	})
}

func temperatureKeyboard(current string) *models.InlineKeyboardMarkup {
	var row []models.InlineKeyboardButton
	for _, opt := range config.TemperatureOptions {
		label := opt
		if sameTemperature(opt, current) {
			label = "✅ " + opt
		}
		row = append(row, tg.InlineButton(label, callbackData(cbTemperature, opt)))
	}
	return tg.InlineKeyboard(row)
}

func (h *Handler) handleTemperatureSelect(ctx context.Context, b *bot.Bot, update *models.Update) {
	q, ok := parseCallback(update)
	if !ok {
		return
	}

	id := h.sessions.ActiveID()
	a, err := h.assistants.Update(id, domain.AssistantUpdate{Temperature: domain.StringPtr(q.payload)})
	if err != nil {
		answer(ctx, b, q, userMessage(err))
		return
	}
	answer(ctx, b, q, "Saved.")
	tg.EditText(ctx, b, q.chatID, q.messageID,
		fmt.Sprintf("🌡 Temperature of %s: %s", a.Title, displayTemperature(a.Temperature)),
		temperatureKeyboard(a.Temperature))
}

func displayTemperature(s string) string {
	if s == "" {
		s = config.DefaultTemperature
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	return d.StringFixed(1)
}

func sameTemperature(a, b string) bool {
	if b == "" {
		b = config.DefaultTemperature
	}
	da, errA := decimal.NewFromString(a)
	db, errB := decimal.NewFromString(b)
	return errA == nil && errB == nil && da.Equal(db)
}
