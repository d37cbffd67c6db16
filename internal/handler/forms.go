package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindchat/internal/service"
	tg "github.com/set-night/mindchat/internal/telegram"
)

func formCommands() []service.FormKind {
	return service.FormKinds
}

// handleForm serves /requirements, /research and /docs. Without arguments
// it shows the template; with "field: value" lines it runs the form.
func (h *Handler) handleForm(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil {
		return
	}
	chatID := msg.Chat.ID

	name := commandName(msg.Text)
	kind, ok := service.LookupFormKind(name)
	if !ok {
		return
	}

	body := commandArgs(msg.Text)
	if body == "" {
		h.sendText(ctx, b, chatID, fmt.Sprintf("📋 %s\nReply with /%s followed by these lines:\n\n%s",
			kind.Title, kind.Name, service.FormTemplate(kind)))
		return
	}

	form, err := service.ParseForm(kind, body)
	if err == nil {
		err = h.forms.Validate(form)
	}
	if err != nil {
		h.sendText(ctx, b, chatID, userMessage(err))
		return
	}

	go func() {
		stopTyping := tg.StartTyping(ctx, b, chatID)
		text, err := h.forms.Run(ctx, kind.AssistantID, form)
		stopTyping()
		if err != nil {
			slog.Error("run form", "form", kind.Name, "error", err)
			h.sendText(ctx, b, chatID, userMessage(err))
			return
		}
		if _, err := tg.SendLongMessage(ctx, b, chatID, text, nil); err != nil {
			slog.Error("send form result", "error", err)
		}
	}()
}
