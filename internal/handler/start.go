package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	tg "github.com/set-night/mindchat/internal/telegram"
)

const helpText = "📋 *Commands:*\n" +
	"/assistants — pick an assistant\n" +
	"/new — clear the chat and start a new conversation\n" +
	"/stop — stop the running generation\n" +
	"/regen — regenerate the last reply\n" +
	"/history — saved conversations\n" +
	"/context — context budget (`set key=value`, `reset`)\n" +
	"/prompt — system prompt (`/prompt <text>`, `/prompt reset`)\n" +
	"/prompts — recent system prompts\n" +
	"/temperature — sampling temperature\n" +
	"/models — models offered by the endpoint\n" +
	"/requirements, /research, /docs — structured forms\n\n" +
	"Any other message is sent to the current assistant."

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	e, err := h.sessions.Active()
	if err != nil {
		slog.Error("active session", "error", err)
		return
	}
	a, err := h.assistants.Get(e.AssistantID())
	if err != nil {
		slog.Error("get assistant", "error", err)
		return
	}

	text := fmt.Sprintf("👋 Current assistant: *%s*\n%s\n\n%s",
		tg.EscapeMarkdown(a.Title), tg.EscapeMarkdown(a.Description), helpText)
	if n := len(e.Messages()); n > 0 {
		text += fmt.Sprintf("\n\n📝 %d messages in the current conversation.", n)
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      text,
		ParseMode: models.ParseModeMarkdownV1,
	})
}
