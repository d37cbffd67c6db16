package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/service"
)

// handleContext shows or changes the context budget:
//
//	/context
//	/context set maxMessages=10 enableOptimization=false
//	/context reset
func (h *Handler) handleContext(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	fields := strings.Fields(commandArgs(update.Message.Text))

	if len(fields) > 0 {
		switch strings.ToLower(fields[0]) {
		case "set":
			o, err := service.ParseContextOverride(fields[1:])
			if err == nil {
				_, err = h.settings.SaveUserOverride(o)
			}
			if err != nil {
				h.sendText(ctx, b, chatID, userMessage(err))
				return
			}
		case "reset":
			h.settings.ResetUserOverride()
		default:
			h.sendText(ctx, b, chatID, "Usage: /context, /context set key=value ..., /context reset")
			return
		}
	}

	id := h.sessions.ActiveID()
	h.sendText(ctx, b, chatID, formatContext(id, h.settings.Resolve(id), h.settings.UserOverride()))
}

func formatContext(assistantID string, cfg domain.ContextConfig, user domain.ContextOverride) string {
	mark := func(set bool) string {
		if set {
			return " (yours)"
		}
		return ""
	}
	return fmt.Sprintf("🧠 Context for %s\n\n"+
		"maxMessages = %d%s\n"+
		"maxCharsPerMessage = %d%s\n"+
		"maxTotalChars = %d%s\n"+
		"preserveRecentMessages = %d%s\n"+
		"enableOptimization = %t%s",
		assistantID,
		cfg.MaxMessages, mark(user.MaxMessages != nil),
		cfg.MaxCharsPerMessage, mark(user.MaxCharsPerMessage != nil),
		cfg.MaxTotalChars, mark(user.MaxTotalChars != nil),
		cfg.PreserveRecentMessages, mark(user.PreserveRecentMessages != nil),
		cfg.EnableOptimization, mark(user.EnableOptimization != nil),
	)
}
