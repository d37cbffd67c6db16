package handler

import (
	"errors"
	"sort"
	"strings"

	"github.com/set-night/mindchat/internal/domain"
)

// userMessage renders err for the chat.
func userMessage(err error) string {
	var verr *domain.ValidationError
	var rerr *domain.RemoteError
	switch {
	case errors.As(err, &verr):
		names := make([]string, 0, len(verr.Fields))
		for name := range verr.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		lines := make([]string, 0, len(names))
		for _, name := range names {
			lines = append(lines, "• "+name+" "+verr.Fields[name])
		}
		return "⚠️ Please fix:\n" + strings.Join(lines, "\n")
	case errors.As(err, &rerr):
		return "❌ " + rerr.Error()
	case errors.Is(err, domain.ErrEmptyPrompt):
		return "⚠️ Nothing to send."
	case errors.Is(err, domain.ErrRequestInFlight):
		return "⏳ Wait for the current reply or /stop it."
	case errors.Is(err, domain.ErrMessageNotFound):
		return "⚠️ That message is not in the current chat anymore."
	case errors.Is(err, domain.ErrNotRegenerable):
		return "⚠️ Only replies that follow a prompt can be regenerated."
	case errors.Is(err, domain.ErrConversationNotFound):
		return "⚠️ Conversation not found."
	case errors.Is(err, domain.ErrAssistantNotFound):
		return "⚠️ Unknown assistant."
	default:
		return "❌ " + err.Error()
	}
}

// notifiedByEngine reports whether the engine already told the user about
// err through its notifier.
func notifiedByEngine(err error) bool {
	switch {
	case errors.Is(err, domain.ErrEmptyPrompt),
		errors.Is(err, domain.ErrRequestInFlight),
		errors.Is(err, domain.ErrMessageNotFound),
		errors.Is(err, domain.ErrNotRegenerable):
		return false
	}
	return true
}
