package handler

import (
	"github.com/go-telegram/bot"
	tg "github.com/set-night/mindchat/internal/telegram"
)

// Register wires all command and callback handlers into the bot.
func (h *Handler) Register() {
	// Commands
	h.command("start", h.handleStart)
	h.command("help", h.handleStart)
	h.command("assistants", h.handleAssistants)
	h.command("new", h.handleNew)
	h.command("stop", h.handleStop)
	h.command("regen", h.handleRegenCommand)
	h.command("history", h.handleHistory)
	h.command("context", h.handleContext)
	h.command("prompt", h.handlePrompt)
	h.command("prompts", h.handlePrompts)
	h.command("temperature", h.handleTemperature)
	h.command("models", h.handleModels)
	for _, kind := range formCommands() {
		h.command(kind.Name, h.handleForm)
	}

	// Assistant selection
	h.callback(cbAssistant, h.handleAssistantSelect)
	h.callback(cbTemperature, h.handleTemperatureSelect)

	// Models
	h.callback(cbModel, h.handleModelSelect)
	h.callback(cbModelPage, h.handleModelPage)

	// Replies
	h.callback(cbLike, h.handleFeedback)
	h.callback(cbDislike, h.handleFeedback)
	h.callback(cbRegen, h.handleRegenCallback)

	// Conversations
	h.callback(cbHistoryPage, h.handleHistoryPage)
	h.callback(cbConversation, h.handleConversationSelect)
	h.callback(cbConversationDelete, h.handleConversationDelete)

	// Prompt history
	h.callback(cbPromptUse, h.handlePromptUse)
	h.callback(cbPromptDelete, h.handlePromptDelete)

	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.NoopData, bot.MatchTypeExact, h.handleNoop)
}

func (h *Handler) command(name string, fn bot.HandlerFunc) {
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, name, bot.MatchTypeCommandStartOnly, fn)
}

func (h *Handler) callback(prefix string, fn bot.HandlerFunc) {
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, prefix+":", bot.MatchTypePrefix, fn)
}
