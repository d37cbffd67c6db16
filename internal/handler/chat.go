package handler

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/service"
	tg "github.com/set-night/mindchat/internal/telegram"
)

// HandleText sends plain messages to the assistant in front. Unknown
// commands get the help text.
func (h *Handler) HandleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}
	if strings.HasPrefix(msg.Text, "/") {
		h.handleStart(ctx, b, update)
		return
	}

	e, err := h.sessions.Active()
	if err != nil {
		slog.Error("active session", "error", err)
		return
	}
	if e.InFlight() {
		h.sendText(ctx, b, msg.Chat.ID, userMessage(domain.ErrRequestInFlight))
		return
	}

	prompt := msg.Text
	// the update worker must stay free so /stop can arrive meanwhile
	go h.exchange(ctx, b, msg.Chat.ID, func(ctx context.Context) (domain.Message, error) {
		return e.Submit(ctx, prompt)
	})
}

// exchange runs one engine call and posts the reply with its buttons.
func (h *Handler) exchange(ctx context.Context, b *bot.Bot, chatID int64, call func(context.Context) (domain.Message, error)) {
	stopTyping := tg.StartTyping(ctx, b, chatID)
	reply, err := call(ctx)
	stopTyping()

	if err != nil {
		if !notifiedByEngine(err) {
			h.sendText(ctx, b, chatID, userMessage(err))
		}
		return
	}

	if _, err := tg.SendLongMessage(ctx, b, chatID, reply.Content, replyKeyboard(reply)); err != nil {
		slog.Error("send reply", "error", err)
	}
}

func replyKeyboard(m domain.Message) *models.InlineKeyboardMarkup {
	like, dislike := "👍", "👎"
	if m.Liked {
		like = "👍✓"
	}
	if m.Disliked {
		dislike = "👎✓"
	}
	return tg.InlineKeyboard(tg.ButtonRow(
		tg.InlineButton(like, callbackData(cbLike, m.ID)),
		tg.InlineButton(dislike, callbackData(cbDislike, m.ID)),
		tg.InlineButton("🔄", callbackData(cbRegen, m.ID)),
	))
}

func (h *Handler) handleNew(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	e, err := h.sessions.Active()
	if err != nil {
		slog.Error("active session", "error", err)
		return
	}
	// the engine notifier confirms
	e.ResetChat()
}

func (h *Handler) handleStop(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	e, err := h.sessions.Active()
	if err != nil {
		slog.Error("active session", "error", err)
		return
	}
	if !e.Stop() {
		h.sendText(ctx, b, update.Message.Chat.ID, "Nothing is running.")
	}
}

func (h *Handler) handleRegenCommand(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	e, err := h.sessions.Active()
	if err != nil {
		slog.Error("active session", "error", err)
		return
	}

	last := lastReply(e.Messages())
	if last == "" {
		h.sendText(ctx, b, chatID, "No reply to regenerate.")
		return
	}
	h.regenerate(ctx, b, chatID, e, last)
}

func (h *Handler) handleRegenCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	q, ok := parseCallback(update)
	if !ok {
		return
	}
	e, err := h.sessions.Active()
	if err != nil {
		answer(ctx, b, q, userMessage(err))
		return
	}
	answer(ctx, b, q, "")
	h.regenerate(ctx, b, q.chatID, e, q.payload)
}

func (h *Handler) regenerate(ctx context.Context, b *bot.Bot, chatID int64, e *service.Engine, messageID string) {
	if e.InFlight() {
		h.sendText(ctx, b, chatID, userMessage(domain.ErrRequestInFlight))
		return
	}
	go h.exchange(ctx, b, chatID, func(ctx context.Context) (domain.Message, error) {
		return e.Regenerate(ctx, messageID)
	})
}

func lastReply(msgs []domain.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleSystem {
			return msgs[i].ID
		}
	}
	return ""
}

func (h *Handler) handleFeedback(ctx context.Context, b *bot.Bot, update *models.Update) {
	q, ok := parseCallback(update)
	if !ok {
		return
	}
	e, err := h.sessions.Active()
	if err != nil {
		answer(ctx, b, q, userMessage(err))
		return
	}

	fb := domain.FeedbackLike
	if q.prefix == cbDislike {
		fb = domain.FeedbackDislike
	}
	if err := e.SetFeedback(q.payload, fb); err != nil {
		answer(ctx, b, q, userMessage(err))
		return
	}
	answer(ctx, b, q, "")

	for _, m := range e.Messages() {
		if m.ID == q.payload {
			b.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
				ChatID:      q.chatID,
				MessageID:   q.messageID,
				ReplyMarkup: replyKeyboard(m),
			})
			return
		}
	}
}
