package service

import (
	"log/slog"
	"unicode/utf8"

	"github.com/set-night/mindchat/internal/domain"
)

const (
	ellipsis = "..."
	// Older messages are sampled every olderStride positions.
	olderStride = 3
)

// SelectContextMessages picks the messages sent to the remote model as
// conversational context. Recent messages are considered first, newest to
// oldest; older ones are sampled only while budget remains. The result is a
// chronological subsequence of messages; truncated entries are new values.
func SelectContextMessages(messages []domain.Message, cfg domain.ContextConfig) []domain.Message {
	if len(messages) == 0 || !cfg.EnableOptimization {
		return messages
	}

	recentCount := min(max(cfg.PreserveRecentMessages, 0), len(messages))
	split := len(messages) - recentCount
	recent := messages[split:]

	if len(messages) <= cfg.MaxMessages {
		out := make([]domain.Message, 0, len(recent))
		total := 0
		for _, m := range recent {
			m = truncateMessage(m, cfg.MaxCharsPerMessage)
			total += charCount(m.Content)
			out = append(out, m)
		}
		// Short histories skip the budget scan unless they would overflow it.
		if total <= cfg.MaxTotalChars && len(out) <= cfg.MaxMessages {
			logSelection(messages, out)
			return out
		}
	}

	// Built newest first, reversed before returning.
	selected := make([]domain.Message, 0, min(len(messages), max(cfg.MaxMessages, 0)))
	total := 0

	for i := len(recent) - 1; i >= 0; i-- {
		if len(selected) >= cfg.MaxMessages {
			break
		}
		m := truncateMessage(recent[i], cfg.MaxCharsPerMessage)
		n := charCount(m.Content)
		if total+n > cfg.MaxTotalChars {
			break
		}
		selected = append(selected, m)
		total += n
	}

	// Older messages only fill space left after every recent one fit.
	if len(selected) == len(recent) && len(selected) < cfg.MaxMessages && total < cfg.MaxTotalChars {
		limit := cfg.MaxCharsPerMessage / 2
		for i := split - 1; i >= 0; i -= olderStride {
			if len(selected) >= cfg.MaxMessages {
				break
			}
			m := truncateMessage(messages[i], limit)
			n := charCount(m.Content)
			if total+n > cfg.MaxTotalChars {
				break
			}
			selected = append(selected, m)
			total += n
		}
	}

	for i, j := 0, len(selected)-1; i < j; i, j = i+1, j-1 {
		selected[i], selected[j] = selected[j], selected[i]
	}

	logSelection(messages, selected)
	return selected
}

// truncateMessage returns m with content clipped to limit runes. Clipped
// content ends with an ellipsis and is exactly limit runes long.
func truncateMessage(m domain.Message, limit int) domain.Message {
	m.Content = truncateText(m.Content, limit)
	return m
}

func truncateText(s string, limit int) string {
	if limit < 0 {
		limit = 0
	}
	if charCount(s) <= limit {
		return s
	}
	runes := []rune(s)
	if limit < len(ellipsis) {
		return string(runes[:limit])
	}
	return string(runes[:limit-len(ellipsis)]) + ellipsis
}

func charCount(s string) int {
	return utf8.RuneCountInString(s)
}

func totalChars(messages []domain.Message) int {
	n := 0
	for _, m := range messages {
		n += charCount(m.Content)
	}
	return n
}

func logSelection(before, after []domain.Message) {
	slog.Debug("context optimized",
		"messages_before", len(before),
		"messages_after", len(after),
		"chars_before", totalChars(before),
		"chars_after", totalChars(after),
	)
}
