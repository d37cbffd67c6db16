package telegram

import (
	"strings"
	"unicode/utf8"
)

// SplitMessage cuts text into chunks of at most maxLen runes, preferring a
// newline in the second half of each chunk as the cut point.
func SplitMessage(text string, maxLen int) []string {
	if maxLen <= 0 || utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	var parts []string
	runes := []rune(text)
	for len(runes) > maxLen {
		cut := maxLen
		if nl := lastNewline(runes[:maxLen]); nl > maxLen/2 {
			cut = nl + 1
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

func lastNewline(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == '\n' {
			return i
		}
	}
	return -1
}

// FixMarkdown closes an unterminated code block or inline code span so
// Telegram accepts the text as Markdown.
func FixMarkdown(text string) string {
	if strings.Count(text, "```")%2 != 0 {
		text += "\n```"
	}

	var b strings.Builder
	inBlock, inInline := false, false
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if i+2 < len(runes) && runes[i] == '`' && runes[i+1] == '`' && runes[i+2] == '`' {
			if inInline {
				b.WriteRune('`')
				inInline = false
			}
			inBlock = !inBlock
			b.WriteString("```")
			i += 2
			continue
		}
		if !inBlock && runes[i] == '`' {
			inInline = !inInline
		}
		b.WriteRune(runes[i])
	}
	if inInline {
		b.WriteRune('`')
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// EscapeMarkdown escapes user text placed inside a Markdown (v1) message.
func EscapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}
