package config

import "time"

const (
	// Context budget defaults
	DefaultMaxMessages            = 20
	DefaultMaxCharsPerMessage     = 2000
	DefaultMaxTotalChars          = 8000
	DefaultPreserveRecentMessages = 6

	// Conversations listed per assistant
	MaxRecentConversations = 5

	// System prompt edits remembered per assistant
	PromptHistoryLimit = 5

	// Quiet period before the session log is persisted
	SaveDebounce = 1 * time.Second

	// AI request timeout
	RequestTimeout = 90 * time.Second

	// Model list cache duration
	ModelCacheDuration = 1 * time.Hour

	// Telegram limits
	MaxTelegramMessageLen = 4096

	// Default sampling temperature when an assistant sets none
	DefaultTemperature = "0.5"

	// Fallback system prompt for assistants that define none
	DefaultSystemPrompt = "You are a virtual assistant."

	// Conversations per page
	ConversationsPerPage = 5

	// Error bodies are cut to this many characters
	MaxErrorDetailLen = 400

	// Messages accepted per chat per minute
	RateLimitPerMinute = 30

	// Assistant in front when nothing else was chosen
	DefaultAssistantID = "generalist"
)

// TemperatureOptions offered when editing an assistant.
var TemperatureOptions = []string{"0", "0.5", "0.9", "1.2"}
