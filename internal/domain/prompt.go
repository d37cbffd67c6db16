package domain

// PromptHistoryItem is one system prompt previously applied to an assistant.
// Timestamp is in Unix milliseconds.
type PromptHistoryItem struct {
	AssistantID string `json:"assistantId"`
	Prompt      string `json:"prompt"`
	Timestamp   int64  `json:"timestamp"`
}
