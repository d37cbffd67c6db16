package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrEmptyPrompt          = errors.New("empty prompt")
	ErrRequestInFlight      = errors.New("request already in flight")
	ErrRequestCancelled     = errors.New("request cancelled")
	ErrAssistantNotFound    = errors.New("assistant not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrNotRegenerable       = errors.New("message cannot be regenerated")
	ErrInvalidConfig        = errors.New("invalid configuration")
)

// ValidationError reports user input rejected before any side effect.
// Fields maps a field name to a human readable message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// RemoteError is a non-2xx answer from the completion endpoint.
type RemoteError struct {
	StatusCode int
	Detail     string
}

func (e *RemoteError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("remote API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote API error: status %d: %s", e.StatusCode, e.Detail)
}
