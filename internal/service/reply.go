package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type ReplyKind int

const (
	ReplyUnrecognized ReplyKind = iota
	// ReplyChoices is the OpenAI shape: choices[0].message.content.
	ReplyChoices
	// ReplyContent is {"content": "..."}.
	ReplyContent
	// ReplyResult is {"result": {"content": "..."}}.
	ReplyResult
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyChoices:
		return "choices"
	case ReplyContent:
		return "content"
	case ReplyResult:
		return "result"
	default:
		return "unrecognized"
	}
}

// Reply is a decoded completion response. Raw keeps the original payload
// for the unrecognized variant.
type Reply struct {
	Kind    ReplyKind
	Content string
	Raw     json.RawMessage
}

// Text is the message shown to the user. Unknown shapes are rendered as
// indented JSON so something is always visible.
func (r Reply) Text() string {
	if r.Kind != ReplyUnrecognized {
		return r.Content
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, r.Raw, "", "  "); err != nil {
		return string(r.Raw)
	}
	return buf.String()
}

var errInvalidJSON = errors.New("invalid JSON")

type replyEnvelope struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Content *string `json:"content"`
	Result  *struct {
		Content *string `json:"content"`
	} `json:"result"`
}

// DecodeReply classifies a 2xx response body. Only malformed JSON is an
// error; valid JSON of any other shape decodes as ReplyUnrecognized.
func DecodeReply(body []byte) (Reply, error) {
	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return Reply{}, fmt.Errorf("parse response: %w", errInvalidJSON)
	}
	raw := json.RawMessage(append([]byte(nil), body...))

	var env replyEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Reply{Kind: ReplyUnrecognized, Raw: raw}, nil
	}

	switch {
	case len(env.Choices) > 0 && env.Choices[0].Message.Content != nil:
		return Reply{Kind: ReplyChoices, Content: *env.Choices[0].Message.Content, Raw: raw}, nil
	case env.Content != nil && *env.Content != "":
		return Reply{Kind: ReplyContent, Content: *env.Content, Raw: raw}, nil
	case env.Result != nil && env.Result.Content != nil && *env.Result.Content != "":
		return Reply{Kind: ReplyResult, Content: *env.Result.Content, Raw: raw}, nil
	default:
		return Reply{Kind: ReplyUnrecognized, Raw: raw}, nil
	}
}
