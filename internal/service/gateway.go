package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/shopspring/decimal"
)

// Gateway sends a prompt with its context to the remote completion API.
// A call aborted through ctx returns domain.ErrRequestCancelled.
type Gateway interface {
	SendPrompt(ctx context.Context, req PromptRequest) (Reply, error)
}

type PromptRequest struct {
	Assistant domain.Assistant
	// Prompt is sent as the final user turn.
	Prompt  string
	Context []domain.Message
	// PromptMessageID is the log entry Prompt came from; it is left out of
	// the context so the prompt is not sent twice.
	PromptMessageID string
}

type HTTPGateway struct {
	apiKey       string
	endpoint     string
	defaultModel string
	httpClient   *http.Client
	models       *ModelsCache
}

func NewHTTPGateway(apiKey, endpoint, defaultModel string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = config.RequestTimeout
	}
	return &HTTPGateway{
		apiKey:       apiKey,
		endpoint:     endpoint,
		defaultModel: defaultModel,
		httpClient:   &http.Client{Timeout: timeout},
		models:       NewModelsCache(config.ModelCacheDuration),
	}
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []ChatMessage `json:"messages"`
}

type contentRequest struct {
	Content string `json:"content"`
}

func (g *HTTPGateway) SendPrompt(ctx context.Context, req PromptRequest) (Reply, error) {
	a := req.Assistant

	endpoint := a.APIEndpoint
	if endpoint == "" {
		endpoint = g.endpoint
	}

	var payload any
	switch a.PayloadFormat {
	case domain.PayloadContent:
		payload = contentRequest{Content: renderTemplate(a.PromptTemplate, req.Prompt)}
	default:
		payload = g.chatRequest(req)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Reply{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("create request: %w", err)
	}
	if len(a.APIHeaders) > 0 {
		for k, v := range a.APIHeaders {
			httpReq.Header.Set(k, v)
		}
	} else if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	slog.Debug("sending prompt", "assistant_id", a.ID, "endpoint", endpoint, "context_messages", len(req.Context))

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return Reply{}, domain.ErrRequestCancelled
		}
		return Reply{}, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return Reply{}, domain.ErrRequestCancelled
		}
		return Reply{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Reply{}, &domain.RemoteError{
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(resp.Header.Get("Content-Type"), respBody),
		}
	}

	return DecodeReply(respBody)
}

func (g *HTTPGateway) chatRequest(req PromptRequest) ChatRequest {
	a := req.Assistant

	model := a.Model
	if model == "" {
		model = g.defaultModel
	}
	systemPrompt := a.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = config.DefaultSystemPrompt
	}

	messages := make([]ChatMessage, 0, len(req.Context)+2)
	messages = append(messages, ChatMessage{Role: "system", Content: systemPrompt})
	for _, m := range req.Context {
		if req.PromptMessageID != "" && m.ID == req.PromptMessageID {
			continue
		}
		role := "assistant"
		if m.Role == domain.RoleUser {
			role = "user"
		}
		messages = append(messages, ChatMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: req.Prompt})

	return ChatRequest{
		Model:       model,
		Temperature: temperatureValue(a.Temperature),
		Messages:    messages,
	}
}

func temperatureValue(s string) float64 {
	if s == "" {
		s = config.DefaultTemperature
	}
	d, err := parseTemperature(s)
	if err != nil {
		d = decimal.RequireFromString(config.DefaultTemperature)
	}
	return d.InexactFloat64()
}

// renderTemplate substitutes the first %s in tmpl with prompt.
func renderTemplate(tmpl, prompt string) string {
	if !strings.Contains(tmpl, "%s") {
		if tmpl == "" {
			return prompt
		}
		return tmpl + "\n\n" + prompt
	}
	return strings.Replace(tmpl, "%s", prompt, 1)
}

// errorDetail turns an error body into one short line. HTML pages are
// reduced to their title or visible text.
func errorDetail(contentType string, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	var detail string
	switch {
	case strings.Contains(contentType, "html") || bytes.HasPrefix(trimmed, []byte("<")):
		detail = htmlSummary(trimmed)
	case json.Valid(trimmed):
		detail = jsonErrorMessage(trimmed)
	}
	if detail == "" {
		detail = string(trimmed)
	}
	return truncateText(strings.Join(strings.Fields(detail), " "), config.MaxErrorDetailLen)
}

func htmlSummary(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	doc.Find("script, style").Remove()
	return strings.TrimSpace(doc.Find("body").Text())
}

// jsonErrorMessage extracts {"error": {"message": ...}}, {"error": "..."} or
// {"message": ...} when present.
func jsonErrorMessage(body []byte) string {
	var probe struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return ""
	}
	if len(probe.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(probe.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
		var s string
		if err := json.Unmarshal(probe.Error, &s); err == nil && s != "" {
			return s
		}
	}
	return probe.Message
}
