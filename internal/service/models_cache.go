package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// ModelsCache holds the model identifiers advertised by the remote API.
type ModelsCache struct {
	mu       sync.RWMutex
	models   []string
	cachedAt time.Time
	ttl      time.Duration
}

func NewModelsCache(ttl time.Duration) *ModelsCache {
	return &ModelsCache{ttl: ttl}
}

func (c *ModelsCache) Get() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.models == nil || time.Since(c.cachedAt) > c.ttl {
		return nil
	}
	return append([]string(nil), c.models...)
}

func (c *ModelsCache) Set(models []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models = append([]string(nil), models...)
	c.cachedAt = time.Now()
}

// modelsURL derives the OpenAI-style /models URL from a chat completions
// endpoint.
func modelsURL(endpoint string) string {
	base := strings.TrimSuffix(strings.TrimRight(endpoint, "/"), "/chat/completions")
	return base + "/models"
}

// ListModels returns the model ids served by the default endpoint, sorted.
func (g *HTTPGateway) ListModels(ctx context.Context) ([]string, error) {
	if cached := g.models.Get(); cached != nil {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, modelsURL(g.endpoint), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch models: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch models: status %d: %s", resp.StatusCode, errorDetail(resp.Header.Get("Content-Type"), body))
	}

	var result struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse models: %w", err)
	}

	models := make([]string, 0, len(result.Data))
	for _, m := range result.Data {
		if m.ID != "" {
			models = append(models, m.ID)
		}
	}
	sort.Strings(models)

	g.models.Set(models)
	return models, nil
}
