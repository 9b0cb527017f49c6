package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	defaultAnthropicModel   = "claude-3-5-sonnet-20241022"

	// anthropicVersion is the Messages API version header value.
	anthropicVersion = "2023-06-01"
)

// Compile-time interface check.
var _ Backend = (*Anthropic)(nil)

// Anthropic calls the Anthropic Messages API.
type Anthropic struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// NewAnthropic creates an Anthropic backend. Zero-value config fields fall
// back to the public API endpoint and the default model.
func NewAnthropic(cfg Config, opts ...Option) *Anthropic {
	c := &Anthropic{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: cfg.BaseURL,
		http:    applyOptions(opts),
	}
	if c.model == "" {
		c.model = defaultAnthropicModel
	}
	if c.baseURL == "" {
		c.baseURL = defaultAnthropicBaseURL
	}
	return c
}

// Name returns the backend identifier.
func (c *Anthropic) Name() BackendName { return BackendAnthropic }

// anthropicRequest is the Messages API request structure.
type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicResponse is the Messages API response structure.
type anthropicResponse struct {
	Content []anthropicContentBlock `json:"content"`
	Error   *anthropicAPIError      `json:"error,omitempty"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicAPIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// CompleteJSON sends the prompt as a single user message and extracts one
// JSON object from the model's text reply.
func (c *Anthropic) CompleteJSON(ctx context.Context, prompt string, maxTokens int) (json.RawMessage, error) {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	reqBody := anthropicRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("llm: anthropic: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llm: anthropic: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("llm: anthropic: send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("llm: anthropic: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			Backend:    BackendAnthropic,
			StatusCode: resp.StatusCode,
			Message:    apiErrorMessage(respBody),
		}
	}

	var data anthropicResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return nil, fmt.Errorf("llm: anthropic: unmarshal response: %w", err)
	}
	if data.Error != nil {
		return nil, fmt.Errorf("llm: anthropic: API error: %s", data.Error.Message)
	}
	if len(data.Content) == 0 {
		return nil, fmt.Errorf("llm: anthropic: empty response")
	}

	return ExtractJSON(data.Content[0].Text)
}

// apiErrorMessage pulls a human-readable message out of a provider error
// body, falling back to the raw body when the envelope does not parse.
func apiErrorMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return string(body)
}
