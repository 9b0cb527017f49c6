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
	defaultOpenAIBaseURL = "https://api.openai.com"
	defaultOpenAIModel   = "gpt-4o"
)

// Compile-time interface check.
var _ Backend = (*OpenAI)(nil)

// OpenAI calls the OpenAI Chat Completions API.
type OpenAI struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// NewOpenAI creates an OpenAI backend. Zero-value config fields fall back to
// the public API endpoint and the default model.
func NewOpenAI(cfg Config, opts ...Option) *OpenAI {
	c := &OpenAI{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: cfg.BaseURL,
		http:    applyOptions(opts),
	}
	if c.model == "" {
		c.model = defaultOpenAIModel
	}
	if c.baseURL == "" {
		c.baseURL = defaultOpenAIBaseURL
	}
	return c
}

// Name returns the backend identifier.
func (c *OpenAI) Name() BackendName { return BackendOpenAI }

// openaiRequest is the Chat Completions API request structure.
type openaiRequest struct {
	Model               string          `json:"model"`
	MaxCompletionTokens int             `json:"max_completion_tokens"`
	Messages            []openaiMessage `json:"messages"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openaiResponse is the Chat Completions API response structure.
type openaiResponse struct {
	Choices []openaiChoice  `json:"choices"`
	Error   *openaiAPIError `json:"error,omitempty"`
}

type openaiChoice struct {
	Message openaiMessage `json:"message"`
}

type openaiAPIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// CompleteJSON sends the prompt as a single user message and extracts one
// JSON object from the model's text reply.
func (c *OpenAI) CompleteJSON(ctx context.Context, prompt string, maxTokens int) (json.RawMessage, error) {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	reqBody := openaiRequest{
		Model:               c.model,
		MaxCompletionTokens: maxTokens,
		Messages:            []openaiMessage{{Role: "user", Content: prompt}},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("llm: openai: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llm: openai: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("llm: openai: send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("llm: openai: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			Backend:    BackendOpenAI,
			StatusCode: resp.StatusCode,
			Message:    apiErrorMessage(respBody),
		}
	}

	var data openaiResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return nil, fmt.Errorf("llm: openai: unmarshal response: %w", err)
	}
	if data.Error != nil {
		return nil, fmt.Errorf("llm: openai: API error: %s", data.Error.Message)
	}
	if len(data.Choices) == 0 {
		return nil, fmt.Errorf("llm: openai: empty response")
	}

	return ExtractJSON(data.Choices[0].Message.Content)
}
