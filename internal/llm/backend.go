// Package llm provides HTTP clients for the reasoning providers that back
// conflict classification and content fusion. Both providers are coerced to
// the same contract: a prompt goes in, one parsed JSON object comes out.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// BackendName identifies a supported reasoning backend.
type BackendName string

const (
	BackendAnthropic BackendName = "anthropic"
	BackendOpenAI    BackendName = "openai"
)

// ErrUnknownBackend is returned when a requested backend name is unsupported.
var ErrUnknownBackend = errors.New("llm: unknown backend")

// Backend is a reasoning provider able to answer a prompt with a single JSON
// object. Implementations must extract the model's text output and validate
// it as JSON before returning; callers never see provider-specific response
// shapes.
type Backend interface {
	Name() BackendName
	CompleteJSON(ctx context.Context, prompt string, maxTokens int) (json.RawMessage, error)
}

// Config holds the credentials and model selection for one backend.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewBackend selects a backend by name. An empty name defaults to Anthropic.
func NewBackend(name string, cfg Config, opts ...Option) (Backend, error) {
	switch strings.ToLower(name) {
	case string(BackendAnthropic), "":
		return NewAnthropic(cfg, opts...), nil
	case string(BackendOpenAI):
		return NewOpenAI(cfg, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}
}

// defaultTimeout bounds a single provider call. The orchestrator imposes no
// further deadline of its own.
const defaultTimeout = 120 * time.Second

// defaultMaxTokens is used when a caller passes maxTokens <= 0.
const defaultMaxTokens = 4096

// Option configures a backend client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = hc
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		o.httpClient.Timeout = d
	}
}

func applyOptions(opts []Option) *http.Client {
	o := &clientOptions{
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o.httpClient
}

// APIError is a non-2xx response from a provider API.
type APIError struct {
	Backend    BackendName
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("llm: %s: HTTP %d: %s", e.Backend, e.StatusCode, e.Message)
}
