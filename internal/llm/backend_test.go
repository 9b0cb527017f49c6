package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBackend_SelectsByName(t *testing.T) {
	b, err := NewBackend("anthropic", Config{})
	require.NoError(t, err)
	assert.Equal(t, BackendAnthropic, b.Name())

	b, err = NewBackend("openai", Config{})
	require.NoError(t, err)
	assert.Equal(t, BackendOpenAI, b.Name())
}

func TestNewBackend_EmptyNameDefaultsToAnthropic(t *testing.T) {
	b, err := NewBackend("", Config{})
	require.NoError(t, err)
	assert.Equal(t, BackendAnthropic, b.Name())
}

func TestNewBackend_NameIsCaseInsensitive(t *testing.T) {
	b, err := NewBackend("OpenAI", Config{})
	require.NoError(t, err)
	assert.Equal(t, BackendOpenAI, b.Name())
}

func TestNewBackend_UnknownName(t *testing.T) {
	_, err := NewBackend("llama", Config{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownBackend))
	assert.Contains(t, err.Error(), "llama")
}

func TestAPIError_Message(t *testing.T) {
	err := &APIError{Backend: BackendAnthropic, StatusCode: 429, Message: "rate limited"}
	assert.Equal(t, "llm: anthropic: HTTP 429: rate limited", err.Error())
}
