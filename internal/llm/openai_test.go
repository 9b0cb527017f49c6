package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAI_CompleteJSON(t *testing.T) {
	var gotReq openaiRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(openaiResponse{
			Choices: []openaiChoice{
				{Message: openaiMessage{Role: "assistant", Content: `{"mergedContent": "x", "changes": []}`}},
			},
		})
	}))
	defer srv.Close()

	c := NewOpenAI(Config{APIKey: "sk-test", Model: "gpt-test", BaseURL: srv.URL})

	raw, err := c.CompleteJSON(context.Background(), "fuse this", 256)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mergedContent": "x", "changes": []}`, string(raw))

	assert.Equal(t, "gpt-test", gotReq.Model)
	assert.Equal(t, 256, gotReq.MaxCompletionTokens)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "fuse this", gotReq.Messages[0].Content)
}

func TestOpenAI_APIErrorCarriesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"type": "invalid_request_error", "message": "bad key"}}`))
	}))
	defer srv.Close()

	c := NewOpenAI(Config{BaseURL: srv.URL})
	_, err := c.CompleteJSON(context.Background(), "p", 64)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "bad key", apiErr.Message)
	assert.Equal(t, BackendOpenAI, apiErr.Backend)
}

func TestOpenAI_EmptyChoicesIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openaiResponse{})
	}))
	defer srv.Close()

	c := NewOpenAI(Config{BaseURL: srv.URL})
	_, err := c.CompleteJSON(context.Background(), "p", 64)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}
