package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON_PlainObject(t *testing.T) {
	raw, err := ExtractJSON(`{"hasConflict": true}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"hasConflict": true}`, string(raw))
}

func TestExtractJSON_FencedBlock(t *testing.T) {
	text := "Here is the result:\n```json\n{\"kind\": \"content\"}\n```\nDone."
	raw, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind": "content"}`, string(raw))
}

func TestExtractJSON_FenceWithoutLanguage(t *testing.T) {
	text := "```\n{\"kind\": \"structure\"}\n```"
	raw, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind": "structure"}`, string(raw))
}

func TestExtractJSON_ObjectInsideProse(t *testing.T) {
	text := `The merged result is {"mergedContent": "x", "changes": []} as requested.`
	raw, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mergedContent": "x", "changes": []}`, string(raw))
}

func TestExtractJSON_NestedBraces(t *testing.T) {
	text := "```json\n{\"outer\": {\"inner\": 1}}\n```"
	raw, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"outer": {"inner": 1}}`, string(raw))
}

func TestExtractJSON_NoObject(t *testing.T) {
	_, err := ExtractJSON("I could not produce a merge for this file.")
	require.Error(t, err)
}

func TestExtractJSON_MalformedObject(t *testing.T) {
	_, err := ExtractJSON(`{"unterminated": `)
	require.Error(t, err)
}
