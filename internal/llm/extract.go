package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// jsonFenceRE matches a fenced code block containing a JSON object. Models
// frequently wrap JSON output in ```json fences despite being asked not to.
var jsonFenceRE = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ExtractJSON locates a single JSON object inside model output text. It
// prefers a fenced code block, then falls back to the outermost brace pair.
// The returned bytes are validated JSON but not bound to any schema.
func ExtractJSON(text string) (json.RawMessage, error) {
	if m := jsonFenceRE.FindStringSubmatch(text); len(m) == 2 {
		candidate := strings.TrimSpace(m[1])
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), nil
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		candidate := strings.TrimSpace(text[start : end+1])
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), nil
		}
	}

	return nil, fmt.Errorf("llm: no JSON object found in model output")
}
