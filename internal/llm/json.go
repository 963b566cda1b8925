package llm

import (
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"
)

// ParseJSONResponse parses a JSON object from an LLM response, tolerating
// markdown code fences around the payload.
func ParseJSONResponse(text string) map[string]any {
	var result map[string]any
	if err := json.Unmarshal([]byte(StripFences(text)), &result); err != nil {
		if strings.TrimSpace(text) != "" {
			logrus.WithError(err).Warn("failed to parse LLM response as JSON")
		}
		return nil
	}
	return result
}

// ParseJSONInto decodes a fenced-or-plain JSON response into v.
func ParseJSONInto(text string, v any) error {
	return json.Unmarshal([]byte(StripFences(text)), v)
}

// StripFences removes a surrounding markdown code fence, if present.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	endIdx := len(lines) - 1
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}
	return strings.Join(lines[1:endIdx], "\n")
}
