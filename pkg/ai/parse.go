package ai

import (
	"encoding/json"
	"strings"
)

// ExtractJSON extracts JSON content from markdown code blocks or plain
// text. LLMs often wrap structured output in ```json fences.
func ExtractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}

	return strings.TrimSpace(content)
}

// DecodeJSON strips formatting artifacts and unmarshals the content
// into out. It is the standard path for every structured LLM response.
func DecodeJSON(content string, out interface{}) error {
	return json.Unmarshal([]byte(ExtractJSON(content)), out)
}
