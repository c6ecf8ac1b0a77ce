package expand

import (
	"encoding/json"
	"strings"

	"github.com/zp-innovation/mcp-task-master-sub000/pkg/taskerr"
)

// ParseCandidates extracts a JSON array of candidate objects from raw
// model output. Generation services are asked for structured data but may
// return prose, fenced code blocks, or an object wrapping the array —
// this tolerates all of those shapes. A text with no parsable array is a
// normalization failure.
func ParseCandidates(raw string) ([]json.RawMessage, error) {
	text := stripFences(strings.TrimSpace(raw))
	if text == "" {
		return nil, taskerr.Errorf(taskerr.Normalization, "generation result is empty")
	}

	// Direct array.
	if items, ok := decodeArray(text); ok {
		return items, nil
	}

	// Object wrapping an array, e.g. {"subtasks": [...]}.
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &wrapper); err == nil {
		for _, key := range []string{"subtasks", "tasks", "items"} {
			if msg, ok := wrapper[key]; ok {
				if items, ok := decodeArray(string(msg)); ok {
					return items, nil
				}
			}
		}
	}

	// Prose around an embedded array: take the outermost bracket pair.
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		if items, ok := decodeArray(text[start : end+1]); ok {
			return items, nil
		}
	}

	return nil, taskerr.Errorf(taskerr.Normalization, "no JSON array found in generation result")
}

// decodeArray attempts to decode text as a JSON array of raw elements.
func decodeArray(text string) ([]json.RawMessage, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, false
	}
	return items, true
}

// stripFences removes a surrounding markdown code fence, with or without
// a language marker.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	body := strings.TrimPrefix(text, "```")
	if idx := strings.Index(body, "\n"); idx >= 0 {
		body = body[idx+1:]
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
