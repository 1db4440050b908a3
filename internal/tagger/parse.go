package tagger

import (
	"encoding/json"
	"strings"

	"github.com/meridianwm/backoffice/internal/models"
)

// ParseResponse normalizes a raw model completion into a TagResult. The model
// is pinned to JSON output, but completions still arrive wrapped in code
// fences or prose often enough that we locate the outermost JSON object
// before unmarshalling. Returns ok=false and a zero result when no usable
// object is found.
func ParseResponse(raw string) (models.TagResult, bool) {
	cleaned := stripCodeFences(strings.TrimSpace(raw))

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return models.TagResult{}, false
	}

	var result models.TagResult
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &result); err != nil {
		return models.TagResult{}, false
	}

	result.Tags = compact(result.Tags)
	result.Entities = compact(result.Entities)
	result.SuggestedCategory = strings.TrimSpace(result.SuggestedCategory)
	return result, true
}

// stripCodeFences removes a surrounding ```json ... ``` block if present.
func stripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// compact drops empty and whitespace-only entries.
func compact(in []string) []string {
	out := in[:0]
	for _, v := range in {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
