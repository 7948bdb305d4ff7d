package research

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseModelJSON extracts and strictly parses the JSON object or array in a
// model completion. Models routinely wrap JSON in markdown fences or prose,
// so the parser slices from the first opening bracket to the last closing
// one before unmarshaling. There is no retry on failure: the caller
// substitutes its fallback object instead.
func parseModelJSON(raw string, v interface{}) error {
	s := strings.TrimSpace(raw)

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return fmt.Errorf("no JSON found in completion")
	}
	end := strings.LastIndexAny(s, "}]")
	if end < start {
		return fmt.Errorf("unterminated JSON in completion")
	}

	if err := json.Unmarshal([]byte(s[start:end+1]), v); err != nil {
		return fmt.Errorf("parse completion JSON: %w", err)
	}
	return nil
}
