package llm

import (
	"fmt"
	"strings"
)

// ExtractJSONObject recovers the JSON object embedded in a completion that
// may carry prose or markdown fencing around it: everything from the first
// '{' to the last '}' inclusive. It does not balance braces; the schema
// validation pass catches structurally broken candidates.
func ExtractJSONObject(raw string) (string, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object in completion (%d bytes)", len(raw))
	}
	return raw[start : end+1], nil
}
