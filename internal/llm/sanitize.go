package llm

import (
	"strings"

	"github.com/tenders-cl/budget-analyzer/constants"
	"github.com/tenders-cl/budget-analyzer/internal/numfmt"
)

// numericKeys are payload fields the schemas require as numbers but models
// frequently emit as formatted strings ("$ 1.234.567").
var numericKeys = map[string]struct{}{
	"total_budget": {},
	"quantity":     {},
	"unit_price":   {},
	"subtotal":     {},
}

// SanitizePhasePayload normalizes a decoded payload in place before schema
// validation: formatted number strings become numbers, category labels are
// mapped onto the closed category set, null and empty-string fields are
// dropped. Returns the keys it touched.
func SanitizePhasePayload(payload map[string]any) []string {
	var touched []string
	sanitizeObject(payload, &touched)
	return touched
}

func sanitizeObject(m map[string]any, touched *[]string) {
	for k, v := range m {
		switch t := v.(type) {
		case nil:
			delete(m, k)
			*touched = append(*touched, k+"(null)")
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				delete(m, k)
				*touched = append(*touched, k+"(empty)")
				continue
			}
			if _, isNumeric := numericKeys[k]; isNumeric {
				m[k] = numfmt.ParseAmount(s)
				*touched = append(*touched, k+"(coerced)")
				continue
			}
			if k == "category" {
				if cat, ok := constants.Canonicalize(s); ok {
					m[k] = string(cat)
				} else {
					m[k] = string(constants.Other)
					*touched = append(*touched, k+"(unknown)")
				}
				continue
			}
			if k == "probability" || k == "impact" || k == "priority" {
				m[k] = normalizeLevel(s, touched)
				continue
			}
			m[k] = s
		case map[string]any:
			sanitizeObject(t, touched)
		case []any:
			for _, el := range t {
				if obj, ok := el.(map[string]any); ok {
					sanitizeObject(obj, touched)
				}
			}
		}
	}
}

func normalizeLevel(s string, touched *[]string) string {
	switch strings.ToLower(s) {
	case "low", "baja", "bajo":
		return "low"
	case "medium", "media", "medio", "moderada":
		return "medium"
	case "high", "alta", "alto", "crítica", "critica":
		return "high"
	default:
		*touched = append(*touched, "level(unknown)")
		return "medium"
	}
}
