// Package numfmt parses locale-formatted currency and quantity strings into
// float values. Budget documents mix Chilean formatting (dot thousands, comma
// decimal) with anglo formatting (comma thousands, dot decimal), so the
// disambiguation rule lives here and nowhere else.
package numfmt

import (
	"regexp"
	"strconv"
	"strings"
)

var reNonNumeric = regexp.MustCompile(`[^\d,.\-]`)

// ParseAmount converts a currency or quantity string to a float64.
//
// Disambiguation rule:
//   - both separators present: the one appearing last is the decimal mark,
//     the other is a thousands separator;
//   - a single separator followed by exactly 3 digits per group is a
//     thousands separator;
//   - a single separator followed by 1-2 trailing digits is a decimal mark.
//
// Unparseable input yields 0: absence of a number is the correct signal for
// unreliable recovery, not an error.
func ParseAmount(s string) float64 {
	cleaned := reNonNumeric.ReplaceAllString(s, "")
	if cleaned == "" || cleaned == "-" {
		return 0
	}

	neg := strings.HasPrefix(cleaned, "-")
	cleaned = strings.ReplaceAll(cleaned, "-", "")

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			// 1.234.567,50
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			// 1,234,567.50
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case hasComma:
		cleaned = resolveSingleSeparator(cleaned, ",")
	case hasDot:
		cleaned = resolveSingleSeparator(cleaned, ".")
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	if neg {
		return -v
	}
	return v
}

// resolveSingleSeparator decides whether sep is grouping or decimal when it is
// the only separator present, and rewrites the string to plain decimal form.
func resolveSingleSeparator(s, sep string) string {
	parts := strings.Split(s, sep)
	last := parts[len(parts)-1]

	grouping := len(last) == 3
	if len(parts) > 2 {
		// more than one occurrence can only be grouping
		grouping = true
	}
	if grouping {
		return strings.Join(parts, "")
	}
	return strings.Join(parts[:len(parts)-1], "") + "." + last
}

// ParseQuantity is ParseAmount with negative values clamped to 0; quantities
// are non-negative by definition.
func ParseQuantity(s string) float64 {
	v := ParseAmount(s)
	if v < 0 {
		return 0
	}
	return v
}
