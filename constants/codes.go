package constants

import (
	"regexp"
)

// MOP item codes follow one of three hierarchical grammars observed in
// bidding documents: chapter codes (7.303.1341, 7.302.7a), special technical
// specifications (ETE.1), and environmental/administrative codes (804-2).
var (
	reChapterCode = regexp.MustCompile(`^7\.\d{3}\.\d+[a-zA-Z]?$`)
	reETECode     = regexp.MustCompile(`^ETE\.\d+$`)
	reAdminCode   = regexp.MustCompile(`^\d{3,4}-\d+$`)
)

// IsValidItemCode reports whether code matches the MOP item-code grammar.
func IsValidItemCode(code string) bool {
	if code == "" {
		return false
	}
	return reChapterCode.MatchString(code) ||
		reETECode.MatchString(code) ||
		reAdminCode.MatchString(code)
}

// ValidUnits is the set of measurement unit labels accepted on line items.
var ValidUnits = map[string]struct{}{
	"m3": {}, "m³": {}, "cm3": {}, "cm³": {},
	"m2": {}, "m²": {}, "cm2": {}, "cm²": {}, "ha": {},
	"m": {}, "cm": {}, "mm": {}, "km": {}, "ml": {},
	"kg": {}, "ton": {}, "t": {}, "gr": {}, "g": {},
	"gl": {}, "un": {}, "unid": {}, "pza": {}, "lt": {}, "l": {},
	"hr": {}, "h": {}, "día": {}, "mes": {},
}

// IsValidUnit reports whether label is a known measurement unit.
func IsValidUnit(label string) bool {
	_, ok := ValidUnits[label]
	return ok
}
