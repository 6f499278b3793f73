package extract

import (
	"regexp"
	"strings"

	"github.com/tenders-cl/budget-analyzer/constants"
	"github.com/tenders-cl/budget-analyzer/internal/entity"
	"github.com/tenders-cl/budget-analyzer/internal/numfmt"
)

var (
	reProjectName = regexp.MustCompile(`(?im)^\s*(?:NOMBRE\s+)?PROYECTO\s*:\s*"?([^"\n]+)"?`)
	reWorkName    = regexp.MustCompile(`(?i)(CONSERVACI[OÓ]N|CONSTRUCCI[OÓ]N|MEJORAMIENTO)\s+DE\s+([^\n,]+)`)
	reRegion      = regexp.MustCompile(`(?i)REGI[OÓ]N\s+DE(?:L)?\s+([A-ZÁÉÍÓÚÑ' ]+)`)
	reRegionCode  = regexp.MustCompile(`(?i)\b(XVI|XV|XIV|XIII|XII|XI|X|IX|VIII|VII|VI|V|IV|III|II|I|RM)\s+REGI[OÓ]N`)
	reLocality    = regexp.MustCompile(`(?i)COMUNAS?\s+DE\s+([A-ZÁÉÍÓÚÑ, ]+)`)

	reTotalNet   = regexp.MustCompile(`(?i)TOTAL\s+NETO\s*[:$]?\s*\$?\s*([\d,\.]+)`)
	reTotalTax   = regexp.MustCompile(`(?i)(?:19\s*%\s*)?I\.?V\.?A\.?\s*(?:19\s*%)?\s*[:$]?\s*\$?\s*([\d,\.]+)`)
	reTotalGrand = regexp.MustCompile(`(?i)TOTAL\s+(?:GENERAL|BRUTO)\s*[:$]?\s*\$?\s*([\d,\.]+)`)
)

// ParseProjectInfo pulls project metadata out of raw document text.
func ParseProjectInfo(text string) entity.ProjectInfo {
	var info entity.ProjectInfo

	if m := reProjectName.FindStringSubmatch(text); m != nil {
		info.Name = strings.TrimSpace(m[1])
	} else if m := reWorkName.FindStringSubmatch(text); m != nil {
		info.Name = strings.TrimSpace(m[1] + " de " + m[2])
	}
	if m := reRegion.FindStringSubmatch(text); m != nil {
		info.Region = canonicalRegion(strings.TrimSpace(m[1]))
	} else if m := reRegionCode.FindStringSubmatch(text); m != nil {
		if name, ok := constants.RegionNames[strings.ToUpper(m[1])]; ok {
			info.Region = "Región de " + name
		}
	}
	if m := reLocality.FindStringSubmatch(text); m != nil {
		info.Locality = strings.TrimSpace(m[1])
	}
	info.Directorate = detectDirectorate(text)
	return info
}

// canonicalRegion maps an extracted region name onto the official listing,
// fixing the casing OCR and all-caps headers mangle.
func canonicalRegion(raw string) string {
	for _, name := range constants.RegionNames {
		if strings.EqualFold(name, raw) {
			return "Región de " + name
		}
	}
	return "Región de " + titleWords(raw)
}

func detectDirectorate(text string) string {
	upper := strings.ToUpper(text)
	for _, name := range constants.Directorates {
		if strings.Contains(upper, strings.ToUpper(name)) {
			return name
		}
	}
	return ""
}

// ParseDocumentTotals pulls totals the document itself asserts. Multiple
// matches keep the largest value, which in practice is the project total
// rather than a section subtotal.
func ParseDocumentTotals(text string) entity.DocumentTotals {
	var totals entity.DocumentTotals
	totals.Net = maxMatch(reTotalNet, text)
	totals.Tax = maxMatch(reTotalTax, text)
	totals.Grand = maxMatch(reTotalGrand, text)
	return totals
}

func titleWords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 {
			words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
		}
	}
	return strings.Join(words, " ")
}

func maxMatch(re *regexp.Regexp, text string) float64 {
	var best float64
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if v := numfmt.ParseAmount(m[1]); v > best {
			best = v
		}
	}
	return best
}
