package constants

import (
	"strings"
)

// Category classifies where a budget line item's cost lands.
type Category string

const (
	Materials Category = "materials"
	Labor     Category = "labor"
	Equipment Category = "equipment"
	Overhead  Category = "overhead"
	Other     Category = "other"
)

var allCategories = []Category{
	Materials,
	Labor,
	Equipment,
	Overhead,
	Other,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// codePrefixCategories maps MOP code chapter prefixes to cost categories.
// Prefix lookup runs before the keyword fallback.
var codePrefixCategories = map[string]Category{
	"7.301": Labor,     // clearing and site preparation
	"7.302": Equipment, // earthworks
	"7.303": Materials, // drainage and culverts
	"7.304": Materials, // paving
	"7.305": Materials, // minor works
	"7.306": Materials, // aggregates and wearing courses
	"7.311": Overhead,  // site installations and maintenance camps
}

// categoryKeywords back the description fallback when no code prefix matches.
var categoryKeywords = map[Category][]string{
	Materials: {
		"hormigón", "cemento", "acero", "ripio", "arena", "grava",
		"tubo", "alcantarilla", "loseta", "pavimento", "asfalto",
		"polietileno", "material", "agregado", "chancado",
	},
	Labor: {
		"mano de obra", "personal", "trabajador", "técnico",
		"operario", "maestro", "ayudante", "instalación",
		"conformación", "excavación", "construcción",
	},
	Equipment: {
		"maquinaria", "equipo", "bulldozer", "excavadora",
		"camión", "compactador", "rodillo", "motoniveladora",
		"retroexcavadora", "grúa", "herramienta",
	},
	Overhead: {
		"gastos generales", "utilidad", "administración",
		"faena", "campamento", "oficina", "gestión", "supervisión",
	},
}

// CategorizeItem assigns a cost category: code-prefix lookup first, then
// keyword search over the description, then Other.
func CategorizeItem(code, description string) Category {
	for prefix, cat := range codePrefixCategories {
		if strings.HasPrefix(code, prefix) {
			return cat
		}
	}
	desc := strings.ToLower(description)
	for _, cat := range []Category{Materials, Labor, Equipment, Overhead} {
		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(desc, kw) {
				return cat
			}
		}
	}
	return Other
}

// Canonicalize maps a free-form category label (possibly from the model)
// onto the closed category set.
func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Other, false
	}
	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]Category{
		"materiales":            Materials,
		"material":              Materials,
		"insumos":               Materials,
		"mano de obra":          Labor,
		"mano_obra":             Labor,
		"personal":              Labor,
		"equipos":               Equipment,
		"maquinaria":            Equipment,
		"equipos y maquinarias": Equipment,
		"gastos generales":      Overhead,
		"indirectos":            Overhead,
		"otros":                 Other,
	}
	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == string(cat) {
			return cat, true
		}
	}
	return Other, false
}
