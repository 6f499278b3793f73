package llm

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/tenders-cl/budget-analyzer/constants"
	"github.com/tenders-cl/budget-analyzer/internal/entity"
)

const maxPromptText = 8000

// BuildBasicExtractionPrompt asks for project identity and the headline
// budget figure.
func BuildBasicExtractionPrompt(text string, totals entity.DocumentTotals) string {
	var b strings.Builder
	b.WriteString("You are analyzing a Chilean public works bidding document (MOP). ")
	b.WriteString("Return ONLY a JSON object with these fields: ")
	b.WriteString(`"project_name" (string), "region" (string), "locality" (string), `)
	b.WriteString(`"total_budget" (number, CLP, no separators), "currency" (string), "summary" (string, one sentence). `)
	b.WriteString("Amounts use Chilean formatting in the source (dots as thousands separators). Never output null; omit unknown fields except the required ones.\n")
	if totals.Grand > 0 {
		fmt.Fprintf(&b, "\nThe document itself states: total neto %.0f, IVA %.0f, total general %.0f.\n", totals.Net, totals.Tax, totals.Grand)
	}
	b.WriteString("\nDocument text:\n")
	b.WriteString(clip(text, maxPromptText))
	return b.String()
}

// BuildItemAnalysisPrompt asks the model to review and enrich the line items
// recovered by extraction.
func BuildItemAnalysisPrompt(text string, items []entity.CanonicalLineItem) string {
	var b strings.Builder
	b.WriteString("You are reviewing budget line items extracted from a Chilean MOP bidding document. ")
	b.WriteString(`Return ONLY a JSON object: {"items": [...]}. Each item has "code", "description", "category", "unit", "quantity" (number), "unit_price" (number), "subtotal" (number), "observations" (string, optional). `)
	b.WriteString("Allowed categories: " + strings.Join(constants.AsStringSlice(), ", ") + ". ")
	b.WriteString("Correct obvious OCR damage in descriptions, fill missing categories, keep codes exactly as given. Do not invent items absent from the input.\n")

	b.WriteString("\nExtracted items:\n")
	enc, _ := json.Marshal(items)
	b.Write(enc)

	b.WriteString("\n\nDocument text excerpt:\n")
	b.WriteString(clip(text, maxPromptText/2))
	return b.String()
}

// BuildRiskAnalysisPrompt asks for project risks and recommendations given
// everything learned so far.
func BuildRiskAnalysisPrompt(basic map[string]any, items []entity.CanonicalLineItem) string {
	var b strings.Builder
	b.WriteString("You are assessing execution risk for a Chilean public works project. ")
	b.WriteString(`Return ONLY a JSON object: {"risks": [...], "recommendations": [...]}. `)
	b.WriteString(`Each risk has "category", "factor", "probability" ("low"|"medium"|"high"), "impact" (same levels), "mitigation". `)
	b.WriteString(`Each recommendation has "category", "recommendation", "justification", "priority" (same levels). `)
	b.WriteString("Base the assessment on the budget composition below; 2 to 5 risks with concrete mitigations.\n")

	b.WriteString("\nProject:\n")
	enc, _ := json.Marshal(basic)
	b.Write(enc)

	sorted := make([]entity.CanonicalLineItem, len(items))
	copy(sorted, items)
	slices.SortFunc(sorted, func(a, b entity.CanonicalLineItem) int {
		return cmp.Compare(b.Subtotal, a.Subtotal)
	})
	fmt.Fprintf(&b, "\n\nBudget has %d line items. Largest items:\n", len(items))
	for i, it := range sorted {
		if i == 10 {
			break
		}
		fmt.Fprintf(&b, "- %s %s: %.0f CLP\n", it.Code, it.Description, it.Subtotal)
	}
	return b.String()
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
