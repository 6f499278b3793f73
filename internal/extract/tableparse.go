package extract

import (
	"strings"

	"github.com/tenders-cl/budget-analyzer/constants"
	"github.com/tenders-cl/budget-analyzer/internal/entity"
	"github.com/tenders-cl/budget-analyzer/internal/numfmt"
)

// headerKeywords identify a budget table. A candidate table is accepted when
// its header row overlaps this set by at least minHeaderMatches.
var headerKeywords = []string{
	"ítem", "item", "designación", "descripción", "unidad",
	"cantidad", "precio", "unitario", "total",
}

const minHeaderMatches = 3

// isBudgetHeader applies the keyword-overlap acceptance test shared by the
// table strategies.
func isBudgetHeader(cells []string) bool {
	header := strings.ToLower(strings.Join(cells, " "))
	matches := 0
	for _, kw := range headerKeywords {
		if strings.Contains(header, kw) {
			matches++
		}
	}
	return matches >= minHeaderMatches
}

// parseBudgetRow turns one table row into a line item. Returns false when the
// row carries no valid item code or fewer than three numeric cells
// (quantity, unit price, subtotal).
func parseBudgetRow(cells []string, rowIndex int, source constants.StrategyName) (entity.RawLineItem, bool) {
	clean := make([]string, len(cells))
	for i, c := range cells {
		clean[i] = strings.TrimSpace(c)
	}

	// The code sits in one of the first two columns.
	var code string
	for _, c := range clean[:min(2, len(clean))] {
		if constants.IsValidItemCode(c) {
			code = c
			break
		}
	}
	if code == "" {
		return entity.RawLineItem{}, false
	}

	// Description is the longest non-numeric cell.
	var description string
	for _, c := range clean {
		if len(c) > len(description) && !isNumericCell(c) && c != code {
			description = c
		}
	}

	// Unit is the first cell matching the unit table.
	var unit string
	for _, c := range clean {
		if constants.IsValidUnit(strings.ToLower(c)) {
			unit = strings.ToLower(c)
			break
		}
	}

	var numeric []float64
	for _, c := range clean {
		if c == code || c == description || !isNumericCell(c) {
			continue
		}
		if v := numfmt.ParseAmount(c); v > 0 {
			numeric = append(numeric, v)
		}
	}
	if len(numeric) < 3 {
		return entity.RawLineItem{}, false
	}

	return entity.RawLineItem{
		Code:        code,
		Description: description,
		Unit:        unit,
		Quantity:    numeric[0],
		UnitPrice:   numeric[1],
		Subtotal:    numeric[2],
		Source:      source,
		RowIndex:    rowIndex,
	}, true
}

// isNumericCell reports whether the cell is purely a formatted number or
// currency amount.
func isNumericCell(s string) bool {
	if s == "" {
		return false
	}
	stripped := strings.NewReplacer("$", "", ".", "", ",", "", " ", "").Replace(s)
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// itemsFromTable extracts line items from an accepted table's data rows.
func itemsFromTable(t entity.RawTable) []entity.RawLineItem {
	var items []entity.RawLineItem
	for i, row := range t.Rows {
		if len(row) < 4 {
			continue
		}
		if item, ok := parseBudgetRow(row, i+1, t.Source); ok {
			items = append(items, item)
		}
	}
	return items
}
