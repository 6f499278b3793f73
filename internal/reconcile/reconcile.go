// Package reconcile applies the deterministic Chilean public-works costing
// formula and cross-checks the result against everything the document and
// the analysis asserted. Findings are data, never errors.
package reconcile

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/tenders-cl/budget-analyzer/constants"
	"github.com/tenders-cl/budget-analyzer/internal/entity"
)

type Reconciler struct {
	logger *slog.Logger
}

func NewReconciler(logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{logger: logger}
}

// Reconcile computes the budget breakdown from canonical items and validates
// it against document-asserted totals and the analysis-stated total.
// statedTotal is zero when the analysis produced none.
func (r *Reconciler) Reconcile(items []entity.CanonicalLineItem, totals entity.DocumentTotals, statedTotal float64) (entity.BudgetBreakdown, entity.ValidationReport) {
	var report entity.ValidationReport

	direct := directCosts(items, totals, &report)

	var b entity.BudgetBreakdown
	b.DirectCosts = direct
	for _, v := range direct {
		b.DirectTotal += v
	}
	b.Overhead = b.DirectTotal * constants.OverheadRate
	b.Profit = (b.DirectTotal + b.Overhead) * constants.ProfitRate
	b.Contingency = b.DirectTotal * constants.ContingencyRate
	b.Subtotal = b.DirectTotal + b.Overhead + b.Profit + b.Contingency
	b.Tax = b.Subtotal * constants.TaxRate
	b.GrandTotal = b.Subtotal + b.Tax

	checkItems(items, &report)
	checkTotal(&report, "total neto", totals.Net, b.Subtotal)
	checkTotal(&report, "IVA", totals.Tax, b.Tax)
	checkTotal(&report, "total general", totals.Grand, b.GrandTotal)
	checkTotal(&report, "total declarado por el análisis", statedTotal, b.GrandTotal)

	report.IsValid = len(report.Errors) == 0

	r.logger.Info("reconcile.done",
		"direct_total", b.DirectTotal,
		"grand_total", b.GrandTotal,
		"warnings", len(report.Warnings),
		"errors", len(report.Errors),
	)
	return b, report
}

// Confidence converts a validation report into a [0,100] score.
func Confidence(report entity.ValidationReport) int {
	c := 100 - report.Penalty()
	if c < 0 {
		return 0
	}
	return c
}

func directCosts(items []entity.CanonicalLineItem, totals entity.DocumentTotals, report *entity.ValidationReport) map[constants.Category]float64 {
	direct := make(map[constants.Category]float64)
	if len(items) > 0 {
		for _, it := range items {
			direct[it.Category] += it.Subtotal
		}
		return direct
	}

	net := totals.Net
	if net == 0 && totals.Grand > 0 {
		net = totals.Grand / (1 + constants.TaxRate)
	}
	if net > 0 {
		// Deflate by the formula markup so recomputing the breakdown
		// lands back on the document's own totals instead of flagging
		// a self-consistent document.
		base := net / subtotalMarkup
		report.Warnings = append(report.Warnings,
			"sin ítems canónicos; costos directos estimados desde los totales del documento")
		for cat, share := range constants.DefaultCategorySplit {
			direct[cat] = base * share
		}
	}
	return direct
}

// subtotalMarkup is subtotal ÷ direct costs under the costing formula.
var subtotalMarkup = 1 + constants.OverheadRate +
	(1+constants.OverheadRate)*constants.ProfitRate + constants.ContingencyRate

// checkItems flags line items whose stated subtotal disagrees with
// quantity × unit price beyond the item tolerance.
func checkItems(items []entity.CanonicalLineItem, report *entity.ValidationReport) {
	for _, it := range items {
		if it.Quantity <= 0 || it.UnitPrice <= 0 {
			continue
		}
		diff := math.Abs(it.Subtotal - it.Quantity*it.UnitPrice)
		if diff <= constants.ItemTolerance {
			continue
		}
		finding := fmt.Sprintf("ítem %s: subtotal declarado difiere de cantidad × precio unitario en %.0f CLP", it.Code, diff)
		if diff > constants.SeverityThreshold {
			report.Errors = append(report.Errors, finding)
		} else {
			report.Warnings = append(report.Warnings, finding)
		}
	}
}

// checkTotal compares an asserted figure against the recomputed one; zero
// asserted means the source never stated it and no finding is raised.
func checkTotal(report *entity.ValidationReport, label string, asserted, computed float64) {
	if asserted == 0 {
		return
	}
	diff := math.Abs(asserted - computed)
	if diff <= constants.TotalsTolerance {
		return
	}
	finding := fmt.Sprintf("%s: declarado %.0f vs calculado %.0f (diferencia %.0f CLP)", label, asserted, computed, diff)
	if diff > constants.SeverityThreshold {
		report.Errors = append(report.Errors, finding)
	} else {
		report.Warnings = append(report.Warnings, finding)
	}
}
