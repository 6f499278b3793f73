// Package canonical deduplicates and validates line items recovered by the
// extraction strategies, producing one authoritative record per item code.
package canonical

import (
	"log/slog"
	"time"

	"github.com/tenders-cl/budget-analyzer/constants"
	"github.com/tenders-cl/budget-analyzer/internal/entity"
)

type Canonicalizer struct {
	logger *slog.Logger
}

func NewCanonicalizer(logger *slog.Logger) *Canonicalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Canonicalizer{logger: logger}
}

// Consolidate reduces raw items to at most one item per code. When several
// strategies recovered the same code, the most complete recovery wins; on a
// tie, the first seen wins. Items failing validation are dropped, never
// repaired. Output preserves first-seen code order.
func (c *Canonicalizer) Consolidate(raw []entity.RawLineItem) []entity.CanonicalLineItem {
	start := time.Now()

	best := make(map[string]entity.RawLineItem)
	var order []string
	for _, it := range raw {
		cur, seen := best[it.Code]
		if !seen {
			best[it.Code] = it
			order = append(order, it.Code)
			continue
		}
		if it.CompletenessScore() > cur.CompletenessScore() {
			best[it.Code] = it
		}
	}

	items := make([]entity.CanonicalLineItem, 0, len(order))
	dropped := 0
	for _, code := range order {
		it := best[code]
		if !valid(it) {
			dropped++
			c.logger.Debug("canonical.item_dropped", "code", it.Code, "source", it.Source)
			continue
		}
		subtotal := it.Subtotal
		if subtotal == 0 {
			subtotal = it.Quantity * it.UnitPrice
		}
		items = append(items, entity.CanonicalLineItem{
			Code:        it.Code,
			Description: it.Description,
			Unit:        it.Unit,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    subtotal,
			Category:    constants.CategorizeItem(it.Code, it.Description),
		})
	}

	c.logger.Info("canonical.done",
		"raw", len(raw),
		"unique", len(order),
		"kept", len(items),
		"dropped", dropped,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return items
}

func valid(it entity.RawLineItem) bool {
	if !constants.IsValidItemCode(it.Code) {
		return false
	}
	if it.Quantity < constants.MinQuantity || it.Quantity > constants.MaxQuantity {
		return false
	}
	if it.UnitPrice <= 0 || it.UnitPrice > constants.MaxUnitPrice {
		return false
	}
	if it.Subtotal < 0 || it.Subtotal > constants.MaxTotalPrice {
		return false
	}
	return true
}
