package entity

import (
	"github.com/tenders-cl/budget-analyzer/constants"
)

// RawTable is one table recovered by a strategy, before any line-item parsing
// survives validation.
type RawTable struct {
	Page       int                    `json:"page"`
	TableIndex int                    `json:"table_index"`
	Headers    []string               `json:"headers"`
	Rows       [][]string             `json:"rows"`
	Source     constants.StrategyName `json:"source"`
}

// RawLineItem is one priced budget entry as recovered by a single strategy.
// Amounts are non-negative; subtotal consistency is reconciled downstream,
// not enforced here.
type RawLineItem struct {
	Code        string                 `json:"code"`
	Description string                 `json:"description"`
	Unit        string                 `json:"unit"`
	Quantity    float64                `json:"quantity"`
	UnitPrice   float64                `json:"unit_price"`
	Subtotal    float64                `json:"subtotal"`
	Source      constants.StrategyName `json:"source"`
	RowIndex    int                    `json:"row_index"`
}

// CompletenessScore counts non-empty, non-zero fields; the canonicalizer uses
// it to pick between duplicate recoveries of the same code.
func (it RawLineItem) CompletenessScore() int {
	score := 0
	if it.Code != "" {
		score++
	}
	if it.Description != "" {
		score++
	}
	if it.Unit != "" {
		score++
	}
	if it.Quantity > 0 {
		score++
	}
	if it.UnitPrice > 0 {
		score++
	}
	if it.Subtotal > 0 {
		score++
	}
	return score
}

// CanonicalLineItem is the single authoritative record for one item code
// after deduplication and validation.
type CanonicalLineItem struct {
	Code        string             `json:"code"`
	Description string             `json:"description"`
	Unit        string             `json:"unit"`
	Quantity    float64            `json:"quantity"`
	UnitPrice   float64            `json:"unit_price"`
	Subtotal    float64            `json:"subtotal"`
	Category    constants.Category `json:"category"`
}

// RawExtractionResult is the output of one strategy run. Owned by the
// orchestrator until merged; immutable once produced.
type RawExtractionResult struct {
	Strategy constants.StrategyName
	Success  bool
	Text     string
	Tables   []RawTable
	Items    []RawLineItem
	Pages    int
	Err      string
}

// ProjectInfo holds document-level metadata; merge policy across strategies
// and documents is first-non-empty-wins.
type ProjectInfo struct {
	Name        string `json:"name"`
	Region      string `json:"region"`
	Locality    string `json:"locality"`
	Directorate string `json:"directorate,omitempty"`
}

// Merge fills empty fields of p from other.
func (p *ProjectInfo) Merge(other ProjectInfo) {
	if p.Name == "" {
		p.Name = other.Name
	}
	if p.Region == "" {
		p.Region = other.Region
	}
	if p.Locality == "" {
		p.Locality = other.Locality
	}
	if p.Directorate == "" {
		p.Directorate = other.Directorate
	}
}

// DocumentTotals are totals asserted by the document itself, used by the
// reconciler as a cross-check and as a fallback when no items survive.
type DocumentTotals struct {
	Net   float64 `json:"net"`
	Tax   float64 `json:"tax"`
	Grand float64 `json:"grand"`
}

// ExtractionSummary aggregates all strategy outputs for one document (or one
// merged batch), before canonicalization.
type ExtractionSummary struct {
	Text           string
	Tables         []RawTable
	Items          []RawLineItem
	ProjectInfo    ProjectInfo
	Totals         DocumentTotals
	StrategiesUsed []constants.StrategyName
	PagesProcessed int
	LikelyScanned  bool
	Confidence     float64 // in [0,1]
}
