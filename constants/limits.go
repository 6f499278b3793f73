package constants

// Costing formula rates (Chilean public-works convention).
const (
	OverheadRate    = 0.12 // on direct costs
	ProfitRate      = 0.10 // on direct costs + overhead
	ContingencyRate = 0.05 // on direct costs
	TaxRate         = 0.19 // IVA, on subtotal
)

// Validation ranges and tolerances. Tolerances are absolute CLP amounts,
// not percentages.
const (
	MaxUnitPrice  = 10_000_000     // per-unit sanity ceiling
	MaxTotalPrice = 1_000_000_000  // project-total sanity ceiling
	MinQuantity   = 0.01
	MaxQuantity   = 1_000_000

	ItemTolerance     = 100     // qty × unit price vs stated subtotal
	TotalsTolerance   = 1_000   // recomputed step vs asserted step
	SeverityThreshold = 100_000 // discrepancy above this is an error, below a warning
)

// DefaultCategorySplit distributes a document-asserted total across cost
// categories when no line items survived canonicalization.
var DefaultCategorySplit = map[Category]float64{
	Materials: 0.40,
	Labor:     0.30,
	Equipment: 0.20,
	Other:     0.10,
}

// Extraction fallback trigger thresholds: the OCR pass runs only when all
// three primary signals are below these.
const (
	FallbackMinTextLen = 1000
	FallbackMinTables  = 2
	FallbackMinItems   = 5
	OCRMaxPages        = 5 // cost cap on the rasterize+recognize pass
)

// Confidence scoring.
const (
	ExtractionTextThreshold = 1000 // chars for full text-volume signal
	ReconcileErrorPenalty   = 25
	ReconcileWarningPenalty = 10

	// ManualReviewConfidenceCeiling caps the score of any result flagged
	// for manual review.
	ManualReviewConfidenceCeiling = 10
)
