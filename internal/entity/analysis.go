package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/tenders-cl/budget-analyzer/constants"
)

// PhaseResult is the outcome of one structuring phase against the
// text-generation capability.
type PhaseResult struct {
	Phase    constants.AnalysisPhase
	Success  bool
	Payload  map[string]any // parsed structured payload, schema varies by phase
	Raw      string         // raw model response, kept for diagnostics
	Attempts int
	Err      string
}

// BudgetBreakdown is the deterministic costing-formula output.
type BudgetBreakdown struct {
	DirectCosts map[constants.Category]float64 `json:"direct_costs"`
	DirectTotal float64                        `json:"direct_total"`
	Overhead    float64                        `json:"overhead"`
	Profit      float64                        `json:"profit"`
	Contingency float64                        `json:"contingency"`
	Subtotal    float64                        `json:"subtotal"`
	Tax         float64                        `json:"tax"`
	GrandTotal  float64                        `json:"grand_total"`
}

// Risk is one identified project risk.
type Risk struct {
	Category    string `json:"category"`
	Factor      string `json:"factor"`
	Probability string `json:"probability"`
	Impact      string `json:"impact"`
	Mitigation  string `json:"mitigation"`
}

// Recommendation is one actionable suggestion from the analysis.
type Recommendation struct {
	Category       string `json:"category"`
	Recommendation string `json:"recommendation"`
	Justification  string `json:"justification"`
	Priority       string `json:"priority"`
}

// ValidationReport carries reconciliation findings as data, never as errors.
// IsValid is true iff Errors is empty.
type ValidationReport struct {
	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
	IsValid  bool     `json:"is_valid"`
}

// Penalty is the confidence deduction implied by the findings.
func (r ValidationReport) Penalty() int {
	return constants.ReconcileErrorPenalty*len(r.Errors) +
		constants.ReconcileWarningPenalty*len(r.Warnings)
}

// ProcessingMetadata describes how the result was produced.
type ProcessingMetadata struct {
	Filenames      []string                 `json:"filenames"`
	FileSizeBytes  int64                    `json:"file_size_bytes"`
	PagesProcessed int                      `json:"pages_processed"`
	StrategiesUsed []constants.StrategyName `json:"strategies_used"`
	PhaseAttempts  map[string]int           `json:"phase_attempts"`
	StartedAt      time.Time                `json:"started_at"`
	FinishedAt     time.Time                `json:"finished_at"`
}

// FinalAnalysis is the only record that survives a pipeline run; it is handed
// to the result store keyed by ID.
type FinalAnalysis struct {
	ID                   uuid.UUID           `json:"analysis_id"`
	ProjectInfo          ProjectInfo         `json:"project_info"`
	Summary              string              `json:"summary"`
	Breakdown            BudgetBreakdown     `json:"breakdown"`
	Items                []CanonicalLineItem `json:"items"`
	Risks                []Risk              `json:"risks"`
	Recommendations      []Recommendation    `json:"recommendations"`
	Validation           ValidationReport    `json:"validation"`
	Confidence           int                 `json:"confidence"` // in [0,100]
	RequiresManualReview bool                `json:"requires_manual_review"`
	Metadata             ProcessingMetadata  `json:"metadata"`
}
