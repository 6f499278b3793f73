// Package pipeline wires extraction, canonicalization, analysis and
// reconciliation into one background run per submitted job.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tenders-cl/budget-analyzer/constants"
	"github.com/tenders-cl/budget-analyzer/internal/analysis"
	"github.com/tenders-cl/budget-analyzer/internal/canonical"
	"github.com/tenders-cl/budget-analyzer/internal/common"
	"github.com/tenders-cl/budget-analyzer/internal/entity"
	"github.com/tenders-cl/budget-analyzer/internal/extract"
	"github.com/tenders-cl/budget-analyzer/internal/jobs"
	"github.com/tenders-cl/budget-analyzer/internal/reconcile"
	"github.com/tenders-cl/budget-analyzer/internal/tempfile"
)

// ResultSaver is the persistence capability the pipeline needs.
type ResultSaver interface {
	Save(ctx context.Context, a entity.FinalAnalysis) error
}

// Analyzer runs the phase machine over merged content.
type Analyzer interface {
	Analyze(ctx context.Context, in analysis.Input) analysis.Outcome
}

type Pipeline struct {
	extractor  *extract.Orchestrator
	canon      *canonical.Canonicalizer
	analyzer   Analyzer
	reconciler *reconcile.Reconciler
	saver      ResultSaver
	registry   *jobs.Registry
	temps      *tempfile.Manager
	logger     *slog.Logger

	// openDoc is swapped in tests; production uses the PDF reader.
	openDoc func(path string) (extract.Doc, error)
}

func New(
	extractor *extract.Orchestrator,
	canon *canonical.Canonicalizer,
	analyzer Analyzer,
	reconciler *reconcile.Reconciler,
	saver ResultSaver,
	registry *jobs.Registry,
	temps *tempfile.Manager,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		extractor:  extractor,
		canon:      canon,
		analyzer:   analyzer,
		reconciler: reconciler,
		saver:      saver,
		registry:   registry,
		temps:      temps,
		logger:     logger,
		openDoc: func(path string) (extract.Doc, error) {
			return extract.OpenPDF(path)
		},
	}
}

// Process runs the whole pipeline for one job. It never returns an error;
// every outcome lands in the job registry. Meant to run on its own
// goroutine per job.
func (p *Pipeline) Process(ctx context.Context, jobID uuid.UUID, docs []entity.Document) {
	started := time.Now()
	defer p.temps.Cleanup(jobID)

	p.logger.Info("pipeline.start", "job_id", jobID, "documents", len(docs))
	p.registry.SetProgress(jobID, 5, "leyendo documentos")

	merged, meta, err := p.extractAll(ctx, docs)
	if err != nil {
		p.registry.Fail(jobID, common.FatalCode(err))
		p.logger.Error("pipeline.fatal", "job_id", jobID, "error", err)
		return
	}
	p.registry.SetProgress(jobID, 45, "consolidando partidas")

	items := p.canon.Consolidate(merged.Items)
	p.registry.SetProgress(jobID, 55, "analizando contenido")

	outcome := p.analyzer.Analyze(ctx, analysis.Input{
		Text:        merged.Text,
		ProjectInfo: merged.ProjectInfo,
		Totals:      merged.Totals,
		Items:       items,
	})
	p.registry.SetProgress(jobID, 85, "conciliando presupuesto")

	breakdown, report := p.reconciler.Reconcile(outcome.Items, merged.Totals, outcome.StatedTotal)

	meta.PhaseAttempts = outcome.PhaseAttempts
	meta.StartedAt = started
	meta.FinishedAt = time.Now()

	final := entity.FinalAnalysis{
		ID:              uuid.New(),
		ProjectInfo:     outcome.ProjectInfo,
		Summary:         outcome.Summary,
		Breakdown:       breakdown,
		Items:           outcome.Items,
		Risks:           outcome.Risks,
		Recommendations: outcome.Recommendations,
		Validation:      report,
		Confidence:      p.scoreConfidence(report, outcome, merged),
		Metadata:        meta,
	}
	if outcome.Fatal {
		final.RequiresManualReview = true
		final.Summary = common.UserMessage(common.CodeAnalysisFailed)
	}

	if err := p.saver.Save(ctx, final); err != nil {
		p.logger.Error("pipeline.save_failed", "job_id", jobID, "analysis_id", final.ID, "error", err)
		p.registry.Fail(jobID, common.CodeAnalysisFailed)
		return
	}

	p.registry.Complete(jobID, final)
	p.logger.Info("pipeline.done",
		"job_id", jobID,
		"analysis_id", final.ID,
		"items", len(final.Items),
		"confidence", final.Confidence,
		"manual_review", final.RequiresManualReview,
		"elapsed_ms", time.Since(started).Milliseconds(),
	)
}

// extractAll extracts each document independently and content-merges the
// results: text and item pools concatenate, metadata is first-non-empty,
// asserted totals keep the largest figure seen, confidence averages.
func (p *Pipeline) extractAll(ctx context.Context, docs []entity.Document) (entity.ExtractionSummary, entity.ProcessingMetadata, error) {
	var combined entity.ExtractionSummary
	var meta entity.ProcessingMetadata
	var confidenceSum float64

	for _, d := range docs {
		meta.Filenames = append(meta.Filenames, d.Filename)
		meta.FileSizeBytes += d.Size

		doc, err := p.openDoc(d.Path)
		if err != nil {
			return entity.ExtractionSummary{}, meta, err
		}

		m := p.extractor.Extract(ctx, doc)
		combined.Text = joinDocs(combined.Text, m.Text)
		combined.Tables = append(combined.Tables, m.Tables...)
		combined.Items = append(combined.Items, m.Items...)
		combined.ProjectInfo.Merge(m.ProjectInfo)
		combined.Totals = maxTotals(combined.Totals, m.Totals)
		combined.StrategiesUsed = unionStrategies(combined.StrategiesUsed, m.StrategiesUsed)
		combined.PagesProcessed += m.PagesProcessed
		combined.LikelyScanned = combined.LikelyScanned || m.LikelyScanned
		confidenceSum += m.Confidence
	}

	if len(docs) > 0 {
		combined.Confidence = confidenceSum / float64(len(docs))
	}
	meta.PagesProcessed = combined.PagesProcessed
	meta.StrategiesUsed = combined.StrategiesUsed
	return combined, meta, nil
}

// scoreConfidence folds the three signals into the final [0,100] score:
// reconciliation findings dominate, degraded analysis shaves a fixed slice,
// and a manual-review result is capped outright.
func (p *Pipeline) scoreConfidence(report entity.ValidationReport, outcome analysis.Outcome, merged entity.ExtractionSummary) int {
	c := reconcile.Confidence(report)
	if outcome.Degraded {
		c -= constants.ReconcileWarningPenalty
	}
	if merged.Confidence < 0.5 {
		c -= constants.ReconcileWarningPenalty
	}
	if c < 0 {
		c = 0
	}
	if outcome.Fatal && c > constants.ManualReviewConfidenceCeiling {
		c = constants.ManualReviewConfidenceCeiling
	}
	return c
}

func joinDocs(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + "\n\n" + b
}

func maxTotals(a, b entity.DocumentTotals) entity.DocumentTotals {
	return entity.DocumentTotals{
		Net:   max(a.Net, b.Net),
		Tax:   max(a.Tax, b.Tax),
		Grand: max(a.Grand, b.Grand),
	}
}

func unionStrategies(a, b []constants.StrategyName) []constants.StrategyName {
	seen := make(map[constants.StrategyName]struct{}, len(a))
	for _, s := range a {
		seen[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := seen[s]; !ok {
			a = append(a, s)
			seen[s] = struct{}{}
		}
	}
	return a
}
