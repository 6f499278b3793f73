package extract

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tenders-cl/budget-analyzer/constants"
	"github.com/tenders-cl/budget-analyzer/internal/entity"
)

// Orchestrator runs the primary strategies concurrently, merges their
// output in declaration order, and escalates to OCR when the primaries
// recover too little.
type Orchestrator struct {
	primaries []Strategy
	ocr       Strategy
	workers   int
	timeout   time.Duration
	logger    *slog.Logger
}

func NewOrchestrator(primaries []Strategy, ocr Strategy, workers int, timeout time.Duration, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 4
	}
	return &Orchestrator{
		primaries: primaries,
		ocr:       ocr,
		workers:   workers,
		timeout:   timeout,
		logger:    logger,
	}
}

// Extract runs the pipeline's extraction phase over an open document.
// Results are merged in strategy declaration order regardless of which
// strategy finishes first, so output is deterministic.
func (o *Orchestrator) Extract(ctx context.Context, doc Doc) entity.ExtractionSummary {
	start := time.Now()
	o.logger.Info("extract.start", "path", doc.Path(), "pages", doc.PageCount(), "strategies", len(o.primaries))

	results := make([]entity.RawExtractionResult, len(o.primaries))
	sem := make(chan struct{}, o.workers)
	var wg sync.WaitGroup
	for i, s := range o.primaries {
		wg.Add(1)
		go func(i int, s Strategy) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = o.runOne(ctx, s, doc)
		}(i, s)
	}
	wg.Wait()

	merged := o.merge(results)
	merged.PagesProcessed = doc.PageCount()
	merged.LikelyScanned = doc.LikelyScanned()

	if o.needsFallback(merged) && o.ocr != nil {
		o.logger.Info("extract.fallback", "text_len", len(merged.Text), "tables", len(merged.Tables), "items", len(merged.Items))
		ocrRes := o.runOne(ctx, o.ocr, doc)
		if ocrRes.Success {
			merged.StrategiesUsed = append(merged.StrategiesUsed, ocrRes.Strategy)
			merged.Text = joinText(merged.Text, ocrRes.Text)
			merged.Tables = append(merged.Tables, ocrRes.Tables...)
			merged.Items = append(merged.Items, ocrRes.Items...)
			// Recovered text gets a pattern pass of its own; OCR output
			// rarely preserves table delimiters.
			merged.Items = append(merged.Items, ItemsFromText(ocrRes.Text, ocrRes.Strategy)...)
		}
	}

	merged.ProjectInfo = ParseProjectInfo(merged.Text)
	merged.Totals = ParseDocumentTotals(merged.Text)
	merged.Confidence = o.score(merged)

	o.logger.Info("extract.done",
		"elapsed_ms", time.Since(start).Milliseconds(),
		"text_len", len(merged.Text),
		"tables", len(merged.Tables),
		"items", len(merged.Items),
		"strategies_used", len(merged.StrategiesUsed),
		"confidence", merged.Confidence,
	)
	return merged
}

func (o *Orchestrator) runOne(ctx context.Context, s Strategy, doc Doc) entity.RawExtractionResult {
	runCtx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	start := time.Now()
	res := s.Run(runCtx, doc)
	if res.Success {
		o.logger.Debug("extract.strategy_ok", "strategy", s.Name(), "items", len(res.Items), "elapsed_ms", time.Since(start).Milliseconds())
	} else {
		o.logger.Warn("extract.strategy_failed", "strategy", s.Name(), "error", res.Err, "elapsed_ms", time.Since(start).Milliseconds())
	}
	return res
}

func (o *Orchestrator) merge(results []entity.RawExtractionResult) entity.ExtractionSummary {
	var m entity.ExtractionSummary
	for _, r := range results {
		if !r.Success {
			continue
		}
		m.StrategiesUsed = append(m.StrategiesUsed, r.Strategy)
		m.Text = joinText(m.Text, r.Text)
		m.Tables = append(m.Tables, r.Tables...)
		m.Items = append(m.Items, r.Items...)
	}
	return m
}

func (o *Orchestrator) needsFallback(m entity.ExtractionSummary) bool {
	return len(m.Text) < constants.FallbackMinTextLen &&
		len(m.Tables) < constants.FallbackMinTables &&
		len(m.Items) < constants.FallbackMinItems
}

// score combines four signals into [0,1]: recovered text volume, table
// presence, item count (saturating at twenty) and project metadata.
func (o *Orchestrator) score(m entity.ExtractionSummary) float64 {
	c := 0.0
	c += 0.3 * saturate(float64(len(m.Text))/float64(constants.ExtractionTextThreshold))
	if len(m.Tables) > 0 {
		c += 0.3
	}
	c += 0.3 * saturate(float64(len(m.Items))/20.0)
	if m.ProjectInfo.Name != "" {
		c += 0.1
	}
	return saturate(c)
}

func joinText(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + "\n" + b
}

func saturate(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
