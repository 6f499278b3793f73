// Package analysis drives the ordered structuring phases over extracted
// content. Phases run strictly sequentially; each prompt builds on the
// previous phase's output.
package analysis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tenders-cl/budget-analyzer/constants"
	"github.com/tenders-cl/budget-analyzer/internal/common"
	"github.com/tenders-cl/budget-analyzer/internal/entity"
	"github.com/tenders-cl/budget-analyzer/internal/llm"
)

// PhaseExecutor is the retrying prompt runner the orchestrator delegates to.
type PhaseExecutor interface {
	Run(ctx context.Context, phase constants.AnalysisPhase, prompt string) entity.PhaseResult
}

// Input is everything extraction learned about the document set.
type Input struct {
	Text        string
	ProjectInfo entity.ProjectInfo
	Totals      entity.DocumentTotals
	Items       []entity.CanonicalLineItem
}

// Outcome is the structured result of the phase run. Fatal means the basic
// phase exhausted its attempts and nothing the model said can be trusted;
// Degraded means a later phase failed and a substitute was used.
type Outcome struct {
	ProjectInfo     entity.ProjectInfo
	Summary         string
	StatedTotal     float64
	Items           []entity.CanonicalLineItem
	Risks           []entity.Risk
	Recommendations []entity.Recommendation
	PhaseAttempts   map[string]int
	Degraded        bool
	Fatal           bool
}

type Orchestrator struct {
	exec   PhaseExecutor
	logger *slog.Logger
}

func NewOrchestrator(exec PhaseExecutor, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{exec: exec, logger: logger}
}

// Analyze walks the phase machine. Only a basic-phase failure is fatal;
// item and risk failures degrade the outcome and continue.
func (o *Orchestrator) Analyze(ctx context.Context, in Input) Outcome {
	start := time.Now()
	out := Outcome{
		ProjectInfo:   in.ProjectInfo,
		Items:         in.Items,
		PhaseAttempts: make(map[string]int),
	}

	basic := o.exec.Run(ctx, constants.PhaseBasicExtraction, llm.BuildBasicExtractionPrompt(in.Text, in.Totals))
	out.PhaseAttempts[string(constants.PhaseBasicExtraction)] = basic.Attempts
	if !basic.Success {
		out.Fatal = true
		o.logger.Error("analysis.basic_failed", "error", basic.Err, "attempts", basic.Attempts)
		return out
	}
	o.foldBasic(&out, basic.Payload)

	item := o.exec.Run(ctx, constants.PhaseItemAnalysis, llm.BuildItemAnalysisPrompt(in.Text, in.Items))
	out.PhaseAttempts[string(constants.PhaseItemAnalysis)] = item.Attempts
	if item.Success {
		out.Items = mergeItemEnrichment(in.Items, item.Payload, o.logger)
	} else {
		out.Degraded = true
		o.logger.Warn("analysis.item_phase_failed", "error", item.Err, "attempts", item.Attempts)
	}

	rs := common.FirstSuccess(ctx, o.logger, []common.Attempt[riskSet]{
		{Name: "risk-phase", Run: func(ctx context.Context) (riskSet, error) {
			res := o.exec.Run(ctx, constants.PhaseRiskAnalysis, llm.BuildRiskAnalysisPrompt(basic.Payload, out.Items))
			out.PhaseAttempts[string(constants.PhaseRiskAnalysis)] = res.Attempts
			if !res.Success {
				return riskSet{}, errors.New(res.Err)
			}
			return decodeRiskSet(res.Payload)
		}},
	}, genericRiskSet())
	out.Risks = rs.Risks
	out.Recommendations = rs.Recommendations
	if rs.generic {
		out.Degraded = true
	}

	o.logger.Info("analysis.done",
		"degraded", out.Degraded,
		"items", len(out.Items),
		"risks", len(out.Risks),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out
}

// foldBasic merges the basic payload into the outcome. Extraction-derived
// metadata wins over model output; the model only fills gaps.
func (o *Orchestrator) foldBasic(out *Outcome, payload map[string]any) {
	llmInfo := entity.ProjectInfo{
		Name:     stringField(payload, "project_name"),
		Region:   stringField(payload, "region"),
		Locality: stringField(payload, "locality"),
	}
	out.ProjectInfo.Merge(llmInfo)
	out.Summary = stringField(payload, "summary")
	if v, ok := payload["total_budget"].(float64); ok {
		out.StatedTotal = v
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
