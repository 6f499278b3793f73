package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenders-cl/budget-analyzer/constants"
	"github.com/tenders-cl/budget-analyzer/internal/entity"
)

type scriptedExecutor struct {
	results map[constants.AnalysisPhase]entity.PhaseResult
	ran     []constants.AnalysisPhase
}

func (e *scriptedExecutor) Run(ctx context.Context, phase constants.AnalysisPhase, prompt string) entity.PhaseResult {
	e.ran = append(e.ran, phase)
	res, ok := e.results[phase]
	if !ok {
		return entity.PhaseResult{Phase: phase, Err: "unexpected phase"}
	}
	res.Phase = phase
	return res
}

func okPhase(payload map[string]any) entity.PhaseResult {
	return entity.PhaseResult{Success: true, Payload: payload, Attempts: 1}
}

func failedPhase() entity.PhaseResult {
	return entity.PhaseResult{Attempts: 3, Err: "retries exhausted"}
}

func testInput() Input {
	return Input{
		Text:        "PROYECTO: RUTA W-195",
		ProjectInfo: entity.ProjectInfo{Name: "RUTA W-195"},
		Items: []entity.CanonicalLineItem{
			{Code: "7.301.1", Description: "Excavación", Unit: "m3", Quantity: 100, UnitPrice: 4500, Subtotal: 450000, Category: constants.Labor},
		},
	}
}

func TestAnalyzeHappyPath(t *testing.T) {
	exec := &scriptedExecutor{results: map[constants.AnalysisPhase]entity.PhaseResult{
		constants.PhaseBasicExtraction: okPhase(map[string]any{
			"project_name": "Conservación Ruta W-195", "region": "Región de Los Lagos",
			"total_budget": 1282000.0, "summary": "Conservación de caminos básicos.",
		}),
		constants.PhaseItemAnalysis: okPhase(map[string]any{
			"items": []any{map[string]any{"code": "7.301.1", "observations": "ok"}},
		}),
		constants.PhaseRiskAnalysis: okPhase(map[string]any{
			"risks": []any{map[string]any{
				"category": "climático", "factor": "lluvias", "probability": "high", "impact": "medium",
			}},
			"recommendations": []any{map[string]any{"recommendation": "licitar en verano"}},
		}),
	}}

	out := NewOrchestrator(exec, nil).Analyze(context.Background(), testInput())

	require.False(t, out.Fatal)
	assert.False(t, out.Degraded)
	assert.Equal(t, []constants.AnalysisPhase{
		constants.PhaseBasicExtraction, constants.PhaseItemAnalysis, constants.PhaseRiskAnalysis,
	}, exec.ran)

	// extraction metadata wins; model fills gaps
	assert.Equal(t, "RUTA W-195", out.ProjectInfo.Name)
	assert.Equal(t, "Región de Los Lagos", out.ProjectInfo.Region)
	assert.Equal(t, 1282000.0, out.StatedTotal)
	assert.Equal(t, "Conservación de caminos básicos.", out.Summary)

	require.Len(t, out.Risks, 1)
	assert.Equal(t, "lluvias", out.Risks[0].Factor)
	require.Len(t, out.Recommendations, 1)
}

func TestAnalyzeBasicFailureIsFatal(t *testing.T) {
	exec := &scriptedExecutor{results: map[constants.AnalysisPhase]entity.PhaseResult{
		constants.PhaseBasicExtraction: failedPhase(),
	}}

	out := NewOrchestrator(exec, nil).Analyze(context.Background(), testInput())

	assert.True(t, out.Fatal)
	assert.Equal(t, []constants.AnalysisPhase{constants.PhaseBasicExtraction}, exec.ran,
		"later phases never execute")
	assert.Equal(t, 3, out.PhaseAttempts[string(constants.PhaseBasicExtraction)])
	// extraction-derived content survives for the manual-review fallback
	assert.Equal(t, "RUTA W-195", out.ProjectInfo.Name)
	assert.Len(t, out.Items, 1)
}

func TestAnalyzeItemFailureDegrades(t *testing.T) {
	exec := &scriptedExecutor{results: map[constants.AnalysisPhase]entity.PhaseResult{
		constants.PhaseBasicExtraction: okPhase(map[string]any{"project_name": "Ruta", "total_budget": 100.0}),
		constants.PhaseItemAnalysis:    failedPhase(),
		constants.PhaseRiskAnalysis:    okPhase(map[string]any{"risks": []any{}}),
	}}

	out := NewOrchestrator(exec, nil).Analyze(context.Background(), testInput())

	require.False(t, out.Fatal)
	assert.True(t, out.Degraded)
	assert.Len(t, out.Items, 1, "canonical items survive unenriched")
}

func TestAnalyzeRiskFailureSubstitutesGenericSet(t *testing.T) {
	exec := &scriptedExecutor{results: map[constants.AnalysisPhase]entity.PhaseResult{
		constants.PhaseBasicExtraction: okPhase(map[string]any{"project_name": "Ruta", "total_budget": 100.0}),
		constants.PhaseItemAnalysis:    okPhase(map[string]any{"items": []any{}}),
		constants.PhaseRiskAnalysis:    failedPhase(),
	}}

	out := NewOrchestrator(exec, nil).Analyze(context.Background(), testInput())

	require.False(t, out.Fatal)
	assert.True(t, out.Degraded)
	assert.NotEmpty(t, out.Risks, "generic risks substitute")
	assert.NotEmpty(t, out.Recommendations)
}

func TestMergeItemEnrichmentFillsGapsOnly(t *testing.T) {
	items := []entity.CanonicalLineItem{
		{Code: "7.301.1", Quantity: 100, UnitPrice: 4500, Subtotal: 450000, Category: constants.Other},
		{Code: "ETE.1", Description: "Plan de manejo", Quantity: 1, UnitPrice: 100, Subtotal: 100, Category: constants.Labor},
	}
	payload := map[string]any{
		"items": []any{
			map[string]any{"code": "7.301.1", "description": "Excavación corregida", "category": "mano de obra", "quantity": 999.0},
			map[string]any{"code": "ETE.1", "description": "Descripción inventada", "category": "materiales"},
			map[string]any{"code": "7.999.9", "description": "Ítem inventado"},
		},
	}

	merged := mergeItemEnrichment(items, payload, newTestLogger())

	require.Len(t, merged, 2, "invented codes are ignored")
	assert.Equal(t, "Excavación corregida", merged[0].Description)
	assert.Equal(t, constants.Labor, merged[0].Category)
	assert.Equal(t, 100.0, merged[0].Quantity, "amounts never change")
	assert.Equal(t, "Plan de manejo", merged[1].Description, "existing descriptions win")
	assert.Equal(t, constants.Labor, merged[1].Category, "assigned categories win")
}
