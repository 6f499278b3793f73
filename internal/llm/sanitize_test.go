package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenders-cl/budget-analyzer/constants"
)

func TestSanitizePhasePayload(t *testing.T) {
	payload := map[string]any{
		"project_name": "  Ruta W-195 ",
		"region":       nil,
		"locality":     "",
		"total_budget": "$ 1.282.000",
	}
	touched := SanitizePhasePayload(payload)

	assert.Equal(t, "Ruta W-195", payload["project_name"])
	assert.Equal(t, 1282000.0, payload["total_budget"])
	assert.NotContains(t, payload, "region")
	assert.NotContains(t, payload, "locality")
	assert.NotEmpty(t, touched)
}

func TestSanitizeNestedItems(t *testing.T) {
	payload := map[string]any{
		"items": []any{
			map[string]any{
				"code":       "7.301.1",
				"category":   "Mano de Obra",
				"quantity":   "1.500",
				"unit_price": "4.500",
				"subtotal":   float64(6750000),
			},
		},
	}
	SanitizePhasePayload(payload)

	item := payload["items"].([]any)[0].(map[string]any)
	assert.Equal(t, string(constants.Labor), item["category"])
	assert.Equal(t, 1500.0, item["quantity"])
	assert.Equal(t, 4500.0, item["unit_price"])
	assert.Equal(t, 6750000.0, item["subtotal"])
}

func TestSanitizeUnknownCategoryFallsBack(t *testing.T) {
	payload := map[string]any{"category": "misceláneo"}
	SanitizePhasePayload(payload)
	assert.Equal(t, string(constants.Other), payload["category"])
}

func TestSanitizeRiskLevels(t *testing.T) {
	payload := map[string]any{
		"risks": []any{
			map[string]any{"factor": "invierno austral", "probability": "Alta", "impact": "media"},
		},
	}
	SanitizePhasePayload(payload)

	risk := payload["risks"].([]any)[0].(map[string]any)
	assert.Equal(t, "high", risk["probability"])
	assert.Equal(t, "medium", risk["impact"])
}

func TestValidatePhasePayload(t *testing.T) {
	valid := map[string]any{
		"items": []any{
			map[string]any{"code": "7.301.1", "quantity": 100.0, "unit_price": 4500.0},
		},
	}
	require.NoError(t, ValidatePhasePayload(constants.PhaseItemAnalysis, valid))

	invalid := map[string]any{"items": []any{map[string]any{"quantity": 100.0}}}
	assert.Error(t, ValidatePhasePayload(constants.PhaseItemAnalysis, invalid))

	assert.Error(t, ValidatePhasePayload(constants.PhaseDone, map[string]any{}))
}
