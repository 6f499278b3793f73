package llm

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/tenders-cl/budget-analyzer/constants"
)

// Phase payload schemas. Compiled once at init; a bad schema is a programming
// error, not a runtime condition.
var (
	basicExtractionSchema = jsonschema.MustCompileString("basic_extraction.json", `{
		"type": "object",
		"properties": {
			"project_name": {"type": "string"},
			"region": {"type": "string"},
			"locality": {"type": "string"},
			"total_budget": {"type": "number", "minimum": 0},
			"currency": {"type": "string"},
			"summary": {"type": "string"}
		},
		"required": ["project_name", "total_budget"]
	}`)

	itemAnalysisSchema = jsonschema.MustCompileString("item_analysis.json", `{
		"type": "object",
		"properties": {
			"items": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"code": {"type": "string", "minLength": 1},
						"description": {"type": "string"},
						"category": {"type": "string"},
						"unit": {"type": "string"},
						"quantity": {"type": "number", "minimum": 0},
						"unit_price": {"type": "number", "minimum": 0},
						"subtotal": {"type": "number", "minimum": 0},
						"observations": {"type": "string"}
					},
					"required": ["code"]
				}
			}
		},
		"required": ["items"]
	}`)

	riskAnalysisSchema = jsonschema.MustCompileString("risk_analysis.json", `{
		"type": "object",
		"properties": {
			"risks": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"category": {"type": "string"},
						"factor": {"type": "string", "minLength": 1},
						"probability": {"type": "string", "enum": ["low", "medium", "high"]},
						"impact": {"type": "string", "enum": ["low", "medium", "high"]},
						"mitigation": {"type": "string"}
					},
					"required": ["factor", "probability", "impact"]
				}
			},
			"recommendations": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"category": {"type": "string"},
						"recommendation": {"type": "string", "minLength": 1},
						"justification": {"type": "string"},
						"priority": {"type": "string", "enum": ["low", "medium", "high"]}
					},
					"required": ["recommendation"]
				}
			}
		},
		"required": ["risks"]
	}`)
)

func schemaFor(phase constants.AnalysisPhase) (*jsonschema.Schema, error) {
	switch phase {
	case constants.PhaseBasicExtraction:
		return basicExtractionSchema, nil
	case constants.PhaseItemAnalysis:
		return itemAnalysisSchema, nil
	case constants.PhaseRiskAnalysis:
		return riskAnalysisSchema, nil
	default:
		return nil, fmt.Errorf("no schema for phase %q", phase)
	}
}

// ValidatePhasePayload checks a decoded payload against the schema of its
// phase. The payload must come from json.Unmarshal into generic types.
func ValidatePhasePayload(phase constants.AnalysisPhase, payload map[string]any) error {
	sch, err := schemaFor(phase)
	if err != nil {
		return err
	}
	// round-trip to the generic shape jsonschema validates
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("phase %s payload invalid: %w", phase, err)
	}
	return nil
}
