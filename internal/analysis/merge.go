package analysis

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tenders-cl/budget-analyzer/constants"
	"github.com/tenders-cl/budget-analyzer/internal/entity"
)

type analyzedItem struct {
	Code         string  `json:"code"`
	Description  string  `json:"description"`
	Category     string  `json:"category"`
	Unit         string  `json:"unit"`
	Quantity     float64 `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	Subtotal     float64 `json:"subtotal"`
	Observations string  `json:"observations"`
}

// mergeItemEnrichment folds the item-phase payload into the canonical set.
// The canonical items are authoritative for amounts; the model only fills
// missing descriptive fields and categories. Codes it invents are ignored.
func mergeItemEnrichment(items []entity.CanonicalLineItem, payload map[string]any, logger *slog.Logger) []entity.CanonicalLineItem {
	var decoded struct {
		Items []analyzedItem `json:"items"`
	}
	b, err := json.Marshal(payload)
	if err == nil {
		err = json.Unmarshal(b, &decoded)
	}
	if err != nil {
		logger.Warn("analysis.item_decode_failed", "error", err)
		return items
	}

	byCode := make(map[string]analyzedItem, len(decoded.Items))
	for _, ai := range decoded.Items {
		byCode[ai.Code] = ai
	}

	merged := make([]entity.CanonicalLineItem, len(items))
	for i, it := range items {
		merged[i] = it
		ai, ok := byCode[it.Code]
		if !ok {
			continue
		}
		delete(byCode, it.Code)
		if merged[i].Description == "" && ai.Description != "" {
			merged[i].Description = ai.Description
		}
		if merged[i].Unit == "" && ai.Unit != "" {
			merged[i].Unit = ai.Unit
		}
		if cat, ok := constants.Canonicalize(ai.Category); ok && merged[i].Category == constants.Other {
			merged[i].Category = cat
		}
	}
	if ignored := len(byCode); ignored > 0 {
		logger.Debug("analysis.item_enrichment_ignored", "count", ignored)
	}
	return merged
}

type riskSet struct {
	Risks           []entity.Risk
	Recommendations []entity.Recommendation
	generic         bool
}

func decodeRiskSet(payload map[string]any) (riskSet, error) {
	var decoded struct {
		Risks           []entity.Risk           `json:"risks"`
		Recommendations []entity.Recommendation `json:"recommendations"`
	}
	b, err := json.Marshal(payload)
	if err == nil {
		err = json.Unmarshal(b, &decoded)
	}
	if err != nil {
		return riskSet{}, fmt.Errorf("decode risk payload: %w", err)
	}
	return riskSet{Risks: decoded.Risks, Recommendations: decoded.Recommendations}, nil
}

// genericRiskSet is the substitute when the risk phase fails: the standing
// risks of any Chilean public works contract.
func genericRiskSet() riskSet {
	return riskSet{
		generic: true,
		Risks: []entity.Risk{
			{
				Category:    "climático",
				Factor:      "Condiciones climáticas adversas durante la ejecución",
				Probability: "medium",
				Impact:      "medium",
				Mitigation:  "Programar faenas críticas fuera de la temporada de lluvias",
			},
			{
				Category:    "económico",
				Factor:      "Variación de precios de materiales e insumos",
				Probability: "medium",
				Impact:      "high",
				Mitigation:  "Incorporar cláusulas de reajuste y cotizaciones actualizadas",
			},
			{
				Category:    "logístico",
				Factor:      "Acceso restringido a los frentes de trabajo",
				Probability: "low",
				Impact:      "medium",
				Mitigation:  "Plan de acceso y acopio validado antes del inicio de obras",
			},
		},
		Recommendations: []entity.Recommendation{
			{
				Category:       "general",
				Recommendation: "Revisar el presupuesto con un profesional antes de ofertar",
				Justification:  "El análisis automático de riesgos no estuvo disponible",
				Priority:       "high",
			},
		},
	}
}
