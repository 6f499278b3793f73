// Package export renders a stored analysis as an XLSX workbook: one sheet
// with the line items, one with the budget breakdown and findings.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/tenders-cl/budget-analyzer/internal/entity"
)

// ResultLoader is the read side of the result store.
type ResultLoader interface {
	Load(ctx context.Context, id uuid.UUID) (entity.FinalAnalysis, error)
}

type Service struct {
	results ResultLoader
	logger  *slog.Logger
}

func NewService(results ResultLoader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{results: results, logger: logger}
}

// ExportAnalysisXLSX returns the workbook bytes for one analysis id.
func (s *Service) ExportAnalysisXLSX(ctx context.Context, id uuid.UUID) ([]byte, error) {
	start := time.Now()

	a, err := s.results.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := writeItemsSheet(f, a); err != nil {
		return nil, err
	}
	if err := writeSummarySheet(f, a); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"analysis_id", id.String(),
		"items", len(a.Items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeItemsSheet(f *excelize.File, a entity.FinalAnalysis) error {
	const sheet = "Partidas"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	// drop the default sheet
	_ = f.DeleteSheet("Sheet1")

	headers := []string{"Código", "Descripción", "Unidad", "Cantidad", "Precio Unitario", "Subtotal", "Categoría"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, it := range a.Items {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, it.Code)
		write(2, it.Description)
		write(3, it.Unit)
		write(4, it.Quantity)
		write(5, it.UnitPrice)
		write(6, it.Subtotal)
		write(7, string(it.Category))
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 14)
	_ = f.SetColWidth(sheet, "B", "B", 48)
	_ = f.SetColWidth(sheet, "C", "C", 10)
	_ = f.SetColWidth(sheet, "D", "F", 16)
	_ = f.SetColWidth(sheet, "G", "G", 14)
	return nil
}

func writeSummarySheet(f *excelize.File, a entity.FinalAnalysis) error {
	const sheet = "Resumen"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	row := 1
	write := func(label string, v any) {
		cellA, _ := excelize.CoordinatesToCellName(1, row)
		cellB, _ := excelize.CoordinatesToCellName(2, row)
		_ = f.SetCellValue(sheet, cellA, label)
		_ = f.SetCellValue(sheet, cellB, v)
		row++
	}

	write("Proyecto", a.ProjectInfo.Name)
	write("Región", a.ProjectInfo.Region)
	write("Comuna", a.ProjectInfo.Locality)
	if a.ProjectInfo.Directorate != "" {
		write("Dirección", a.ProjectInfo.Directorate)
	}
	write("Confianza", a.Confidence)
	if a.RequiresManualReview {
		write("Revisión manual", "REQUERIDA")
	}
	row++

	write("Costos directos", a.Breakdown.DirectTotal)
	write("Gastos generales (12%)", a.Breakdown.Overhead)
	write("Utilidad (10%)", a.Breakdown.Profit)
	write("Imprevistos (5%)", a.Breakdown.Contingency)
	write("Total neto", a.Breakdown.Subtotal)
	write("IVA (19%)", a.Breakdown.Tax)
	write("Total general", a.Breakdown.GrandTotal)
	row++

	for _, w := range a.Validation.Warnings {
		write("Advertencia", w)
	}
	for _, e := range a.Validation.Errors {
		write("Error", e)
	}
	row++

	for _, r := range a.Risks {
		write("Riesgo ("+r.Probability+"/"+r.Impact+")", r.Factor)
	}
	for _, rec := range a.Recommendations {
		write("Recomendación", rec.Recommendation)
	}

	_ = f.SetColWidth(sheet, "A", "A", 26)
	_ = f.SetColWidth(sheet, "B", "B", 70)
	return nil
}
