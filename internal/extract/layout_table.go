package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tenders-cl/budget-analyzer/constants"
	"github.com/tenders-cl/budget-analyzer/internal/entity"
)

// LayoutTableStrategy recovers ruled/bordered tables: rows whose cells are
// separated by explicit delimiters (vertical bars or tab stops left by the
// content-stream extraction). Best on born-digital documents with drawn
// table grids.
type LayoutTableStrategy struct {
	logger *slog.Logger
}

func NewLayoutTableStrategy(logger *slog.Logger) *LayoutTableStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &LayoutTableStrategy{logger: logger}
}

func (s *LayoutTableStrategy) Name() constants.StrategyName {
	return constants.StrategyLayoutTable
}

func (s *LayoutTableStrategy) Run(ctx context.Context, doc Doc) (res entity.RawExtractionResult) {
	res = entity.RawExtractionResult{Strategy: s.Name()}
	defer func() {
		if r := recover(); r != nil {
			res = entity.RawExtractionResult{Strategy: s.Name(), Err: fmt.Sprintf("panic: %v", r)}
		}
	}()

	var text strings.Builder
	var tables []entity.RawTable
	var items []entity.RawLineItem

	for page := 1; page <= doc.PageCount(); page++ {
		if ctx.Err() != nil {
			res.Err = ctx.Err().Error()
			return res
		}
		pageText := doc.PageText(page)
		if pageText == "" {
			continue
		}
		fmt.Fprintf(&text, "%s\n%s\n", PageBanner(page), pageText)

		for idx, t := range s.detectTables(pageText, page) {
			t.TableIndex = idx + 1
			parsed := itemsFromTable(t)
			if len(parsed) == 0 {
				continue
			}
			tables = append(tables, t)
			items = append(items, parsed...)
		}
	}

	res.Success = true
	res.Text = text.String()
	res.Tables = tables
	res.Items = items
	res.Pages = doc.PageCount()
	return res
}

// detectTables groups consecutive delimited lines into tables and keeps those
// passing the budget-header acceptance test.
func (s *LayoutTableStrategy) detectTables(pageText string, page int) []entity.RawTable {
	var tables []entity.RawTable
	var block [][]string

	flush := func() {
		if len(block) >= 2 && isBudgetHeader(block[0]) {
			tables = append(tables, entity.RawTable{
				Page:    page,
				Headers: block[0],
				Rows:    block[1:],
				Source:  s.Name(),
			})
		}
		block = nil
	}

	for _, line := range strings.Split(pageText, "\n") {
		cells := splitDelimited(line)
		if cells == nil {
			flush()
			continue
		}
		block = append(block, cells)
	}
	flush()
	return tables
}

// splitDelimited splits a line on explicit cell delimiters. Returns nil when
// the line does not look like a table row (fewer than 4 cells).
func splitDelimited(line string) []string {
	var parts []string
	switch {
	case strings.Count(line, "|") >= 3:
		parts = strings.Split(line, "|")
	case strings.Count(line, "\t") >= 3:
		parts = strings.Split(line, "\t")
	default:
		return nil
	}

	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			cells = append(cells, p)
		}
	}
	if len(cells) < 4 {
		return nil
	}
	return cells
}
