package extract

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/tenders-cl/budget-analyzer/constants"
	"github.com/tenders-cl/budget-analyzer/internal/entity"
)

// FlowTableStrategy recovers unruled tables whose columns are delimited only
// by whitespace runs. Same acceptance test as the layout strategy, different
// boundary heuristic.
type FlowTableStrategy struct {
	logger *slog.Logger
}

func NewFlowTableStrategy(logger *slog.Logger) *FlowTableStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &FlowTableStrategy{logger: logger}
}

func (s *FlowTableStrategy) Name() constants.StrategyName {
	return constants.StrategyFlowTable
}

func (s *FlowTableStrategy) Run(ctx context.Context, doc Doc) (res entity.RawExtractionResult) {
	res = entity.RawExtractionResult{Strategy: s.Name()}
	defer func() {
		if r := recover(); r != nil {
			res = entity.RawExtractionResult{Strategy: s.Name(), Err: fmt.Sprintf("panic: %v", r)}
		}
	}()

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

	// This strategy contributes structure only; page text is already covered
	// by the layout pass, so it is not duplicated here.
	res.Success = true
	res.Tables = tables
	res.Items = items
	res.Pages = doc.PageCount()
	return res
}

var whitespaceRun = regexp.MustCompile(`\s{2,}`)

// detectTables groups consecutive whitespace-columned lines. A table starts
// at a line passing the header test and ends at the first line that no longer
// splits into enough columns.
func (s *FlowTableStrategy) detectTables(pageText string, page int) []entity.RawTable {
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
		cells := splitWhitespaceColumns(line)
		if cells == nil {
			flush()
			continue
		}
		block = append(block, cells)
	}
	flush()
	return tables
}

// splitWhitespaceColumns splits on runs of two or more spaces. Single spaces
// stay inside a cell so descriptions survive.
func splitWhitespaceColumns(line string) []string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}
	parts := whitespaceRun.Split(trimmed, -1)
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
