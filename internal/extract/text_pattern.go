package extract

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/tenders-cl/budget-analyzer/constants"
	"github.com/tenders-cl/budget-analyzer/internal/entity"
	"github.com/tenders-cl/budget-analyzer/internal/numfmt"
)

// rowPatterns match a budget line in free text: code, description, unit,
// quantity, then two currency amounts. Ordered from strict to relaxed; the
// first matching pattern wins per line.
var rowPatterns = []*regexp.Regexp{
	// primary: currency symbols required on both amounts
	regexp.MustCompile(`^((?:7\.\d{3}\.\d+[a-zA-Z]?)|(?:ETE\.\d+)|(?:\d{3,4}-\d+))\s+(.+?)\s+(\S+)\s+([\d,\.]+)\s+\$\s*([\d,\.]+)\s+\$\s*([\d,\.]+)\s*$`),
	// relaxed: no currency symbols
	regexp.MustCompile(`^((?:7\.\d{3}\.\d+[a-zA-Z]?)|(?:ETE\.\d+)|(?:\d{3,4}-\d+))\s+(.+?)\s+(\S+)\s+([\d,\.]+)\s+([\d,\.]+)\s+([\d,\.]+)\s*$`),
	// relaxed: embedded whitespace inside numbers (common OCR artifact)
	regexp.MustCompile(`^((?:7\.\d{3}\.\d+[a-zA-Z]?)|(?:ETE\.\d+)|(?:\d{3,4}-\d+))\s+(.+?)\s+(\S+)\s+([\d\s,\.]+?)\s+\$?\s*([\d\s,\.]+?)\s+\$?\s*([\d\s,\.]+?)\s*$`),
}

// TextPatternStrategy has no table model: it scans raw text line by line
// against the ordered pattern set. It is also the second pass over
// OCR-recovered text.
type TextPatternStrategy struct {
	logger *slog.Logger
}

func NewTextPatternStrategy(logger *slog.Logger) *TextPatternStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextPatternStrategy{logger: logger}
}

func (s *TextPatternStrategy) Name() constants.StrategyName {
	return constants.StrategyTextPattern
}

func (s *TextPatternStrategy) Run(ctx context.Context, doc Doc) (res entity.RawExtractionResult) {
	res = entity.RawExtractionResult{Strategy: s.Name()}
	defer func() {
		if r := recover(); r != nil {
			res = entity.RawExtractionResult{Strategy: s.Name(), Err: fmt.Sprintf("panic: %v", r)}
		}
	}()

	var text strings.Builder
	for page := 1; page <= doc.PageCount(); page++ {
		if ctx.Err() != nil {
			res.Err = ctx.Err().Error()
			return res
		}
		if pt := doc.PageText(page); pt != "" {
			text.WriteString(pt)
			text.WriteByte('\n')
		}
	}

	res.Success = true
	res.Text = text.String()
	res.Items = ItemsFromText(res.Text, s.Name())
	res.Pages = doc.PageCount()
	return res
}

// ItemsFromText extracts line items from raw text. Exported because the
// orchestrator reruns it over OCR-recovered text.
func ItemsFromText(text string, source constants.StrategyName) []entity.RawLineItem {
	var items []entity.RawLineItem
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, pat := range rowPatterns {
			m := pat.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			item := entity.RawLineItem{
				Code:        m[1],
				Description: strings.TrimSpace(m[2]),
				Unit:        strings.ToLower(m[3]),
				Quantity:    numfmt.ParseQuantity(m[4]),
				UnitPrice:   numfmt.ParseAmount(m[5]),
				Subtotal:    numfmt.ParseAmount(m[6]),
				Source:      source,
				RowIndex:    i + 1,
			}
			if constants.IsValidItemCode(item.Code) && item.Quantity > 0 && item.UnitPrice > 0 {
				items = append(items, item)
			}
			break // first matching pattern wins
		}
	}
	return items
}
