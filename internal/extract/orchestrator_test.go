package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenders-cl/budget-analyzer/constants"
	"github.com/tenders-cl/budget-analyzer/internal/entity"
)

type fakeDoc struct {
	pages   []string
	scanned bool
}

func (d *fakeDoc) Path() string        { return "/tmp/fake.pdf" }
func (d *fakeDoc) PageCount() int      { return len(d.pages) }
func (d *fakeDoc) LikelyScanned() bool { return d.scanned }
func (d *fakeDoc) PageText(page int) string {
	if page < 1 || page > len(d.pages) {
		return ""
	}
	return d.pages[page-1]
}

type fakeStrategy struct {
	name   constants.StrategyName
	result entity.RawExtractionResult
	calls  int
}

func (s *fakeStrategy) Name() constants.StrategyName { return s.name }
func (s *fakeStrategy) Run(ctx context.Context, doc Doc) entity.RawExtractionResult {
	s.calls++
	s.result.Strategy = s.name
	return s.result
}

func okResult(text string, items int) entity.RawExtractionResult {
	r := entity.RawExtractionResult{Success: true, Text: text}
	for i := 0; i < items; i++ {
		r.Items = append(r.Items, entity.RawLineItem{Code: "7.301.1", Quantity: 1, UnitPrice: 100})
	}
	return r
}

func TestExtractMergesInDeclarationOrder(t *testing.T) {
	first := &fakeStrategy{name: constants.StrategyLayoutTable, result: okResult(strings.Repeat("x", 2000), 3)}
	second := &fakeStrategy{name: constants.StrategyFlowTable, result: okResult("short", 2)}
	second.result.Tables = []entity.RawTable{{Page: 1}, {Page: 2}}

	o := NewOrchestrator([]Strategy{first, second}, nil, 4, 0, nil)
	m := o.Extract(context.Background(), &fakeDoc{pages: []string{"a", "b"}})

	assert.Equal(t, []constants.StrategyName{constants.StrategyLayoutTable, constants.StrategyFlowTable}, m.StrategiesUsed)
	assert.Len(t, m.Items, 5)
	assert.Len(t, m.Tables, 2)
	assert.Equal(t, 2006, len(m.Text), "texts concatenate in strategy order")
	assert.Equal(t, 2, m.PagesProcessed)
}

func TestExtractSkipsFailedStrategies(t *testing.T) {
	ok := &fakeStrategy{name: constants.StrategyLayoutTable, result: okResult(strings.Repeat("x", 2000), 6)}
	failed := &fakeStrategy{name: constants.StrategyFlowTable, result: entity.RawExtractionResult{Err: "boom"}}

	o := NewOrchestrator([]Strategy{ok, failed}, nil, 4, 0, nil)
	m := o.Extract(context.Background(), &fakeDoc{pages: []string{"a"}})

	assert.Equal(t, []constants.StrategyName{constants.StrategyLayoutTable}, m.StrategiesUsed)
	assert.Len(t, m.Items, 6)
}

func TestExtractAllStrategiesFailed(t *testing.T) {
	a := &fakeStrategy{name: constants.StrategyLayoutTable, result: entity.RawExtractionResult{Err: "boom"}}
	b := &fakeStrategy{name: constants.StrategyFlowTable, result: entity.RawExtractionResult{Err: "boom"}}

	o := NewOrchestrator([]Strategy{a, b}, nil, 4, 0, nil)
	m := o.Extract(context.Background(), &fakeDoc{pages: []string{"a"}})

	assert.Empty(t, m.StrategiesUsed)
	assert.Empty(t, m.Items)
	assert.Empty(t, m.Text)
	assert.Zero(t, m.Confidence)
	assert.Equal(t, 1, m.PagesProcessed)
}

func TestExtractFallbackTrigger(t *testing.T) {
	sparse := &fakeStrategy{name: constants.StrategyLayoutTable, result: okResult("casi nada", 0)}
	ocr := &fakeStrategy{name: constants.StrategyOCRFallback, result: okResult(
		strings.Repeat("pagina escaneada ", 80)+"\n7.301.1 Excavación m3 100 $ 4.500 $ 450.000", 0)}

	o := NewOrchestrator([]Strategy{sparse}, ocr, 4, 0, nil)
	m := o.Extract(context.Background(), &fakeDoc{pages: []string{"a"}, scanned: true})

	assert.Equal(t, 1, ocr.calls)
	assert.Contains(t, m.StrategiesUsed, constants.StrategyOCRFallback)
	assert.True(t, m.LikelyScanned)
	// the pattern pass over OCR text recovers the line item
	require.Len(t, m.Items, 1)
	assert.Equal(t, "7.301.1", m.Items[0].Code)
}

func TestExtractNoFallbackWhenContentSufficient(t *testing.T) {
	rich := &fakeStrategy{name: constants.StrategyLayoutTable, result: okResult(strings.Repeat("x", 2000), 10)}
	ocr := &fakeStrategy{name: constants.StrategyOCRFallback, result: okResult("ocr", 0)}

	o := NewOrchestrator([]Strategy{rich}, ocr, 4, 0, nil)
	o.Extract(context.Background(), &fakeDoc{pages: []string{"a"}})

	assert.Equal(t, 0, ocr.calls)
}

func TestExtractConfidence(t *testing.T) {
	tests := []struct {
		name   string
		result entity.RawExtractionResult
		want   float64
	}{
		{"nothing recovered", entity.RawExtractionResult{Success: true}, 0},
		{"text only", okResult(strings.Repeat("x", 2000), 0), 0.3},
		{"text plus saturated items", okResult(strings.Repeat("x", 2000), 20), 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeStrategy{name: constants.StrategyLayoutTable, result: tt.result}
			o := NewOrchestrator([]Strategy{s}, nil, 4, 0, nil)
			m := o.Extract(context.Background(), &fakeDoc{pages: []string{"a"}})
			assert.InDelta(t, tt.want, m.Confidence, 1e-9)
		})
	}
}

func TestExtractConfidenceAllSignals(t *testing.T) {
	r := okResult("PROYECTO: RUTA W-195\n"+strings.Repeat("x", 2000), 20)
	r.Tables = []entity.RawTable{{Page: 1}}
	s := &fakeStrategy{name: constants.StrategyLayoutTable, result: r}

	o := NewOrchestrator([]Strategy{s}, nil, 4, 0, nil)
	m := o.Extract(context.Background(), &fakeDoc{pages: []string{"a"}})
	assert.Equal(t, 1.0, m.Confidence)
}
