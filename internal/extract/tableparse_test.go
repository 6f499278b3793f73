package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenders-cl/budget-analyzer/constants"
	"github.com/tenders-cl/budget-analyzer/internal/entity"
)

func TestIsBudgetHeader(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  bool
	}{
		{"full header", []string{"ÍTEM", "DESIGNACIÓN", "UNIDAD", "CANTIDAD", "PRECIO UNITARIO", "TOTAL"}, true},
		{"three keywords", []string{"Item", "Descripción", "Cantidad"}, true},
		{"two keywords", []string{"Item", "Cantidad", "Valor"}, false},
		{"no keywords", []string{"Nombre", "Fecha", "Región"}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isBudgetHeader(tt.cells))
		})
	}
}

func TestParseBudgetRow(t *testing.T) {
	item, ok := parseBudgetRow(
		[]string{"7.301.1", "Excavación en terreno de cualquier naturaleza", "m3", "1.500", "4.500", "6.750.000"},
		1, constants.StrategyLayoutTable,
	)
	require.True(t, ok)
	assert.Equal(t, "7.301.1", item.Code)
	assert.Equal(t, "Excavación en terreno de cualquier naturaleza", item.Description)
	assert.Equal(t, "m3", item.Unit)
	assert.Equal(t, 1500.0, item.Quantity)
	assert.Equal(t, 4500.0, item.UnitPrice)
	assert.Equal(t, 6750000.0, item.Subtotal)
	assert.Equal(t, constants.StrategyLayoutTable, item.Source)
}

func TestParseBudgetRowRejects(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
	}{
		{"no code", []string{"Partida", "Excavación", "m3", "100", "4.500", "450.000"}},
		{"code beyond second column", []string{"a", "b", "7.301.1", "100", "4.500", "450.000"}},
		{"too few numerics", []string{"7.301.1", "Excavación", "m3", "100"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := parseBudgetRow(tt.cells, 1, constants.StrategyLayoutTable)
			assert.False(t, ok)
		})
	}
}

func TestItemsFromTableSkipsShortRows(t *testing.T) {
	table := entity.RawTable{
		Source: constants.StrategyFlowTable,
		Rows: [][]string{
			{"7.301.1", "Excavación", "m3", "100", "4.500", "450.000"},
			{"subtotal", "450.000"},
			{"ETE.1", "Plan de manejo ambiental", "gl", "1", "2.500.000", "2.500.000"},
		},
	}
	items := itemsFromTable(table)
	require.Len(t, items, 2)
	assert.Equal(t, "7.301.1", items[0].Code)
	assert.Equal(t, "ETE.1", items[1].Code)
}

func TestIsNumericCell(t *testing.T) {
	assert.True(t, isNumericCell("1.234.567"))
	assert.True(t, isNumericCell("$ 4.500"))
	assert.False(t, isNumericCell("m3"))
	assert.False(t, isNumericCell(""))
	assert.False(t, isNumericCell("$"))
}
