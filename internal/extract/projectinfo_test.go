package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProjectInfo(t *testing.T) {
	text := `MINISTERIO DE OBRAS PÚBLICAS
PROYECTO: CONSERVACIÓN CAMINOS BÁSICOS RUTA W-195
REGIÓN DE LOS LAGOS
COMUNA DE QUELLÓN`

	info := ParseProjectInfo(text)
	assert.Equal(t, "CONSERVACIÓN CAMINOS BÁSICOS RUTA W-195", info.Name)
	assert.Equal(t, "Región de Los Lagos", info.Region)
	assert.Equal(t, "QUELLÓN", info.Locality)
}

func TestParseProjectInfoWorkNameFallback(t *testing.T) {
	info := ParseProjectInfo("MEJORAMIENTO DE RUTA COSTERA SECTOR NORTE\nREGIÓN DEL MAULE")
	assert.Equal(t, "MEJORAMIENTO de RUTA COSTERA SECTOR NORTE", info.Name)
	assert.Equal(t, "Región de Maule", info.Region)
}

func TestParseProjectInfoRegionFromRomanCode(t *testing.T) {
	info := ParseProjectInfo("OBRAS EN LA X REGIÓN, SECTOR SUR")
	assert.Equal(t, "Región de Los Lagos", info.Region)
}

func TestParseProjectInfoRegionCanonicalCasing(t *testing.T) {
	// the official listing wins over naive word capitalization
	info := ParseProjectInfo("REGIÓN DE O'HIGGINS")
	assert.Equal(t, "Región de O'Higgins", info.Region)
}

func TestParseProjectInfoDirectorate(t *testing.T) {
	info := ParseProjectInfo("MINISTERIO DE OBRAS PÚBLICAS\nDIRECCIÓN DE VIALIDAD\nPROYECTO: RUTA W-195")
	assert.Equal(t, "Dirección de Vialidad", info.Directorate)
}

func TestParseProjectInfoEmpty(t *testing.T) {
	info := ParseProjectInfo("documento sin encabezados")
	assert.Empty(t, info.Name)
	assert.Empty(t, info.Region)
	assert.Empty(t, info.Locality)
	assert.Empty(t, info.Directorate)
}

func TestParseDocumentTotals(t *testing.T) {
	text := `TOTAL NETO $ 1.282.000
19% IVA $ 243.580
TOTAL GENERAL $ 1.525.580`

	totals := ParseDocumentTotals(text)
	assert.Equal(t, 1282000.0, totals.Net)
	assert.Equal(t, 243580.0, totals.Tax)
	assert.Equal(t, 1525580.0, totals.Grand)
}

func TestParseDocumentTotalsKeepsLargest(t *testing.T) {
	text := "TOTAL NETO $ 500.000\nTOTAL NETO $ 1.282.000"
	totals := ParseDocumentTotals(text)
	assert.Equal(t, 1282000.0, totals.Net)
}
