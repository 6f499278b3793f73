package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLikelyScanned(t *testing.T) {
	tests := []struct {
		name      string
		pages     []string
		hasImages bool
		want      bool
	}{
		{"images and no text", []string{"", ""}, true, true},
		{"images with real text", []string{strings.Repeat("x", 500)}, true, false},
		{"no images", []string{""}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &PDFDoc{pageCount: len(tt.pages), pages: tt.pages, hasImages: tt.hasImages}
			assert.Equal(t, tt.want, d.LikelyScanned())
		})
	}
}

func TestParseContentStream(t *testing.T) {
	data := []byte("BT\n(PRESUPUESTO OFICIAL) Tj\n0 -12 Td\n(7.301.1 Excavaci\\363n) Tj\nET")
	text := parseContentStream(data)
	assert.Contains(t, text, "PRESUPUESTO OFICIAL")
	assert.Contains(t, text, "7.301.1")
}
