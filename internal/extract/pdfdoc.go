package extract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/tenders-cl/budget-analyzer/internal/common"
)

// PDFDoc implements Doc over a pdfcpu context. Page text is extracted once at
// open time so concurrent strategies can read it without shared parser state.
type PDFDoc struct {
	path      string
	pageCount int
	pages     []string
	hasImages bool
}

// OpenPDF reads and validates the document at path. An unreadable or empty
// file is a fatal pipeline error (CORRUPT_DOCUMENT).
func OpenPDF(path string) (*PDFDoc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.NewAppError(common.CodeCorruptDocument, "open document", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil || st.Size() == 0 {
		return nil, common.NewAppError(common.CodeCorruptDocument, "empty document", err)
	}

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, common.NewAppError(common.CodeCorruptDocument, "parse document", err)
	}
	if ctx.PageCount == 0 {
		return nil, common.NewAppError(common.CodeCorruptDocument, "document has no pages", nil)
	}

	d := &PDFDoc{
		path:      path,
		pageCount: ctx.PageCount,
		pages:     make([]string, ctx.PageCount),
		hasImages: detectImageStreams(ctx),
	}
	for page := 1; page <= ctx.PageCount; page++ {
		d.pages[page-1] = extractPageText(ctx, page)
	}
	return d, nil
}

func (d *PDFDoc) Path() string   { return d.path }
func (d *PDFDoc) PageCount() int { return d.pageCount }

func (d *PDFDoc) PageText(page int) string {
	if page < 1 || page > len(d.pages) {
		return ""
	}
	return d.pages[page-1]
}

// LikelyScanned reports whether the document looks like a scan: embedded
// images with almost no extractable text.
func (d *PDFDoc) LikelyScanned() bool {
	total := 0
	for _, p := range d.pages {
		total += len(p)
	}
	charsPerPage := float64(total) / float64(d.pageCount)
	return d.hasImages && charsPerPage < 50
}

func extractPageText(ctx *model.Context, page int) string {
	r, err := pdfcpu.ExtractPageContent(ctx, page)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return parseContentStream(data)
}

func detectImageStreams(ctx *model.Context) bool {
	if ctx.Optimize != nil {
		for page := 1; page <= ctx.PageCount; page++ {
			if len(pdfcpu.ImageObjNrs(ctx, page)) > 0 {
				return true
			}
		}
	}
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true
			}
		}
	}
	return false
}

var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// parseContentStream walks PDF text operators (Tj, TJ, ', Td/TD, T*) and
// reassembles page text, keeping line structure so downstream table
// heuristics can work on rows.
func parseContentStream(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteByte('\n')
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
		case bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		}
	}

	return normalizeLines(sb.String())
}

func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for j := 0; j < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; j++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}

// normalizeLines trims trailing whitespace per line and drops empty runs, but
// keeps intra-line spacing intact for column detection.
func normalizeLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimRight(l, " \t\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}

// PageBanner labels a page's text with its source for merged output.
func PageBanner(page int) string {
	return fmt.Sprintf("=== PÁGINA %d ===", page)
}
