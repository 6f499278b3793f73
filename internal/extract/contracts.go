package extract

import (
	"context"

	"github.com/tenders-cl/budget-analyzer/constants"
	"github.com/tenders-cl/budget-analyzer/internal/entity"
)

// Doc is the narrow view of a parsed document that strategies consume. The
// concrete implementation wraps pdfcpu, but nothing downstream depends on
// which parsing library is installed.
type Doc interface {
	Path() string
	PageCount() int
	// PageText returns the recovered text of a 1-based page, empty when the
	// page has no extractable text.
	PageText(page int) string
	// LikelyScanned reports whether the document looks like a scan:
	// embedded raster images with almost no extractable text.
	LikelyScanned() bool
}

// Strategy is one independent technique for recovering content from a
// document. Run never panics and never returns an error: internal faults are
// captured as a failed RawExtractionResult.
type Strategy interface {
	Name() constants.StrategyName
	Run(ctx context.Context, doc Doc) entity.RawExtractionResult
}

// Recognizer is the optical character recognition capability; only the
// OCR-fallback strategy invokes it.
type Recognizer interface {
	Recognize(ctx context.Context, pageImage string, language string) (string, error)
}

// Rasterizer renders one document page to an image file for OCR.
type Rasterizer interface {
	Rasterize(ctx context.Context, docPath string, page int, outDir string) (string, error)
}
