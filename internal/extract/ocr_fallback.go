package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tenders-cl/budget-analyzer/constants"
	"github.com/tenders-cl/budget-analyzer/internal/entity"
)

// OCRFallbackStrategy rasterizes a bounded number of pages and runs optical
// character recognition over them. It recovers text only -- no table
// structure -- and exists to raise text volume so the text-pattern pass can
// find more matches on a second run.
type OCRFallbackStrategy struct {
	rasterizer Rasterizer
	recognizer Recognizer
	language   string
	maxPages   int
	logger     *slog.Logger
}

func NewOCRFallbackStrategy(rast Rasterizer, rec Recognizer, language string, logger *slog.Logger) *OCRFallbackStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	if language == "" {
		language = "spa"
	}
	return &OCRFallbackStrategy{
		rasterizer: rast,
		recognizer: rec,
		language:   language,
		maxPages:   constants.OCRMaxPages,
		logger:     logger,
	}
}

func (s *OCRFallbackStrategy) Name() constants.StrategyName {
	return constants.StrategyOCRFallback
}

func (s *OCRFallbackStrategy) Run(ctx context.Context, doc Doc) (res entity.RawExtractionResult) {
	res = entity.RawExtractionResult{Strategy: s.Name()}
	defer func() {
		if r := recover(); r != nil {
			res = entity.RawExtractionResult{Strategy: s.Name(), Err: fmt.Sprintf("panic: %v", r)}
		}
	}()

	tmpDir, err := os.MkdirTemp("", "ocr-pages-")
	if err != nil {
		res.Err = fmt.Sprintf("mkdir temp: %v", err)
		return res
	}
	defer os.RemoveAll(tmpDir)

	pages := doc.PageCount()
	if pages > s.maxPages {
		pages = s.maxPages
	}

	var text strings.Builder
	recognized := 0
	for page := 1; page <= pages; page++ {
		if ctx.Err() != nil {
			res.Err = ctx.Err().Error()
			return res
		}
		img, err := s.rasterizer.Rasterize(ctx, doc.Path(), page, tmpDir)
		if err != nil {
			s.logger.Warn("ocr.rasterize_failed", "page", page, "error", err)
			continue
		}
		pageText, err := s.recognizer.Recognize(ctx, img, s.language)
		if err != nil {
			s.logger.Warn("ocr.recognize_failed", "page", page, "error", err)
			continue
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		fmt.Fprintf(&text, "%s (OCR)\n%s\n", PageBanner(page), pageText)
		recognized++
	}

	if recognized == 0 {
		res.Err = "no pages recognized"
		return res
	}

	res.Success = true
	res.Text = text.String()
	res.Pages = recognized
	return res
}

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

// ExecRasterizer shells out to pdftoppm to render one page as PNG.
type ExecRasterizer struct {
	Binary string
	DPI    int
	Runner Runner
}

func (r *ExecRasterizer) Rasterize(ctx context.Context, docPath string, page int, outDir string) (string, error) {
	bin := r.Binary
	if bin == "" {
		bin = "pdftoppm"
	}
	dpi := r.DPI
	if dpi <= 0 {
		dpi = 300
	}
	prefix := filepath.Join(outDir, fmt.Sprintf("page-%d", page))
	_, stderr, err := r.Runner.Run(ctx, bin,
		"-png",
		"-r", strconv.Itoa(dpi),
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		docPath, prefix,
	)
	if err != nil {
		return "", fmt.Errorf("pdftoppm: %w (%s)", err, truncate(string(stderr), 512))
	}

	// pdftoppm suffixes the page number with varying zero padding.
	matches, _ := filepath.Glob(prefix + "*.png")
	if len(matches) == 0 {
		return "", fmt.Errorf("pdftoppm produced no output for page %d", page)
	}
	return matches[0], nil
}

// ExecRecognizer shells out to tesseract, reading text from stdout.
type ExecRecognizer struct {
	Binary string
	Runner Runner
}

func (r *ExecRecognizer) Recognize(ctx context.Context, pageImage, language string) (string, error) {
	bin := r.Binary
	if bin == "" {
		bin = "tesseract"
	}
	stdout, stderr, err := r.Runner.Run(ctx, bin, pageImage, "stdout", "-l", language, "--psm", "6")
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (%s)", err, truncate(string(stderr), 512))
	}
	return string(stdout), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
