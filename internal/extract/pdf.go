package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/medst/docingest/internal/common"
)

// PDFExtractor reads the byte stream as a paginated document and concatenates
// page text in order. A page whose primary text content comes back empty is
// retried once in plain-text mode before accepting empty output. Scanned
// image-only PDFs are never re-run through OCR; they simply yield little or
// no text.
type PDFExtractor struct {
	logger *slog.Logger
}

func NewPDFExtractor(logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFExtractor{logger: logger}
}

func (e *PDFExtractor) Extract(ctx context.Context, content []byte) (res Result, err error) {
	start := time.Now()
	// The reader panics on some malformed files instead of returning an error.
	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = common.NewAppError("DECODE_ERROR", fmt.Sprintf("read pdf: %v", r), common.ErrDecode)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return Result{}, common.NewAppError("DECODE_ERROR", fmt.Sprintf("open pdf: %v", err), common.ErrDecode)
	}

	var sb strings.Builder
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			sb.WriteByte('\n')
			continue
		}
		sb.WriteString(e.pageText(p, i))
		sb.WriteByte('\n')
	}

	return Result{
		Text:     sb.String(),
		Pages:    total,
		Method:   "pdf-text",
		Duration: time.Since(start),
	}, nil
}

// pageReader is the slice of pdf.Page the extractor reads through; narrowed
// to an interface so the fallback decision is testable without a fixture
// that defeats the row reader.
type pageReader interface {
	GetTextByRow() (pdf.Rows, error)
	GetPlainText(fonts map[string]*pdf.Font) (string, error)
}

// pageText assembles a page's text row by row; a page whose rows come back
// empty or whitespace-only is retried once in plain-text mode.
func (e *PDFExtractor) pageText(p pageReader, pageNum int) string {
	text := pageRowText(p)
	if strings.TrimSpace(text) == "" {
		plain, err := p.GetPlainText(nil)
		if err != nil {
			e.logger.Debug("pdf plain-text fallback failed", "page", pageNum, "error", err)
			return text
		}
		return plain
	}
	return text
}

// pageRowText assembles a page's text content row by row, top to bottom.
func pageRowText(p pageReader) string {
	rows, err := p.GetTextByRow()
	if err != nil {
		return ""
	}
	var sb strings.Builder
	for _, row := range rows {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		for _, txt := range row.Content {
			sb.WriteString(txt.S)
		}
	}
	return sb.String()
}
