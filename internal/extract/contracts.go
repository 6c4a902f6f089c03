// Package extract turns raw document bytes into raw text, one adapter per
// document kind. Adapters never normalize or interpret the text; that is the
// caller's job. Malformed bytes for the declared kind fail with a decode
// error and are not retried.
package extract

import (
	"context"
	"time"
)

// TextExtractor is the per-kind adapter contract: bytes in, raw text out.
type TextExtractor interface {
	Extract(ctx context.Context, content []byte) (Result, error)
}

// Result is the outcome of a single extraction.
type Result struct {
	Text     string
	Pages    int
	Method   string // "pdf-text" | "docx" | "image-ocr"
	Language string // set by the OCR adapter only
	Duration time.Duration
	Warnings []string
}
