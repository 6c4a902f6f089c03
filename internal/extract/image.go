package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"time"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"

	"github.com/medst/docingest/internal/common"
)

// ImageConfig configures the OCR adapter.
type ImageConfig struct {
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	Lang        string // default "eng"
	TessdataDir string
}

// ImageExtractor decodes bytes as a raster image and runs tesseract over a
// temp copy. OCR is best effort: low-confidence text flows downstream
// unchanged, and an image with no recognizable glyphs yields empty text.
type ImageExtractor struct {
	cfg    ImageConfig
	runner Runner
	logger *slog.Logger
}

func NewImageExtractor(cfg ImageConfig, logger *slog.Logger) *ImageExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	return &ImageExtractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

func (e *ImageExtractor) Extract(ctx context.Context, content []byte) (Result, error) {
	start := time.Now()

	_, format, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return Result{}, common.NewAppError("DECODE_ERROR", fmt.Sprintf("decode image: %v", err), common.ErrDecode)
	}

	// tesseract reads from a file, so stage the bytes in a temp copy.
	tmp, err := os.CreateTemp("", "docingest-*."+format)
	if err != nil {
		return Result{}, fmt.Errorf("stage image: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return Result{}, fmt.Errorf("stage image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, fmt.Errorf("stage image: %w", err)
	}

	txt, warns, err := e.tesseractOCR(ctx, tmp.Name())
	if err != nil {
		return Result{Warnings: warns}, err
	}

	if conf := ocrConfidence(txt); conf < lowConfidenceThreshold {
		e.logger.Warn("extract.ocr.low_confidence", "confidence", conf)
		warns = append(warns, fmt.Sprintf("low ocr confidence %.2f; review recommended", conf))
	}

	return Result{
		Text:     txt,
		Pages:    1,
		Method:   "image-ocr",
		Language: e.cfg.Lang,
		Duration: time.Since(start),
		Warnings: warns,
	}, nil
}

func (e *ImageExtractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	args := []string{path, "stdout", "-l", e.cfg.Lang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", []string{truncate(string(errb), 8<<10)}, fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil, nil
}
