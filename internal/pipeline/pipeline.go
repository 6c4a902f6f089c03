// Package pipeline coordinates the ingestion flow: detect format, extract
// text, normalize, recover structured fields, and store the raw bytes.
package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/medst/docingest/constants"
	"github.com/medst/docingest/internal/common"
	"github.com/medst/docingest/internal/extract"
	"github.com/medst/docingest/internal/fields"
	"github.com/medst/docingest/internal/normalize"
	"github.com/medst/docingest/internal/storage"
)

// Ingestor runs the full ingestion flow for one document.
type Ingestor interface {
	Ingest(ctx context.Context, patientID int, filename string, content []byte) (Result, error)
}

// Result is the outcome of ingesting a single document.
type Result struct {
	Kind       constants.DocumentKind
	StorageKey string
	Location   string
	Text       string
	Fields     fields.StructuredFields
}

// Pipeline wires format detection, blob storage, and per-kind text
// extractors into one Ingest operation.
type Pipeline struct {
	extractors map[constants.DocumentKind]extract.TextExtractor
	store      storage.Store
	logger     *slog.Logger
}

func New(store storage.Store, extractors map[constants.DocumentKind]extract.TextExtractor, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{extractors: extractors, store: store, logger: logger}
}

// DetectKind maps a filename to its document kind by extension alone. The
// content is never sniffed; a mislabeled file surfaces later as a decode
// error.
func DetectKind(filename string) constants.DocumentKind {
	return constants.MapExtToKind(filepath.Ext(filename))
}

// Ingest extracts the document's text, recovers structured fields, and only
// then stores the raw bytes. An unsupported extension fails before anything
// is decoded; a decode failure leaves nothing behind in storage.
func (p *Pipeline) Ingest(ctx context.Context, patientID int, filename string, content []byte) (Result, error) {
	started := time.Now()

	kind := DetectKind(filename)
	ex, ok := p.extractors[kind]
	if kind == constants.KindUnknown || !ok {
		p.logger.Warn("pipeline.detect.unsupported", "filename", filename)
		return Result{Kind: kind}, common.NewAppError("UNSUPPORTED_FORMAT",
			"no extractor for file type", common.ErrUnsupportedFormat)
	}

	res, err := ex.Extract(ctx, content)
	if err != nil {
		p.logger.Error("pipeline.extract.failed", "filename", filename, "kind", kind, "err", err)
		return Result{Kind: kind}, err
	}
	p.logger.Info("pipeline.extract.ok",
		"filename", filename,
		"kind", kind,
		"method", res.Method,
		"pages", res.Pages,
		"duration", res.Duration,
	)

	text := normalize.Text(res.Text)
	f := fields.Postprocess(fields.Extract(text))

	key := p.store.GenerateKey(patientID, filename)
	location, err := p.store.Save(ctx, key, content)
	if err != nil {
		p.logger.Error("pipeline.store.failed", "key", key, "err", err)
		return Result{Kind: kind}, common.WrapKind(common.ErrStorage, "save document", err)
	}
	p.logger.Info("pipeline.store.ok", "key", key, "bytes", len(content))

	p.logger.Info("pipeline.ingest.ok",
		"key", key,
		"kind", kind,
		"chars", len(text),
		"duration", time.Since(started),
	)
	return Result{
		Kind:       kind,
		StorageKey: key,
		Location:   location,
		Text:       text,
		Fields:     f,
	}, nil
}
