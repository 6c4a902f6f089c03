// Package ingest feeds local files and directories through the ingestion
// pipeline and persists the results.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/medst/docingest/internal/pipeline"
	"github.com/medst/docingest/internal/repository"
)

// BatchIngestor reads documents from the local filesystem.
type BatchIngestor struct {
	Pipe    pipeline.Ingestor
	Records repository.HealthRecordRepository
	Logger  *slog.Logger
}

func NewBatchIngestor(pipe pipeline.Ingestor, records repository.HealthRecordRepository, logger *slog.Logger) *BatchIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchIngestor{Pipe: pipe, Records: records, Logger: logger}
}

// IngestFile runs one file through the pipeline and stores the record.
func (b *BatchIngestor) IngestFile(ctx context.Context, patientID int, path string) (*repository.HealthRecord, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	ext := filepath.Ext(abs)
	if !AllowedExt(ext) {
		return nil, fmt.Errorf("unsupported or missing extension %q", ext)
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	res, err := b.Pipe.Ingest(ctx, patientID, filepath.Base(abs), content)
	if err != nil {
		return nil, err
	}

	rec, err := b.Records.Create(ctx, &repository.HealthRecord{
		PatientID:  patientID,
		Filename:   filepath.Base(abs),
		Kind:       res.Kind,
		StorageKey: res.StorageKey,
		Text:       res.Text,
		Fields:     res.Fields,
	})
	if err != nil {
		return nil, err
	}
	b.Logger.Info("ingest.file.ok", "path", abs, "record_id", rec.ID, "kind", rec.Kind)
	return rec, nil
}
