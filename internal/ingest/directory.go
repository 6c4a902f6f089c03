package ingest

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
)

type FileResult struct {
	Path     string
	RecordID string
	Kind     string
	Err      string
}

type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

// IngestDirectory walks root, skips hidden entries if requested, and ingests
// every file with an allowed extension for the given patient. Per-file
// failures are collected, not fatal.
func (b *BatchIngestor) IngestDirectory(ctx context.Context, patientID int, root string, skipHidden bool) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []FileResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		rec, err := b.IngestFile(ctx, patientID, path)
		if err != nil {
			b.Logger.Error("ingest.file.failed", "path", path, "err", err)
			results = append(results, FileResult{Path: path, Err: err.Error()})
			stats.Failed++
			return nil
		}

		results = append(results, FileResult{Path: path, RecordID: rec.ID.String(), Kind: string(rec.Kind)})
		stats.Succeeded++
		return nil
	})

	if err != nil {
		return results, stats, err
	}
	return results, stats, nil
}
