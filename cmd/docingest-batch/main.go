// docingest-batch ingests a directory of documents for one patient, and can
// stay running to pick up files dropped in afterwards.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medst/docingest/constants"
	"github.com/medst/docingest/internal/common"
	"github.com/medst/docingest/internal/extract"
	"github.com/medst/docingest/internal/ingest"
	"github.com/medst/docingest/internal/pipeline"
	"github.com/medst/docingest/internal/repository"
	"github.com/medst/docingest/internal/storage"
)

func main() {
	patientID := flag.Int("patient", 0, "patient ID to attach records to (required)")
	root := flag.String("root", "", "directory to ingest (required)")
	keepHidden := flag.Bool("hidden", false, "include hidden files and directories")
	watch := flag.Bool("watch", false, "keep running and ingest newly dropped files")
	debounce := flag.Duration("debounce", 500*time.Millisecond, "watch mode write-coalescing window")
	flag.Parse()

	if *patientID <= 0 || *root == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, repository.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("database open failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.EnsureSchema(ctx, db); err != nil {
		logger.Error("schema setup failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewFS(cfg.Storage.LocalPath)
	if err != nil {
		logger.Error("storage setup failed", "error", err)
		os.Exit(1)
	}

	pipe := pipeline.New(store, map[constants.DocumentKind]extract.TextExtractor{
		constants.KindPDF:  extract.NewPDFExtractor(logger),
		constants.KindDocx: extract.NewDocxExtractor(logger),
		constants.KindImage: extract.NewImageExtractor(extract.ImageConfig{
			Tesseract: cfg.OCR.TesseractBin,
			Lang:      cfg.OCR.TesseractLang,
		}, logger),
	}, logger)

	records := repository.NewHealthRecordRepository(db, logger)
	batch := ingest.NewBatchIngestor(pipe, records, logger)

	results, stats, err := batch.IngestDirectory(ctx, *patientID, *root, !*keepHidden)
	if err != nil {
		logger.Error("directory ingest failed", "error", err)
		os.Exit(1)
	}
	for _, r := range results {
		if r.Err != "" {
			fmt.Fprintf(os.Stderr, "FAIL %s: %s\n", r.Path, r.Err)
		} else {
			fmt.Printf("OK   %s -> %s (%s)\n", r.Path, r.RecordID, r.Kind)
		}
	}
	fmt.Printf("scanned=%d matched=%d succeeded=%d failed=%d\n",
		stats.Scanned, stats.Matched, stats.Succeeded, stats.Failed)

	if !*watch {
		if stats.Failed > 0 {
			os.Exit(1)
		}
		return
	}

	evCh, errCh, err := ingest.Watch(ctx, ingest.WatchConfig{
		Root:     *root,
		Debounce: *debounce,
	}, logger)
	if err != nil {
		logger.Error("watch setup failed", "error", err)
		os.Exit(1)
	}
	logger.Info("watching for new documents", "root", *root)

	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if ok {
				logger.Error("watch error", "error", err)
			}
		case path, ok := <-evCh:
			if !ok {
				return
			}
			rec, err := batch.IngestFile(ctx, *patientID, path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", path, err)
				continue
			}
			fmt.Printf("OK   %s -> %s (%s)\n", path, rec.ID, rec.Kind)
		}
	}
}
