// docingestd serves the document ingestion API over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/medst/docingest/constants"
	"github.com/medst/docingest/internal/common"
	"github.com/medst/docingest/internal/export"
	"github.com/medst/docingest/internal/extract"
	"github.com/medst/docingest/internal/pipeline"
	"github.com/medst/docingest/internal/repository"
	"github.com/medst/docingest/internal/server"
	"github.com/medst/docingest/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
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
	exporter := export.NewService(records, logger)

	srv := server.New(pipe, records, store, exporter, server.Config{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	}, logger)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Routes(),
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	logger.Info("stopped")
}
