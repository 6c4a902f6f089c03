// Package server exposes the ingestion pipeline and record store over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/medst/docingest/internal/common"
	"github.com/medst/docingest/internal/pipeline"
	"github.com/medst/docingest/internal/repository"
	"github.com/medst/docingest/internal/storage"
)

// Exporter produces workbook bytes for a patient's records.
type Exporter interface {
	ExportRecordsXLSX(ctx context.Context, patientID int) ([]byte, error)
}

type Server struct {
	ingestor       pipeline.Ingestor
	records        repository.HealthRecordRepository
	store          storage.Store
	exporter       Exporter
	logger         *slog.Logger
	maxUploadBytes int64
}

type Config struct {
	MaxUploadBytes int64
}

func New(ing pipeline.Ingestor, records repository.HealthRecordRepository, store storage.Store, exporter Exporter, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	return &Server{
		ingestor:       ing,
		records:        records,
		store:          store,
		exporter:       exporter,
		logger:         logger,
		maxUploadBytes: cfg.MaxUploadBytes,
	}
}

// Routes builds the HTTP router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	// Mirror chi's request ID into our own context key so layers below the
	// router can log it without importing chi.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := common.WithRequestID(req.Context(), middleware.GetReqID(req.Context()))
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/records", s.handleIngestRecord)
		r.Get("/records/{id}", s.handleGetRecord)
		r.Get("/records/{id}/download", s.handleDownloadRecord)
		r.Route("/patients/{patientID}", func(r chi.Router) {
			r.Get("/records", s.handleListRecords)
			r.Get("/records/export", s.handleExportRecords)
		})
	})
	return r
}
