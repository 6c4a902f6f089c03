package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medst/docingest/internal/common"
	"github.com/medst/docingest/internal/fields"
	"github.com/medst/docingest/internal/repository"
)

type recordResponse struct {
	ID         string                  `json:"id"`
	PatientID  int                     `json:"patient_id"`
	Filename   string                  `json:"filename"`
	Kind       string                  `json:"kind"`
	StorageKey string                  `json:"storage_key"`
	Text       string                  `json:"text,omitempty"`
	Fields     fields.StructuredFields `json:"fields"`
	CreatedAt  time.Time               `json:"created_at"`
}

func toRecordResponse(rec *repository.HealthRecord, includeText bool) recordResponse {
	out := recordResponse{
		ID:         rec.ID.String(),
		PatientID:  rec.PatientID,
		Filename:   rec.Filename,
		Kind:       string(rec.Kind),
		StorageKey: rec.StorageKey,
		Fields:     rec.Fields,
		CreatedAt:  rec.CreatedAt,
	}
	if includeText {
		out.Text = rec.Text
	}
	return out
}

// handleIngestRecord accepts a multipart upload (patient_id, file), runs the
// ingestion pipeline, and persists the outcome.
func (s *Server) handleIngestRecord(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		s.writeError(w, r, common.WrapKind(common.ErrInvalidInput, "parse multipart form", err))
		return
	}

	patientID, err := strconv.Atoi(r.FormValue("patient_id"))
	if err != nil {
		s.writeError(w, r, common.WrapError(common.ErrInvalidInput, "patient_id must be an integer"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, common.WrapKind(common.ErrInvalidInput, "file part is required", err))
		return
	}
	defer file.Close()

	if v := common.NewValidator().
		Field("patient_id", patientID, common.Positive).
		Field("filename", header.Filename, common.Required); v.HasErrors() {
		s.writeError(w, r, v.Error())
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, common.WrapKind(common.ErrInvalidInput, "read upload", err))
		return
	}
	if len(content) == 0 {
		s.writeError(w, r, common.WrapError(common.ErrInvalidInput, "uploaded file is empty"))
		return
	}

	ctx := common.WithPatientID(r.Context(), patientID)
	res, err := s.ingestor.Ingest(ctx, patientID, header.Filename, content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rec, err := s.records.Create(ctx, &repository.HealthRecord{
		PatientID:  patientID,
		Filename:   header.Filename,
		Kind:       res.Kind,
		StorageKey: res.StorageKey,
		Text:       res.Text,
		Fields:     res.Fields,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("server.ingest.ok",
		"request_id", common.RequestIDFromContext(ctx),
		"patient_id", patientID,
		"record_id", rec.ID,
		"kind", rec.Kind,
	)
	s.writeJSON(w, http.StatusCreated, toRecordResponse(rec, true))
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, common.WrapError(common.ErrInvalidInput, "id must be a UUID"))
		return
	}

	rec, err := s.records.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toRecordResponse(rec, true))
}

// handleDownloadRecord streams the original uploaded bytes back.
func (s *Server) handleDownloadRecord(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, common.WrapError(common.ErrInvalidInput, "id must be a UUID"))
		return
	}

	rec, err := s.records.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rc, err := s.store.Open(r.Context(), rec.StorageKey)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Error("server.download.failed", "record_id", id, "error", err)
	}
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	patientID, err := s.patientIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	recs, err := s.records.ListByPatient(r.Context(), patientID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]recordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toRecordResponse(rec, false))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"records": out})
}

func (s *Server) handleExportRecords(w http.ResponseWriter, r *http.Request) {
	patientID, err := s.patientIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data, err := s.exporter.ExportRecordsXLSX(r.Context(), patientID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=patient-%d-records.xlsx", patientID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) patientIDParam(r *http.Request) (int, error) {
	patientID, err := strconv.Atoi(chi.URLParam(r, "patientID"))
	if err != nil || patientID <= 0 {
		return 0, common.WrapError(common.ErrInvalidInput, "patientID must be a positive integer")
	}
	return patientID, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("server.write.failed", "error", err)
	}
}

// writeError maps the pipeline error taxonomy onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrUnsupportedFormat):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, common.ErrDecode):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrStorage):
		status = http.StatusBadGateway
	}

	if status >= 500 {
		s.logger.Error("server.request.failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Warn("server.request.rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
