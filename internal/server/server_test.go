package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medst/docingest/constants"
	"github.com/medst/docingest/internal/common"
	"github.com/medst/docingest/internal/fields"
	"github.com/medst/docingest/internal/pipeline"
	"github.com/medst/docingest/internal/repository"
)

type stubIngestor struct {
	res pipeline.Result
	err error
}

func (s *stubIngestor) Ingest(_ context.Context, _ int, _ string, _ []byte) (pipeline.Result, error) {
	return s.res, s.err
}

type stubRepo struct {
	created *repository.HealthRecord
	byID    map[uuid.UUID]*repository.HealthRecord
	list    []*repository.HealthRecord
	listErr error
}

func (s *stubRepo) Create(_ context.Context, rec *repository.HealthRecord) (*repository.HealthRecord, error) {
	out := *rec
	out.ID = uuid.New()
	out.CreatedAt = time.Now().UTC()
	s.created = &out
	return &out, nil
}

func (s *stubRepo) GetByID(_ context.Context, id uuid.UUID) (*repository.HealthRecord, error) {
	if rec, ok := s.byID[id]; ok {
		return rec, nil
	}
	return nil, common.WrapKind(common.ErrNotFound, "get health record", errors.New("no rows"))
}

func (s *stubRepo) ListByPatient(_ context.Context, _ int) ([]*repository.HealthRecord, error) {
	return s.list, s.listErr
}

type stubStore struct {
	objects map[string][]byte
}

func (s *stubStore) GenerateKey(patientID int, filename string) string {
	return "key"
}

func (s *stubStore) Save(_ context.Context, key string, content []byte) (string, error) {
	return "/data/" + key, nil
}

func (s *stubStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if data, ok := s.objects[key]; ok {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return nil, common.WrapKind(common.ErrNotFound, "open stored object", errors.New("missing"))
}

type stubExporter struct {
	data []byte
	err  error
}

func (s *stubExporter) ExportRecordsXLSX(_ context.Context, _ int) ([]byte, error) {
	return s.data, s.err
}

func newTestServer(ing pipeline.Ingestor, repo repository.HealthRecordRepository, exp Exporter) http.Handler {
	return New(ing, repo, &stubStore{}, exp, Config{}, nil).Routes()
}

func multipartBody(t *testing.T, patientID, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if patientID != "" {
		if err := mw.WriteField("patient_id", patientID); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestIngestRecord(t *testing.T) {
	visit := "2024-04-03"
	ing := &stubIngestor{res: pipeline.Result{
		Kind:       constants.KindPDF,
		StorageKey: "patients/42/key.pdf",
		Text:       "note text",
		Fields:     fields.StructuredFields{VisitDate: &visit},
	}}
	repo := &stubRepo{}
	h := newTestServer(ing, repo, &stubExporter{})

	body, contentType := multipartBody(t, "42", "visit.pdf", []byte("%PDF"))
	req := httptest.NewRequest(http.MethodPost, "/v1/records", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp recordResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.PatientID != 42 || resp.Kind != "pdf" || resp.Text != "note text" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Fields.VisitDate == nil || *resp.Fields.VisitDate != "2024-04-03" {
		t.Errorf("fields not returned: %+v", resp.Fields)
	}
	if repo.created == nil || repo.created.StorageKey != "patients/42/key.pdf" {
		t.Errorf("record not persisted: %+v", repo.created)
	}
}

func TestIngestRecordValidation(t *testing.T) {
	tests := []struct {
		name      string
		patientID string
		filename  string
		content   []byte
		want      int
	}{
		{"missing patient_id", "", "visit.pdf", []byte("x"), http.StatusBadRequest},
		{"non-numeric patient_id", "abc", "visit.pdf", []byte("x"), http.StatusBadRequest},
		{"zero patient_id", "0", "visit.pdf", []byte("x"), http.StatusBadRequest},
		{"missing file", "42", "", nil, http.StatusBadRequest},
		{"empty file", "42", "visit.pdf", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&stubIngestor{}, &stubRepo{}, &stubExporter{})
			body, contentType := multipartBody(t, tt.patientID, tt.filename, tt.content)
			req := httptest.NewRequest(http.MethodPost, "/v1/records", body)
			req.Header.Set("Content-Type", contentType)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestIngestRecordErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unsupported format", common.NewAppError("UNSUPPORTED_FORMAT", "no extractor", common.ErrUnsupportedFormat), http.StatusUnsupportedMediaType},
		{"decode error", common.NewAppError("DECODE_ERROR", "bad pdf", common.ErrDecode), http.StatusUnprocessableEntity},
		{"storage failure", common.WrapKind(common.ErrStorage, "save", errors.New("disk full")), http.StatusBadGateway},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&stubIngestor{err: tt.err}, &stubRepo{}, &stubExporter{})
			body, contentType := multipartBody(t, "42", "visit.pdf", []byte("x"))
			req := httptest.NewRequest(http.MethodPost, "/v1/records", body)
			req.Header.Set("Content-Type", contentType)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestGetRecord(t *testing.T) {
	id := uuid.New()
	repo := &stubRepo{byID: map[uuid.UUID]*repository.HealthRecord{
		id: {ID: id, PatientID: 42, Filename: "visit.pdf", Kind: constants.KindPDF, Text: "note"},
	}}
	h := newTestServer(&stubIngestor{}, repo, &stubExporter{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/records/"+id.String(), nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/records/"+uuid.NewString(), nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("missing record status = %d, want 404", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/records/not-a-uuid", nil))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rr.Code)
	}
}

func TestDownloadRecord(t *testing.T) {
	id := uuid.New()
	repo := &stubRepo{byID: map[uuid.UUID]*repository.HealthRecord{
		id: {ID: id, PatientID: 42, Filename: "visit.pdf", Kind: constants.KindPDF, StorageKey: "patients/42/key.pdf"},
	}}
	store := &stubStore{objects: map[string][]byte{"patients/42/key.pdf": []byte("%PDF raw bytes")}}
	h := New(&stubIngestor{}, repo, store, &stubExporter{}, Config{}, nil).Routes()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/records/"+id.String()+"/download", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Body.String() != "%PDF raw bytes" {
		t.Errorf("body = %q", rr.Body.String())
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "visit.pdf") {
		t.Errorf("content disposition = %q", cd)
	}

	// Record exists but the blob is gone.
	repo.byID[id].StorageKey = "patients/42/missing.pdf"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/records/"+id.String()+"/download", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("missing blob status = %d, want 404", rr.Code)
	}
}

func TestListRecords(t *testing.T) {
	repo := &stubRepo{list: []*repository.HealthRecord{
		{ID: uuid.New(), PatientID: 42, Filename: "a.pdf", Kind: constants.KindPDF, Text: "hidden"},
	}}
	h := newTestServer(&stubIngestor{}, repo, &stubExporter{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/patients/42/records", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp struct {
		Records []recordResponse `json:"records"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Records) != 1 || resp.Records[0].Filename != "a.pdf" {
		t.Errorf("unexpected list: %+v", resp.Records)
	}
	if resp.Records[0].Text != "" {
		t.Error("list responses must not carry full text")
	}
}

func TestExportRecords(t *testing.T) {
	h := newTestServer(&stubIngestor{}, &stubRepo{}, &stubExporter{data: []byte("PK fake xlsx")})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/patients/42/records/export", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("content type = %q", ct)
	}
	if rr.Body.String() != "PK fake xlsx" {
		t.Error("workbook bytes not passed through")
	}
}

func TestHealthz(t *testing.T) {
	h := newTestServer(&stubIngestor{}, &stubRepo{}, &stubExporter{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
}
