package export

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/medst/docingest/constants"
	"github.com/medst/docingest/internal/fields"
	"github.com/medst/docingest/internal/repository"
)

type stubRecords struct {
	recs []*repository.HealthRecord
	err  error
}

func (s *stubRecords) Create(_ context.Context, _ *repository.HealthRecord) (*repository.HealthRecord, error) {
	return nil, errors.New("not implemented")
}

func (s *stubRecords) GetByID(_ context.Context, _ uuid.UUID) (*repository.HealthRecord, error) {
	return nil, errors.New("not implemented")
}

func (s *stubRecords) ListByPatient(_ context.Context, _ int) ([]*repository.HealthRecord, error) {
	return s.recs, s.err
}

func TestExportRecordsXLSX(t *testing.T) {
	visit := "2024-04-03"
	provider := "Dr. Sarah Nguyen"
	repo := &stubRecords{recs: []*repository.HealthRecord{
		{
			ID:         uuid.New(),
			PatientID:  42,
			Filename:   "visit.pdf",
			Kind:       constants.KindPDF,
			StorageKey: "patients/42/key.pdf",
			Fields: fields.StructuredFields{
				VisitDate:    &visit,
				ProviderName: &provider,
				Diagnosis:    []string{"viral URTI"},
				Medications:  []string{"Paracetamol 500mg", "Ibuprofen 200mg"},
			},
			CreatedAt: time.Date(2024, 4, 3, 10, 30, 0, 0, time.UTC),
		},
	}}

	data, err := NewService(repo, nil).ExportRecordsXLSX(context.Background(), 42)
	if err != nil {
		t.Fatal(err)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a readable workbook: %v", err)
	}
	defer wb.Close()

	rows, err := wb.GetRows("Records")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}
	if rows[0][0] != "Ingested At" || rows[0][3] != "Visit Date" {
		t.Errorf("unexpected header row: %v", rows[0])
	}
	got := rows[1]
	if got[1] != "visit.pdf" || got[2] != "pdf" || got[3] != "2024-04-03" {
		t.Errorf("unexpected data row: %v", got)
	}
	if got[7] != "Paracetamol 500mg; Ibuprofen 200mg" {
		t.Errorf("medications cell = %q", got[7])
	}
}

func TestExportRecordsXLSXRepoError(t *testing.T) {
	repo := &stubRecords{err: errors.New("db down")}
	if _, err := NewService(repo, nil).ExportRecordsXLSX(context.Background(), 42); err == nil {
		t.Fatal("expected error")
	}
}
