package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medst/docingest/constants"
	"github.com/medst/docingest/internal/pipeline"
	"github.com/medst/docingest/internal/repository"
)

type stubPipe struct {
	failOn string
	calls  []string
}

func (s *stubPipe) Ingest(_ context.Context, _ int, filename string, _ []byte) (pipeline.Result, error) {
	s.calls = append(s.calls, filename)
	if filename == s.failOn {
		return pipeline.Result{}, errors.New("decode failed")
	}
	return pipeline.Result{Kind: pipeline.DetectKind(filename), StorageKey: "patients/1/" + filename, Text: "text"}, nil
}

type memRepo struct {
	recs []*repository.HealthRecord
}

func (m *memRepo) Create(_ context.Context, rec *repository.HealthRecord) (*repository.HealthRecord, error) {
	out := *rec
	out.ID = uuid.New()
	out.CreatedAt = time.Now().UTC()
	m.recs = append(m.recs, &out)
	return &out, nil
}

func (m *memRepo) GetByID(_ context.Context, _ uuid.UUID) (*repository.HealthRecord, error) {
	return nil, errors.New("not implemented")
}

func (m *memRepo) ListByPatient(_ context.Context, _ int) ([]*repository.HealthRecord, error) {
	return m.recs, nil
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIngestDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.pdf")
	writeFile(t, root, "nested/b.docx")
	writeFile(t, root, "notes.txt")          // extension not allowed
	writeFile(t, root, ".hidden/secret.pdf") // hidden dir skipped
	writeFile(t, root, "bad.pdf")

	pipe := &stubPipe{failOn: "bad.pdf"}
	repo := &memRepo{}
	b := NewBatchIngestor(pipe, repo, nil)

	results, stats, err := b.IngestDirectory(context.Background(), 1, root, true)
	if err != nil {
		t.Fatal(err)
	}

	if stats.Matched != 3 || stats.Succeeded != 2 || stats.Failed != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if len(repo.recs) != 2 {
		t.Fatalf("persisted %d records, want 2", len(repo.recs))
	}
	for _, c := range pipe.calls {
		if c == "notes.txt" || c == "secret.pdf" {
			t.Errorf("file %q should not reach the pipeline", c)
		}
	}

	var failed int
	for _, r := range results {
		if r.Err != "" {
			failed++
			if filepath.Base(r.Path) != "bad.pdf" {
				t.Errorf("unexpected failure: %+v", r)
			}
		}
	}
	if failed != 1 {
		t.Errorf("failed results = %d, want 1", failed)
	}
}

func TestIngestFileUnsupportedExtension(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "notes.txt")

	b := NewBatchIngestor(&stubPipe{}, &memRepo{}, nil)
	if _, err := b.IngestFile(context.Background(), 1, path); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestIngestFile(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "visit.pdf")

	repo := &memRepo{}
	b := NewBatchIngestor(&stubPipe{}, repo, nil)

	rec, err := b.IngestFile(context.Background(), 7, path)
	if err != nil {
		t.Fatal(err)
	}
	if rec.PatientID != 7 || rec.Filename != "visit.pdf" || rec.Kind != constants.KindPDF {
		t.Errorf("unexpected record: %+v", rec)
	}
}
