package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/medst/docingest/constants"
	"github.com/medst/docingest/internal/common"
	"github.com/medst/docingest/internal/fields"
)

// HealthRecord is one ingested document: where its bytes live, what text was
// recovered, and the structured field set.
type HealthRecord struct {
	ID         uuid.UUID
	PatientID  int
	Filename   string
	Kind       constants.DocumentKind
	StorageKey string
	Text       string
	Fields     fields.StructuredFields
	CreatedAt  time.Time
}

type HealthRecordRepository interface {
	Create(ctx context.Context, rec *HealthRecord) (*HealthRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (*HealthRecord, error)
	ListByPatient(ctx context.Context, patientID int) ([]*HealthRecord, error)
}

type healthRecordRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewHealthRecordRepository(db *sql.DB, logger *slog.Logger) HealthRecordRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &healthRecordRepository{db: db, logger: logger}
}

// Create assigns an ID and timestamp, validates the field payload against
// the wire schema, and inserts the row.
func (r *healthRecordRepository) Create(ctx context.Context, rec *HealthRecord) (*HealthRecord, error) {
	payload, err := json.Marshal(rec.Fields)
	if err != nil {
		return nil, fmt.Errorf("marshal fields: %w", err)
	}
	if err := fields.ValidateJSON(payload); err != nil {
		return nil, common.WrapKind(common.ErrInvalidInput, "validate fields", err)
	}

	out := *rec
	out.ID = uuid.New()
	out.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO health_records (id, patient_id, filename, kind, storage_key, body_text, fields, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(ctx, q,
		out.ID.String(), out.PatientID, out.Filename, string(out.Kind),
		out.StorageKey, out.Text, string(payload), out.CreatedAt,
	); err != nil {
		r.logger.Error("failed to insert health record", "patient_id", out.PatientID, "error", err)
		return nil, err
	}
	return &out, nil
}

func (r *healthRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*HealthRecord, error) {
	const q = `SELECT id, patient_id, filename, kind, storage_key, body_text, fields, created_at
		FROM health_records WHERE id = $1`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, q, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.WrapKind(common.ErrNotFound, "get health record", err)
	}
	if err != nil {
		r.logger.Error("failed to get health record", "id", id, "error", err)
		return nil, err
	}
	return rec, nil
}

func (r *healthRecordRepository) ListByPatient(ctx context.Context, patientID int) ([]*HealthRecord, error) {
	const q = `SELECT id, patient_id, filename, kind, storage_key, body_text, fields, created_at
		FROM health_records WHERE patient_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, q, patientID)
	if err != nil {
		r.logger.Error("failed to list health records", "patient_id", patientID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []*HealthRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*HealthRecord, error) {
	var (
		rec     HealthRecord
		id      string
		kind    string
		payload string
	)
	if err := row.Scan(&id, &rec.PatientID, &rec.Filename, &kind, &rec.StorageKey, &rec.Text, &payload, &rec.CreatedAt); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse record id: %w", err)
	}
	rec.ID = parsed
	rec.Kind = constants.DocumentKind(kind)
	if err := json.Unmarshal([]byte(payload), &rec.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	return &rec, nil
}
