// Package storage persists raw document bytes under per-patient keys.
package storage

import (
	"context"
	"io"
)

// Store is the blob storage collaborator of the ingestion pipeline. Keys are
// relative, forward-slash paths; Save returns the absolute location of the
// stored object.
type Store interface {
	GenerateKey(patientID int, filename string) string
	Save(ctx context.Context, key string, content []byte) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
