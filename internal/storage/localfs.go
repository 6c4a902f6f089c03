package storage

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medst/docingest/internal/common"
)

// FS stores documents on the local filesystem under basePath. Keys are
// slash-separated and joined onto basePath at access time.
type FS struct {
	basePath string
}

func NewFS(basePath string) (*FS, error) {
	if basePath == "" {
		basePath = "./data/storage"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FS{basePath: basePath}, nil
}

// GenerateKey builds a collision-free key of the form
// patients/<patientID>/<timestamp>-<random><ext>. The original filename only
// contributes its extension, so hostile names cannot escape the base path.
func (s *FS) GenerateKey(patientID int, filename string) string {
	ts := time.Now().UTC().Format("20060102T150405Z")
	id := uuid.New()
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join("patients", fmt.Sprintf("%d", patientID), fmt.Sprintf("%s-%s%s", ts, hex.EncodeToString(id[:]), ext))
}

func (s *FS) Save(_ context.Context, key string, content []byte) (string, error) {
	dst := filepath.Join(s.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create key dir: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, bytes.NewReader(content)); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	abs, err := filepath.Abs(dst)
	if err != nil {
		return dst, nil
	}
	return abs, nil
}

func (s *FS) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.WrapKind(common.ErrNotFound, "open stored object", err)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}
