package ingest

import (
	"path/filepath"
	"strings"

	"github.com/medst/docingest/constants"
)

// AllowedExt reports whether a file extension is in the ingestible set.
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden reports whether a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
