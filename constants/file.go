package constants

import "strings"

// DocumentKind is the detected document format, derived from the filename suffix.
type DocumentKind string

// Stable values (store these exact strings in DB).
const (
	KindPDF     DocumentKind = "pdf"
	KindDocx    DocumentKind = "docx"
	KindImage   DocumentKind = "image"
	KindUnknown DocumentKind = "unknown"
)

// AllowedExtensions holds the file extensions accepted for document ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"docx": {},
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"tif":  {},
	"tiff": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToKind maps a file extension to its DocumentKind.
// Unrecognized extensions map to KindUnknown.
func MapExtToKind(ext string) DocumentKind {
	switch NormalizeExt(ext) {
	case "pdf":
		return KindPDF
	case "docx":
		return KindDocx
	case "png", "jpg", "jpeg", "tif", "tiff":
		return KindImage
	default:
		return KindUnknown
	}
}
