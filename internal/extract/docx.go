package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/medst/docingest/internal/common"
)

// DocxExtractor reads the package as a paragraph sequence from
// word/document.xml and joins non-blank paragraphs with newlines,
// preserving paragraph order.
type DocxExtractor struct {
	logger *slog.Logger
}

func NewDocxExtractor(logger *slog.Logger) *DocxExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocxExtractor{logger: logger}
}

func (e *DocxExtractor) Extract(ctx context.Context, content []byte) (Result, error) {
	start := time.Now()

	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return Result{}, common.NewAppError("DECODE_ERROR", fmt.Sprintf("open docx archive: %v", err), common.ErrDecode)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return Result{}, common.NewAppError("DECODE_ERROR", "word/document.xml not found in archive", common.ErrDecode)
	}

	rc, err := docFile.Open()
	if err != nil {
		return Result{}, common.NewAppError("DECODE_ERROR", fmt.Sprintf("open document.xml: %v", err), common.ErrDecode)
	}
	defer rc.Close()

	paragraphs, err := readParagraphs(rc)
	if err != nil {
		return Result{}, common.NewAppError("DECODE_ERROR", fmt.Sprintf("parse document.xml: %v", err), common.ErrDecode)
	}

	return Result{
		Text:     strings.Join(paragraphs, "\n"),
		Pages:    1,
		Method:   "docx",
		Duration: time.Since(start),
	}, nil
}

// readParagraphs walks the WordprocessingML token stream and collects the
// text of each <w:p> element, discarding purely whitespace paragraphs.
func readParagraphs(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)
	var paragraphs []string
	var current strings.Builder
	var inParagraph bool

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed XML anywhere in the stream is a decode failure, even
			// when earlier paragraphs parsed cleanly.
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "p" {
				inParagraph = true
				current.Reset()
			}
		case xml.CharData:
			if inParagraph {
				current.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "p" && inParagraph {
				inParagraph = false
				if text := current.String(); strings.TrimSpace(text) != "" {
					paragraphs = append(paragraphs, text)
				}
			}
		}
	}
	return paragraphs, nil
}
