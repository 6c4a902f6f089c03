// docingest-extract runs the extraction pipeline over a single file and
// prints the recovered fields as JSON. Nothing is stored; useful for tuning
// extraction rules against real documents.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/medst/docingest/constants"
	"github.com/medst/docingest/internal/common"
	"github.com/medst/docingest/internal/extract"
	"github.com/medst/docingest/internal/fields"
	"github.com/medst/docingest/internal/normalize"
	"github.com/medst/docingest/internal/pipeline"
)

func main() {
	showText := flag.Bool("text", false, "print the normalized text instead of fields")
	lang := flag.String("lang", "", "OCR language (default from TESS_LANG)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [-text] [-lang code] <file>\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}
	path := flag.Arg(0)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)
	cfg := common.LoadConfig()
	if *lang == "" {
		*lang = cfg.OCR.TesseractLang
	}

	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var ex extract.TextExtractor
	switch pipeline.DetectKind(path) {
	case constants.KindPDF:
		ex = extract.NewPDFExtractor(logger)
	case constants.KindDocx:
		ex = extract.NewDocxExtractor(logger)
	case constants.KindImage:
		ex = extract.NewImageExtractor(extract.ImageConfig{
			Tesseract: cfg.OCR.TesseractBin,
			Lang:      *lang,
		}, logger)
	default:
		fmt.Fprintf(os.Stderr, "unsupported file type: %s\n", path)
		os.Exit(1)
	}

	res, err := ex.Extract(context.Background(), content)
	if err != nil {
		fmt.Fprintf(os.Stderr, "extract: %v\n", err)
		os.Exit(1)
	}

	text := normalize.Text(res.Text)
	if *showText {
		fmt.Println(text)
		return
	}

	f := fields.Postprocess(fields.Extract(text))
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
