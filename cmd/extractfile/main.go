// Command extractfile runs the text extraction stage against a local file and
// reports the quality estimate. Handy for debugging OCR output on a document
// that came out garbled in the pipeline.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chavannishanthrao/AutoPOProcessor/constants"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/extract"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "extractfile <path-to-document>")
		os.Exit(2)
	}
	path := os.Args[1]

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}

	filename := filepath.Base(path)
	if constants.DetectFormat(filename, "") == "" {
		logger.Error("unsupported document type", "filename", filename)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	extractor := extract.NewExtractor(extract.Config{}, logger)

	start := time.Now()
	text := extractor.ExtractText(ctx, data, "", filename)
	quality := extract.CheckQuality(text)

	logger.Info("extraction complete",
		"filename", filename,
		"bytes", len(data),
		"text_length", len(text),
		"valid", quality.Valid,
		"confidence", quality.Confidence,
		"issues", quality.Issues,
		"elapsed_ms", time.Since(start).Milliseconds())

	os.Stdout.WriteString(text + "\n")
}
