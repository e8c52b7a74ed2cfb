package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"

	"github.com/chavannishanthrao/AutoPOProcessor/constants"
)

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit
	PSM           int    // tesseract page segmentation mode, default 6
}

// Extractor converts raw document bytes into plain text. It never returns an
// error to the caller: unsupported or corrupt input yields "" and a log entry.
// The OCR path is a single shared worker; invocations serialize through mu.
type Extractor struct {
	cfg    Config
	runner Runner
	mu     sync.Mutex
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.PSM <= 0 {
		cfg.PSM = 6
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// ExtractText picks a strategy based on the attachment's content type.
func (e *Extractor) ExtractText(ctx context.Context, data []byte, contentType, filename string) string {
	format := constants.DetectFormat(filename, contentType)
	e.logger.Debug("extract.start", "filename", filename, "content_type", contentType, "format", format, "bytes", len(data))

	switch format {
	case constants.PDF:
		text, err := pdfText(data)
		if err == nil && strings.TrimSpace(text) != "" {
			return text
		}
		// Some PDFs are scanned images; rasterize and OCR instead.
		if err != nil {
			e.logger.Warn("extract.pdf_parse_failed", "filename", filename, "error", err)
		}
		text, err = e.ocrPDF(ctx, data)
		if err != nil {
			e.logger.Error("extract.pdf_ocr_failed", "filename", filename, "error", err)
			return ""
		}
		return text
	case constants.IMAGE:
		text, err := e.ocrImage(ctx, data, filepath.Ext(filename))
		if err != nil {
			e.logger.Error("extract.image_ocr_failed", "filename", filename, "error", err)
			return ""
		}
		return text
	case constants.DOCX:
		text, err := docxText(data)
		if err != nil {
			e.logger.Error("extract.docx_failed", "filename", filename, "error", err)
			return ""
		}
		return text
	default:
		e.logger.Warn("extract.unsupported_content_type", "filename", filename, "content_type", contentType)
		return ""
	}
}

// pdfText extracts the embedded text layer of a PDF.
func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		for _, row := range rows {
			for _, word := range row.Content {
				b.WriteString(word.S)
				b.WriteString(" ")
			}
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// ocrPDF rasterizes the PDF and runs tesseract page by page.
func (e *Extractor) ocrPDF(ctx context.Context, data []byte) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	dir, err := os.MkdirTemp("", "po-ocr-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return "", err
	}

	args := []string{"-png", "-r", strconv.Itoa(e.cfg.DPI)}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-f", "1", "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, in, filepath.Join(dir, "page"))
	if _, stderr, err := e.runner.Run(ctx, e.cfg.Pdftoppm, args...); err != nil {
		return "", fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(stderr), 512))
	}

	pages, err := filepath.Glob(filepath.Join(dir, "page-*.png"))
	if err != nil || len(pages) == 0 {
		return "", fmt.Errorf("no rasterized pages")
	}
	sort.Strings(pages)

	var b strings.Builder
	for _, p := range pages {
		out, err := e.tesseract(ctx, p)
		if err != nil {
			return "", err
		}
		b.WriteString(out)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// ocrImage writes the image to a temp file and runs tesseract on it.
func (e *Extractor) ocrImage(ctx context.Context, data []byte, ext string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ext == "" {
		ext = ".png"
	}
	f, err := os.CreateTemp("", "po-ocr-*"+ext)
	if err != nil {
		return "", err
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", err
	}
	f.Close()

	return e.tesseract(ctx, f.Name())
}

func (e *Extractor) tesseract(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang, "--psm", strconv.Itoa(e.cfg.PSM)}
	out, stderr, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(stderr), 512))
	}
	return strings.TrimSpace(string(out)), nil
}
