package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/grocerytrack/receipt-parser/constants"
	"github.com/grocerytrack/receipt-parser/internal/common"
)

type Config struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "eng"
	TessdataDir   string
	PSM           int // 6 is good for a uniform block of text
}

// Extractor pulls raw text out of receipt files: tesseract for images,
// the embedded text layer for PDFs, a plain read for .txt fixtures.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// ExtractText picks a strategy based on file extension and returns the raw
// (un-normalized) text. A missing or unreadable file is the one fatal case.
func (e *Extractor) ExtractText(ctx context.Context, path string) (string, error) {
	start := time.Now()
	if _, err := os.Stat(path); err != nil {
		return "", common.NewAppError("OCR_INPUT", fmt.Sprintf("stat %s", path), common.ErrInputUnavailable)
	}

	ext := constants.NormalizeExt(filepath.Ext(path))
	var (
		text   string
		method string
		err    error
	)
	switch constants.MapExtToFormat(ext) {
	case constants.IMAGE:
		text, err = e.tesseractOCR(ctx, path)
		method = "image-ocr"
	case constants.PDF:
		text, err = pdfText(path)
		method = "pdf-text"
	case constants.TXT:
		var b []byte
		b, err = os.ReadFile(path)
		text = string(b)
		method = "plain-text"
	default:
		return "", common.NewAppError("OCR_INPUT", fmt.Sprintf("unsupported extension: %q", ext), common.ErrInputUnavailable)
	}
	if err != nil {
		e.logger.Error("ocr.extract.failed", "path", path, "method", method, "error", err)
		return "", common.NewAppError("OCR_EXTRACT", "text extraction failed", common.ErrInputUnavailable)
	}

	e.logger.Info("ocr.extract.ok",
		"path", path,
		"method", method,
		"bytes", len(text),
		"confidence", heuristicConfidence(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", e.cfg.PSM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (%s)", err, truncate(string(errb), 512))
	}
	return string(out), nil
}
