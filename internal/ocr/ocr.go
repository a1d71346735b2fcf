// Package ocr recovers text from scanned pages by shelling out to pdftoppm
// and tesseract. OCR is a collaborator behind a port: when the binaries are
// missing or fail, callers degrade to a warning, never an abort.
package ocr

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"clarabill/internal/config"
)

// Runner executes external commands. Swapped for a stub in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// Extractor renders a PDF page to PNG and runs tesseract over it. Implements
// port.OCRProvider.
type Extractor struct {
	cfg    config.OCRConfig
	runner Runner
}

// NewExtractor creates an Extractor using the real exec runner.
func NewExtractor(cfg config.OCRConfig) *Extractor {
	return &Extractor{cfg: cfg, runner: execRunner{}}
}

// NewExtractorWithRunner creates an Extractor with a custom command runner.
func NewExtractorWithRunner(cfg config.OCRConfig, runner Runner) *Extractor {
	return &Extractor{cfg: cfg, runner: runner}
}

// ExtractText OCRs a single page of pdfPath. Page numbers are 1-based.
func (e *Extractor) ExtractText(ctx context.Context, pdfPath string, page int) (string, error) {
	if e.cfg.TimeoutSecs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(e.cfg.TimeoutSecs)*time.Second)
		defer cancel()
	}

	tmpDir, err := os.MkdirTemp("", "clarabill-ocr-*")
	if err != nil {
		return "", fmt.Errorf("creating ocr temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			log.Printf("ocr.Extractor: failed to remove temp dir %s: %v", tmpDir, err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	_, stderr, err := e.runner.Run(ctx, e.cfg.Pdftoppm,
		"-f", fmt.Sprintf("%d", page),
		"-l", fmt.Sprintf("%d", page),
		"-r", fmt.Sprintf("%d", e.cfg.DPI),
		"-png", pdfPath, prefix)
	if err != nil {
		return "", fmt.Errorf("pdftoppm page %d: %w (%s)", page, err, truncate(string(stderr), 512))
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", fmt.Errorf("pdftoppm produced no image for page %d", page)
	}

	stdout, stderr, err := e.runner.Run(ctx, e.cfg.Tesseract,
		matches[0], "stdout", "-l", e.cfg.Languages, "--psm", "6")
	if err != nil {
		return "", fmt.Errorf("tesseract page %d: %w (%s)", page, err, truncate(string(stderr), 512))
	}
	return string(stdout), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
