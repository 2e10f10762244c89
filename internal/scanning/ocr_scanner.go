package scanning

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/zombor/receipt-extract/internal/ocr"
	"github.com/zombor/receipt-extract/internal/textlayer"
)

// Recognizer turns a document on disk into text.
type Recognizer interface {
	Recognize(ctx context.Context, path string, kind ocr.Kind) ocr.Recognition
}

// OCRConfig configures the OCR scanner.
type OCRConfig struct {
	// WorkDir holds the per-run workspaces. Empty means the system temp dir.
	WorkDir string

	// ArtifactDir keeps a copy of every OCR output PDF. Empty disables it.
	ArtifactDir string
}

// OCR implements Scanner on top of an external OCR toolchain.
type OCR struct {
	recognizer  Recognizer
	workDir     string
	artifactDir string
	logger      *slog.Logger
}

// NewOCR creates a new OCR scanner
func NewOCR(recognizer Recognizer, cfg OCRConfig, logger *slog.Logger) (*OCR, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, dir := range []string{cfg.WorkDir, cfg.ArtifactDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return &OCR{
		recognizer:  recognizer,
		workDir:     cfg.WorkDir,
		artifactDir: cfg.ArtifactDir,
		logger:      logger,
	}, nil
}

// Scan writes the document into a private workspace, recognizes it and
// parses the text. The workspace is removed before Scan returns.
func (o *OCR) Scan(ctx context.Context, doc Document) Result {
	logger := o.logger.With("kind", string(doc.Kind), "file_size", len(doc.Data))

	if !doc.Kind.Supported() {
		logger.Warn("unsupported document kind")
		return degraded(fmt.Sprintf("unsupported document kind %q", doc.Kind))
	}

	dir, err := os.MkdirTemp(o.workDir, "scan-*")
	if err != nil {
		logger.Error("Failed to create workspace", "error", err)
		return degraded(fmt.Sprintf("creating workspace: %v", err))
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("Failed to remove workspace", "dir", dir, "error", err)
		}
	}()

	path := filepath.Join(dir, "document"+doc.Kind.Ext())
	if err := os.WriteFile(path, doc.Data, 0600); err != nil {
		logger.Error("Failed to write document", "error", err)
		return degraded(fmt.Sprintf("writing document: %v", err))
	}

	rec := o.recognizer.Recognize(ctx, path, doc.Kind)

	result := Parse(rec.Text)
	result.Warnings = append(result.Warnings, rec.Warnings...)
	if rec.OutputPath != "" && o.artifactDir != "" {
		artifact, err := o.preserve(rec.OutputPath)
		if err != nil {
			logger.Warn("Failed to preserve OCR output", "error", err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("preserving OCR output: %v", err))
		} else {
			result.OCRArtifact = artifact
		}
	}

	logger.Info("Document scanned",
		"method", string(rec.Method),
		"outcome", rec.Outcome.String(),
		"missing_fields", len(result.Missing()),
		"items", len(result.Items),
	)
	return result
}

// Close closes the scanner and releases resources
func (o *OCR) Close() error {
	return nil
}

// preserve copies the OCR output out of the workspace under a unique name.
func (o *OCR) preserve(src string) (string, error) {
	dst := filepath.Join(o.artifactDir, uuid.NewString()+"_ocr.pdf")

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("opening OCR output: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("creating artifact: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("copying artifact: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("closing artifact: %w", err)
	}
	return dst, nil
}

func degraded(warning string) Result {
	result := Parse(textlayer.Text{})
	result.Warnings = []string{warning}
	return result
}
