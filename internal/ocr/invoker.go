package ocr

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zombor/receipt-extract/internal/textlayer"
)

// Config controls the external OCR tools.
type Config struct {
	// OCRmyPDF is the ocrmypdf executable.
	OCRmyPDF string

	// Converter is the ImageMagick executable turning images into PDFs.
	Converter string

	// Languages is the tesseract language list, e.g. "deu+eng".
	Languages string

	// Timeout bounds one whole recognition. Zero disables it.
	Timeout time.Duration

	Deskew bool
	Clean  bool
}

// DefaultConfig returns the configuration tuned for German receipts.
func DefaultConfig() Config {
	return Config{
		OCRmyPDF:  "ocrmypdf",
		Converter: "convert",
		Languages: "deu+eng",
		Timeout:   2 * time.Minute,
		Deskew:    true,
		Clean:     true,
	}
}

// TextReader reads the embedded text layer of a PDF.
type TextReader interface {
	ReadFile(path string) (textlayer.Text, error)
}

// Method names the path that produced a recognition.
type Method string

const (
	MethodPDFOCR      Method = "pdf-ocr"
	MethodPDFEmbedded Method = "pdf-embedded"
	MethodImageOCR    Method = "image-ocr"
	MethodNone        Method = "none"
)

// Recognition is the outcome of running OCR on one document. It is always
// usable: failures leave Text empty and are described in Warnings.
type Recognition struct {
	Text       textlayer.Text
	Method     Method
	Outcome    Outcome
	OutputPath string
	Warnings   []string
}

func (r *Recognition) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Invoker runs the OCR toolchain on documents stored on disk.
type Invoker struct {
	cfg    Config
	runner Runner
	reader TextReader
	logger *slog.Logger
}

// NewInvoker creates an Invoker backed by real external commands.
func NewInvoker(cfg Config, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = slog.Default()
	}
	return NewInvokerWithDeps(cfg, NewExecRunner(logger), textlayer.NewReader(logger), logger)
}

// NewInvokerWithDeps creates an Invoker with custom dependencies for testing
func NewInvokerWithDeps(cfg Config, runner Runner, reader TextReader, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invoker{
		cfg:    cfg,
		runner: runner,
		reader: reader,
		logger: logger,
	}
}

// Recognize extracts the text of the document at path. Intermediate files
// are written next to path; the OCR output PDF, if any, is reported in
// OutputPath and left for the caller. Recognize never fails.
func (i *Invoker) Recognize(ctx context.Context, path string, kind Kind) Recognition {
	if i.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.cfg.Timeout)
		defer cancel()
	}

	logger := i.logger.With("path", path, "kind", string(kind))

	var rec Recognition
	switch kind {
	case KindPDF:
		rec = i.recognizePDF(ctx, path, logger)
	case KindJPEG, KindPNG:
		rec = i.recognizeImage(ctx, path, logger)
	case KindHEIC:
		rec = i.recognizeHEIC(ctx, path, logger)
	default:
		rec = Recognition{Method: MethodNone, Outcome: OutcomeFailed}
		rec.warn("unsupported document kind %q", kind)
	}

	logger.Info("recognition finished",
		"method", string(rec.Method),
		"outcome", rec.Outcome.String(),
		"lines", len(rec.Text.Lines),
		"warnings", len(rec.Warnings),
	)
	return rec
}

func (i *Invoker) recognizePDF(ctx context.Context, path string, logger *slog.Logger) Recognition {
	out := siblingPath(path, "_ocr.pdf")
	args := append([]string{"--skip-text"}, i.ocrArgs(path, out)...)
	res := i.runner.Run(ctx, Command{Name: i.cfg.OCRmyPDF, Args: args})

	rec := Recognition{Outcome: res.Outcome}
	if res.Outcome == OutcomeSuccess {
		text, err := i.reader.ReadFile(out)
		if err == nil {
			rec.Text = text
			rec.Method = MethodPDFOCR
			rec.OutputPath = out
			return rec
		}
		logger.Warn("reading OCR output failed", "output", out, "error", err)
		rec.warn("reading OCR output: %v", err)
	} else {
		logger.Warn("OCR failed, falling back to embedded text", "outcome", res.Outcome.String(), "error", res.Err)
		rec.warn("%s: %s", i.cfg.OCRmyPDF, res.Outcome)
	}

	text, err := i.reader.ReadFile(path)
	if err != nil {
		logger.Warn("reading embedded text failed", "error", err)
		rec.warn("reading embedded text: %v", err)
		rec.Method = MethodNone
		return rec
	}
	rec.Text = text
	rec.Method = MethodPDFEmbedded
	return rec
}

func (i *Invoker) recognizeImage(ctx context.Context, path string, logger *slog.Logger) Recognition {
	tmp := siblingPath(path, "_temp.pdf")
	defer removeQuietly(tmp, logger)

	rec := Recognition{Method: MethodNone}

	res := i.runner.Run(ctx, Command{Name: i.cfg.Converter, Args: []string{path, tmp}})
	rec.Outcome = res.Outcome
	if res.Outcome != OutcomeSuccess {
		logger.Warn("image conversion failed", "outcome", res.Outcome.String(), "error", res.Err)
		rec.warn("%s: %s", i.cfg.Converter, res.Outcome)
		return rec
	}

	out := siblingPath(path, "_ocr.pdf")
	res = i.runner.Run(ctx, Command{Name: i.cfg.OCRmyPDF, Args: i.ocrArgs(tmp, out)})
	rec.Outcome = res.Outcome
	if res.Outcome != OutcomeSuccess {
		logger.Warn("image OCR failed", "outcome", res.Outcome.String(), "error", res.Err)
		rec.warn("%s: %s", i.cfg.OCRmyPDF, res.Outcome)
		return rec
	}

	text, err := i.reader.ReadFile(out)
	if err != nil {
		logger.Warn("reading OCR output failed", "output", out, "error", err)
		rec.warn("reading OCR output: %v", err)
		return rec
	}
	rec.Text = text
	rec.Method = MethodImageOCR
	rec.OutputPath = out
	return rec
}

func (i *Invoker) recognizeHEIC(ctx context.Context, path string, logger *slog.Logger) Recognition {
	decoded := siblingPath(path, "_decoded.png")
	defer removeQuietly(decoded, logger)

	if err := decodeHEIC(path, decoded); err != nil {
		logger.Warn("HEIC decoding failed", "error", err)
		rec := Recognition{Method: MethodNone, Outcome: OutcomeFailed}
		rec.warn("%v", err)
		return rec
	}

	rec := i.recognizeImage(ctx, decoded, logger)
	if rec.OutputPath != "" {
		// keep the output name tied to the original document
		out := siblingPath(path, "_ocr.pdf")
		if err := os.Rename(rec.OutputPath, out); err == nil {
			rec.OutputPath = out
		}
	}
	return rec
}

func (i *Invoker) ocrArgs(in, out string) []string {
	var args []string
	if i.cfg.Deskew {
		args = append(args, "--deskew")
	}
	if i.cfg.Clean {
		args = append(args, "--clean")
	}
	if i.cfg.Languages != "" {
		args = append(args, "--language", i.cfg.Languages)
	}
	return append(args, in, out)
}

// siblingPath replaces the extension of path with suffix.
func siblingPath(path, suffix string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + suffix
}

func removeQuietly(path string, logger *slog.Logger) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("removing intermediate file failed", "file", path, "error", err)
	}
}
