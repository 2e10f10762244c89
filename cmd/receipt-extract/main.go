package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"golang.org/x/sync/errgroup"

	"github.com/zombor/receipt-extract/internal/ocr"
	"github.com/zombor/receipt-extract/internal/receipt"
	"github.com/zombor/receipt-extract/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

var errFilesFailed = errors.New("one or more files could not be processed")

// config holds everything main collects from flags and environment
type config struct {
	dbPath      string
	storagePath string
	ocr         ocr.Config
	workDir     string
	artifactDir string
	workers     int
	summary     bool
}

// fileOutput is printed once per input file
type fileOutput struct {
	File    string           `json:"file"`
	Receipt *receipt.Receipt `json:"receipt,omitempty"`
	Result  *scanning.Result `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	defaults := ocr.DefaultConfig()

	fs := ff.NewFlagSet("receipt-extract")
	var (
		dbPath      = fs.StringLong("db", "", "Database file path; enables deduplication and review tracking")
		storagePath = fs.StringLong("storage", "./receipts", "Storage directory path (used with --db)")
		ocrmypdf    = fs.StringLong("ocrmypdf", defaults.OCRmyPDF, "ocrmypdf executable")
		converter   = fs.StringLong("converter", defaults.Converter, "ImageMagick executable converting images to PDF")
		languages   = fs.StringLong("lang", defaults.Languages, "OCR languages")
		timeout     = fs.StringLong("timeout", defaults.Timeout.String(), "Timeout for recognizing one document (0 disables)")
		noDeskew    = fs.BoolLong("no-deskew", "Do not straighten pages before OCR")
		noClean     = fs.BoolLong("no-clean", "Do not clean pages before OCR")
		workDir     = fs.StringLong("work-dir", "", "Directory for temporary workspaces (default: system temp dir)")
		artifactDir = fs.StringLong("artifact-dir", "", "Directory keeping a copy of every OCR output PDF")
		workers     = fs.IntLong("workers", runtime.NumCPU(), "Number of documents processed in parallel")
		logLevel    = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		logJSON     = fs.BoolLong("log-json", "Log as JSON instead of text")
		summary     = fs.BoolLong("summary", "Print the spending summary of the database and exit")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_EXTRACT"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	logger, err := newLogger(os.Stderr, *logLevel, *logJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	ocrTimeout, err := time.ParseDuration(*timeout)
	if err != nil {
		slog.Error("Invalid timeout", "timeout", *timeout, "error", err)
		os.Exit(1)
	}

	cfg := config{
		dbPath:      *dbPath,
		storagePath: *storagePath,
		ocr: ocr.Config{
			OCRmyPDF:  *ocrmypdf,
			Converter: *converter,
			Languages: *languages,
			Timeout:   ocrTimeout,
			Deskew:    !*noDeskew,
			Clean:     !*noClean,
		},
		workDir:     *workDir,
		artifactDir: *artifactDir,
		workers:     *workers,
		summary:     *summary,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, fs.GetArgs(), os.Stdout); err != nil {
		if !errors.Is(err, errFilesFailed) {
			fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		}
		slog.Error("Failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func newLogger(w io.Writer, level string, asJSON bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if asJSON {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func run(ctx context.Context, cfg config, files []string, out io.Writer) error {
	if cfg.summary && cfg.dbPath == "" {
		return errors.New("--summary requires --db")
	}
	if !cfg.summary && len(files) == 0 {
		return errors.New("no input files")
	}

	invoker := ocr.NewInvoker(cfg.ocr, slog.Default())
	scanner, err := scanning.NewOCR(invoker, scanning.OCRConfig{
		WorkDir:     cfg.workDir,
		ArtifactDir: cfg.artifactDir,
	}, slog.Default())
	if err != nil {
		return fmt.Errorf("initializing scanner: %w", err)
	}
	defer scanner.Close()

	var service *receipt.Service
	if cfg.dbPath != "" {
		slog.Info("Initializing database...", "path", cfg.dbPath)
		db, err := receipt.NewBoltDB(cfg.dbPath)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		defer db.Close()

		store, err := receipt.NewLocalStorage(cfg.storagePath)
		if err != nil {
			return fmt.Errorf("initializing storage: %w", err)
		}
		service = receipt.NewService(db, scanner, store)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if cfg.summary {
		summary, err := service.Summary()
		if err != nil {
			return fmt.Errorf("building summary: %w", err)
		}
		return enc.Encode(summary)
	}

	outputs := make([]fileOutput, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.workers, 1))
	for i, file := range files {
		g.Go(func() error {
			outputs[i] = processFile(ctx, scanner, service, file)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, o := range outputs {
		if o.Error != "" {
			failed++
		}
		if err := enc.Encode(o); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errFilesFailed, failed, len(files))
	}
	return nil
}

// processFile never fails; problems end up in the output's Error.
func processFile(ctx context.Context, scanner scanning.Scanner, service *receipt.Service, file string) fileOutput {
	output := fileOutput{File: file}

	data, err := os.ReadFile(file)
	if err != nil {
		slog.Error("Failed to read file", "file", file, "error", err)
		output.Error = fmt.Sprintf("reading file: %v", err)
		return output
	}

	kind := ocr.KindFromExt(file)
	if kind == ocr.KindUnknown {
		kind = ocr.DetectKind(data)
	}

	if service != nil {
		rec, err := service.ProcessReceipt(ctx, filepath.Base(file), data, kind.ContentType())
		if err != nil {
			slog.Error("Failed to process receipt", "file", file, "error", err)
			output.Error = err.Error()
			return output
		}
		output.Receipt = rec
		return output
	}

	result := scanner.Scan(ctx, scanning.Document{Data: data, Kind: kind})
	output.Result = &result
	return output
}
