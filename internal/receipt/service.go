package receipt

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/zombor/receipt-extract/internal/ocr"
	"github.com/zombor/receipt-extract/internal/scanning"
)

// ErrUnsupportedMediaType is returned for documents that are neither PDF nor
// a supported image format
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// reviewFields must all be present for a receipt to be trusted as is
var reviewFields = []scanning.Field{
	scanning.FieldBrand,
	scanning.FieldDate,
	scanning.FieldTotal,
}

// IDGenerator generates unique IDs for receipts
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles receipt operations
type Service struct {
	db          DB
	scanner     scanning.Scanner
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource

	// one extraction per document at a time
	inflight singleflight.Group
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, scanner scanning.Scanner, storage Storage) *Service {
	return NewServiceWithDeps(db, scanner, storage, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	reUnsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	reMultiSpace     = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)

	base = reUnsafeFilename.ReplaceAllString(base, "")
	base = strings.TrimSpace(reMultiSpace.ReplaceAllString(base, " "))

	// Truncate to reasonable length (50 chars for base, plus extension)
	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "receipt"
	}
	return base + ext
}

// resolveKind decides the media kind from the declared content type, then
// the file name, then the content itself.
func resolveKind(filename string, data []byte, contentType string) ocr.Kind {
	if kind := ocr.ParseKind(contentType); kind != ocr.KindUnknown {
		return kind
	}
	if kind := ocr.KindFromExt(filename); kind != ocr.KindUnknown {
		return kind
	}
	return ocr.DetectKind(data)
}

func documentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ProcessReceipt stores a document, extracts its receipt and saves it. A
// document that was processed before returns the existing receipt; concurrent
// calls for the same document share one extraction.
func (s *Service) ProcessReceipt(ctx context.Context, filename string, data []byte, contentType string) (*Receipt, error) {
	kind := resolveKind(filename, data, contentType)
	if !kind.Supported() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, contentType)
	}

	hash := documentHash(data)
	v, err, shared := s.inflight.Do(hash, func() (any, error) {
		return s.process(ctx, hash, filename, data, kind)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("Shared extraction with a concurrent upload", "hash", hash)
	}
	return v.(*Receipt), nil
}

func (s *Service) process(ctx context.Context, hash, filename string, data []byte, kind ocr.Kind) (*Receipt, error) {
	existing, err := s.db.FindByHash(hash)
	if err == nil {
		slog.Info("Document already processed", "filename", filename, "receipt_id", existing.ID)
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("looking up document: %w", err)
	}

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	savedPath, err := s.storage.Save(hash+kind.Ext(), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	result := s.scanner.Scan(ctx, scanning.Document{Data: data, Kind: kind})

	missing := result.Missing()
	receipt := &Receipt{
		ID:            id,
		DocumentHash:  hash,
		Filename:      savedPath,
		OriginalName:  sanitizeFilename(filename),
		ContentType:   kind.ContentType(),
		Result:        result,
		NeedsReview:   needsReview(result),
		MissingFields: missing,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if receipt.NeedsReview {
		slog.Warn("Receipt needs review",
			"filename", filename,
			"content_type", receipt.ContentType,
			"file_size", len(data),
			"missing", missing,
			"items", len(result.Items),
		)
	}

	// Save to database
	if err := s.db.SaveReceipt(receipt); err != nil {
		// Clean up file if database save fails
		if delErr := s.storage.Delete(savedPath); delErr != nil {
			slog.Warn("Failed to delete file", "filename", savedPath, "error", delErr)
		}
		return nil, fmt.Errorf("saving receipt to database: %w", err)
	}

	return receipt, nil
}

func needsReview(result scanning.Result) bool {
	if len(result.Items) == 0 {
		return true
	}
	for _, field := range reviewFields {
		if !result.Has(field) {
			return true
		}
	}
	return false
}

// GetReceipt retrieves a receipt by ID
func (s *Service) GetReceipt(id string) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return receipt, nil
}

// ListReceipts returns all receipts, newest purchase first. Receipts without
// a date come last, newest upload first.
func (s *Service) ListReceipts() ([]*Receipt, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	sort.SliceStable(receipts, func(i, j int) bool {
		a, b := receipts[i], receipts[j]
		switch {
		case a.Date != nil && b.Date != nil && !a.Date.Equal(b.Date.Time):
			return a.Date.After(b.Date.Time)
		case a.Date != nil && b.Date == nil:
			return true
		case a.Date == nil && b.Date != nil:
			return false
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return receipts, nil
}

// DeleteReceipt removes a receipt and its file
func (s *Service) DeleteReceipt(id string) error {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return fmt.Errorf("getting receipt for deletion: %w", err)
	}

	// Delete file
	if err := s.storage.Delete(receipt.Filename); err != nil {
		// Log error but continue with database deletion
		slog.Warn("Failed to delete file", "filename", receipt.Filename, "error", err)
	}

	// Delete from database
	if err := s.db.DeleteReceipt(id); err != nil {
		return fmt.Errorf("deleting receipt from database: %w", err)
	}
	return nil
}

// GetReceiptFile retrieves the file data for a receipt
func (s *Service) GetReceiptFile(id string) ([]byte, string, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt: %w", err)
	}

	data, err := s.storage.Get(receipt.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}

	return data, receipt.ContentType, nil
}

// Summary aggregates every stored receipt into spending totals
func (s *Service) Summary() (*Summary, error) {
	receipts, err := s.ListReceipts()
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		TotalReceipts: len(receipts),
		Receipts:      make([]ReceiptSummary, 0, len(receipts)),
	}
	spent := summary.TotalSpent.Decimal
	for _, r := range receipts {
		summary.TotalItems += len(r.Items)
		if r.Total != nil {
			spent = spent.Add(r.Total.Decimal)
		}
		if r.NeedsReview {
			summary.NeedsReview++
		}
		summary.Receipts = append(summary.Receipts, ReceiptSummary{
			ID:    r.ID,
			Store: r.Store(),
			Date:  r.Date,
			Total: r.Total,
			Items: len(r.Items),
		})
	}
	summary.TotalSpent = scanning.NewAmount(spent.Round(2))
	return summary, nil
}
