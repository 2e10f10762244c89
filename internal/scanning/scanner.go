package scanning

import (
	"context"

	"github.com/zombor/receipt-extract/internal/ocr"
)

// Document is an input document with its declared media kind
type Document struct {
	Data []byte
	Kind ocr.Kind
}

// Scanner defines the interface for receipt scanning operations
type Scanner interface {
	// Scan extracts a receipt from a document. Problems degrade the result,
	// they are never returned.
	Scan(ctx context.Context, doc Document) Result
	// Close closes the scanner and releases resources
	Close() error
}
