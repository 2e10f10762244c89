package receipt

import (
	"time"

	"github.com/zombor/receipt-extract/internal/scanning"
)

// Receipt is a processed document together with everything extracted from it
type Receipt struct {
	ID           string `json:"id"`
	DocumentHash string `json:"document_hash"` // SHA-256 of the uploaded bytes
	Filename     string `json:"filename"`      // path inside Storage
	OriginalName string `json:"original_name"`
	ContentType  string `json:"content_type"`

	scanning.Result

	NeedsReview   bool             `json:"needs_review"`
	MissingFields []scanning.Field `json:"missing_fields,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// Store returns the name the receipt is listed under: the merchant name if
// known, else the brand.
func (r *Receipt) Store() string {
	if r.MerchantName != nil {
		return *r.MerchantName
	}
	if r.Brand != nil {
		return *r.Brand
	}
	return ""
}

// ReceiptSummary is one line of a spending summary
type ReceiptSummary struct {
	ID    string           `json:"id"`
	Store string           `json:"store,omitempty"`
	Date  *scanning.Date   `json:"date,omitempty"`
	Total *scanning.Amount `json:"total,omitempty"`
	Items int              `json:"items"`
}

// Summary aggregates all stored receipts
type Summary struct {
	TotalReceipts int              `json:"total_receipts"`
	TotalItems    int              `json:"total_items"`
	TotalSpent    scanning.Amount  `json:"total_spent"`
	NeedsReview   int              `json:"needs_review"`
	Receipts      []ReceiptSummary `json:"receipts"` // newest first
}
