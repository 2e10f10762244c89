package scanning

import (
	"golang.org/x/sync/errgroup"

	"github.com/zombor/receipt-extract/internal/textlayer"
)

// Result is the structured receipt extracted from one document.
type Result struct {
	Fields
	Items   []LineItem `json:"items"`
	RawText string     `json:"raw_text"`

	// OCRArtifact is the preserved OCR output PDF, if any.
	OCRArtifact string `json:"ocr_artifact,omitempty"`

	// Warnings describe recoverable problems met along the way.
	Warnings []string `json:"warnings,omitempty"`
}

// Parse runs the field and line-item extractors over text. Both only read
// the text, so they run side by side.
func Parse(text textlayer.Text) Result {
	var (
		fields Fields
		items  []LineItem
		g      errgroup.Group
	)
	g.Go(func() error {
		fields = ExtractFields(text)
		return nil
	})
	g.Go(func() error {
		items = ExtractItems(text)
		return nil
	})
	_ = g.Wait()

	return Result{
		Fields:  fields,
		Items:   items,
		RawText: text.String(),
	}
}

// Empty reports whether nothing at all was extracted.
func (r Result) Empty() bool {
	return len(r.Items) == 0 && len(r.Missing()) == len(AllFields)
}
