package textlayer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Reader extracts the embedded text layer of PDF files.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a Reader. A nil logger falls back to slog.Default().
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger}
}

// ReadFile returns the text of every page of the PDF at path, pages joined by
// a newline. A page without extractable text contributes an empty line.
func (r *Reader) ReadFile(path string) (Text, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return Text{}, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	pages := make([]string, doc.NumPage())
	for i := range pages {
		text, err := doc.Text(i)
		if err != nil {
			r.logger.Warn("page text unavailable", "path", path, "page", i, "error", err)
			continue
		}
		pages[i] = strings.TrimRight(text, "\r\n")
	}

	return FromString(strings.Join(pages, "\n")), nil
}
