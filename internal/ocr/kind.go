package ocr

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// Kind is the media kind of an input document.
type Kind string

const (
	KindUnknown Kind = ""
	KindPDF     Kind = "pdf"
	KindJPEG    Kind = "jpeg"
	KindPNG     Kind = "png"
	KindHEIC    Kind = "heic" // HEIC and HEIF photos, common on iPhones
)

// ParseKind maps a MIME content type to a Kind. Parameters such as charset
// are ignored.
func ParseKind(contentType string) Kind {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch mediaType {
	case "application/pdf":
		return KindPDF
	case "image/jpeg", "image/jpg":
		return KindJPEG
	case "image/png":
		return KindPNG
	case "image/heic", "image/heif":
		return KindHEIC
	}
	return KindUnknown
}

// KindFromExt maps a file name's extension to a Kind.
func KindFromExt(name string) Kind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return KindPDF
	case ".jpg", ".jpeg":
		return KindJPEG
	case ".png":
		return KindPNG
	case ".heic", ".heif":
		return KindHEIC
	}
	return KindUnknown
}

// DetectKind sniffs the kind from the leading bytes of a document.
func DetectKind(data []byte) Kind {
	if isHEICFormat(data) {
		return KindHEIC
	}
	return ParseKind(http.DetectContentType(data))
}

// Ext returns the file extension used when the document is written to disk.
func (k Kind) Ext() string {
	switch k {
	case KindPDF:
		return ".pdf"
	case KindJPEG:
		return ".jpg"
	case KindPNG:
		return ".png"
	case KindHEIC:
		return ".heic"
	}
	return ""
}

// ContentType returns the canonical MIME type of the kind.
func (k Kind) ContentType() string {
	switch k {
	case KindPDF:
		return "application/pdf"
	case KindJPEG:
		return "image/jpeg"
	case KindPNG:
		return "image/png"
	case KindHEIC:
		return "image/heic"
	}
	return ""
}

// Supported reports whether documents of this kind can be recognized.
func (k Kind) Supported() bool {
	return k.Ext() != ""
}
