package textlayer

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reCRLF     = regexp.MustCompile(`\r\n?`)
	reFormFeed = regexp.MustCompile(`[\f\v]`)
	reHSpace   = regexp.MustCompile(`[\t\x{00A0}\x{202F}]`)
)

// Normalize canonicalizes OCR output so the extractors see one spelling of
// every character and one kind of line break. Line positions are kept: blank
// lines survive, only trailing whitespace is dropped.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	// OCR engines mix composed and decomposed umlauts
	s = norm.NFC.String(s)
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reFormFeed.ReplaceAllString(s, "")
	s = reHSpace.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
