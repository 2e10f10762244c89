package textlayer

import "strings"

// Text is the recognized text of one document, split into lines in document
// order. The zero value is an empty text.
type Text struct {
	Lines []string
}

// FromString normalizes s and splits it into lines.
func FromString(s string) Text {
	s = Normalize(s)
	if s == "" {
		return Text{}
	}
	return Text{Lines: strings.Split(s, "\n")}
}

// String joins the lines with a single newline.
func (t Text) String() string {
	return strings.Join(t.Lines, "\n")
}

// Empty reports whether the text holds no visible characters.
func (t Text) Empty() bool {
	for _, l := range t.Lines {
		if strings.TrimSpace(l) != "" {
			return false
		}
	}
	return true
}
