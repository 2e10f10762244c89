package scanning

import (
	"regexp"
	"strings"
)

// rule extracts one field. Variants are tried in order; the first variant
// that matches decides the field, and a capture its parser rejects leaves the
// field absent.
type rule[T any] struct {
	variants []*regexp.Regexp
	parse    func(match []string) (T, bool)
}

func (r rule[T]) apply(text string) *T {
	for _, re := range r.variants {
		match := re.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		v, ok := r.parse(match)
		if !ok {
			return nil
		}
		return &v
	}
	return nil
}

// brand is a retail chain recognized by name.
type brand struct {
	name     string
	token    *regexp.Regexp
	merchant *regexp.Regexp
}

func newBrand(name string) brand {
	quoted := regexp.QuoteMeta(name)
	return brand{
		name:     name,
		token:    regexp.MustCompile(`(?i)` + quoted),
		merchant: regexp.MustCompile(`(?im)\b` + quoted + `[ \t]+([A-Za-z0-9äöüÄÖÜß][A-Za-z0-9äöüÄÖÜß .\-]*?)[ \t]*$`),
	}
}

// knownBrands is the detection priority: when several chain names occur the
// first one listed wins.
var knownBrands = []brand{
	newBrand("REWE"),
	newBrand("Kaufland"),
	newBrand("ALDI"),
	newBrand("LIDL"),
	newBrand("Edeka"),
}

var brandRule = rule[string]{
	variants: brandPatterns(func(b brand) *regexp.Regexp { return b.token }),
	parse: func(m []string) (string, bool) {
		for _, b := range knownBrands {
			if strings.EqualFold(b.name, m[0]) {
				return b.name, true
			}
		}
		return "", false
	},
}

var merchantNameRule = rule[string]{
	variants: brandPatterns(func(b brand) *regexp.Regexp { return b.merchant }),
	parse:    trimmed(1),
}

var storeAddressRule = rule[string]{
	variants: []*regexp.Regexp{
		regexp.MustCompile(`(?m)^([A-Za-zäöüÄÖÜß][A-Za-zäöüÄÖÜß .\-]* \d+[a-z]?)[ ,]*\n(\d{5}[ \t]+[A-Za-zäöüÄÖÜß][A-Za-zäöüÄÖÜß .\-]*?)[ \t]*$`),
	},
	parse: func(m []string) (string, bool) {
		street, city := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		return street + ", " + city, street != "" && city != ""
	},
}

var telephoneRule = rule[string]{
	variants: []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:Telefon|Tel\.?)[: \t]+([+0-9][0-9 \t/\-+]*)`),
	},
	parse: withDigit(trimmed(1)),
}

var taxIDRule = rule[string]{
	variants: []*regexp.Regexp{
		regexp.MustCompile(`(?i:\b(?:UID[- ]Nr\.?|USt-IdNr\.?|USt-ID|Steuernummer|St\.?-Nr\.?))[: \t.]+([A-Z0-9][A-Z0-9 /]*\d[A-Z0-9/]*)`),
	},
	parse: withDigit(trimmed(1)),
}

var marketIDRule = rule[string]{
	variants: []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:Markt-ID|Filial-ID|Filiale|Markt)[: \t]+(\d+)\b`),
	},
	parse: trimmed(1),
}

var receiptNrRule = rule[string]{
	variants: []*regexp.Regexp{
		regexp.MustCompile(`(?i:\b(?:Bon-Nr|Bon|Beleg))[: \t.]+([A-Z0-9\-]*\d[A-Z0-9\-]*)`),
	},
	parse: trimmed(1),
}

// documentNrRule only applies when no receipt number was found.
var documentNrRule = rule[string]{
	variants: []*regexp.Regexp{
		regexp.MustCompile(`(?i:\b(?:Beleg-Nr|Belegnummer))[: \t.]+([A-Z0-9\-]*\d[A-Z0-9\-]*)`),
	},
	parse: trimmed(1),
}

var dateRule = rule[Date]{
	variants: []*regexp.Regexp{
		regexp.MustCompile(`\b(\d{1,2})[.\-](\d{1,2})[.\-](\d{2,4})\b`),
	},
	parse: func(m []string) (Date, bool) {
		return parseDate(m[1], m[2], m[3])
	},
}

var timeRule = rule[string]{
	variants: []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\b(?:\s*Uhr)?`),
	},
	parse: func(m []string) (string, bool) {
		return parseClock(m[1], m[2])
	},
}

var paymentMethodRule = rule[PaymentMethod]{
	variants: paymentPatterns(),
	parse: func(m []string) (PaymentMethod, bool) {
		token := strings.Join(strings.Fields(m[0]), " ")
		for _, pm := range paymentMethods {
			if strings.EqualFold(string(pm), token) {
				return pm, true
			}
		}
		return "", false
	},
}

var totalRule = rule[Amount]{
	variants: []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:SUMME|Gesamtbetrag|Gesamt|Total)[: \t]*(?:EUR|€)?[: \t]*(\d[0-9.,]*[.,]\d+)`),
	},
	parse: func(m []string) (Amount, bool) {
		return parseAmount(m[1])
	},
}

func brandPatterns(pick func(brand) *regexp.Regexp) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(knownBrands))
	for _, b := range knownBrands {
		out = append(out, pick(b))
	}
	return out
}

func paymentPatterns() []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(paymentMethods))
	for _, pm := range paymentMethods {
		words := strings.Fields(string(pm))
		for i := range words {
			words[i] = regexp.QuoteMeta(words[i])
		}
		out = append(out, regexp.MustCompile(`(?i)\b`+strings.Join(words, `\s+`)+`\b`))
	}
	return out
}

func trimmed(group int) func([]string) (string, bool) {
	return func(m []string) (string, bool) {
		v := strings.TrimSpace(m[group])
		return v, v != ""
	}
}

func withDigit(parse func([]string) (string, bool)) func([]string) (string, bool) {
	return func(m []string) (string, bool) {
		v, ok := parse(m)
		if !ok || !strings.ContainsAny(v, "0123456789") {
			return "", false
		}
		return v, true
	}
}
