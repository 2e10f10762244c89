package scanning

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zombor/receipt-extract/internal/textlayer"
)

// LineItem is one purchased article. Quantity and UnitPrice are only known
// for lines printed as "quantity x unit price".
type LineItem struct {
	Name       string           `json:"name"`
	Quantity   *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice  *Amount          `json:"unit_price,omitempty"`
	TotalPrice Amount           `json:"total_price"`
}

// Item table boundaries. Markers are tested in order on every line.
var (
	itemStartMarkers = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*\d+\s+Artikel`),
		regexp.MustCompile(`(?i)Ihre\s+Einkäufe`),
		regexp.MustCompile(`(?i)^Pos\.\s+Artikel`),
		regexp.MustCompile(`(?i)Artikelbezeichnung`),
		regexp.MustCompile(`(?i)mit Pick & Go`),
		regexp.MustCompile(`(?i)UID Nr\.`),
		regexp.MustCompile(`(?i)EUR$`),
	}
	itemEndMarkers = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*SUMME\s+EUR`),
		regexp.MustCompile(`(?i)^\s*Gesamtbetrag`),
		regexp.MustCompile(`(?i)^\s*Summe\s+EUR`),
		regexp.MustCompile(`(?i)^\s*zu zahlen`),
		regexp.MustCompile(`^-{6,}`),
	}
)

var (
	reItemNoise = regexp.MustCompile(`(?i)www\.|http|^EUR$`)

	// name, price and VAT class letter
	reItemTaxed = regexp.MustCompile(`^(.+?)\s+(\d+[,.]\d{1,2})\s*([A-Z])$`)

	// name, quantity x unit price, line total
	reItemQuantity = regexp.MustCompile(`^(.+?)\s+(\d+(?:[,.]\d+)?)\s*[xX]\s*(\d+[,.]\d{2})\s+(\d+[,.]\d{2})`)

	// name and trailing price
	reItemPriced = regexp.MustCompile(`^(.+?)\s+(\d+[,.]\d{2})$`)

	// annotations printed in price position that are not purchases
	reItemDenylist = regexp.MustCompile(`(?i)MwSt\.|Rabatt|Pfand|Steuer|Netto|Brutto`)
)

type itemState int

const (
	seekingStart itemState = iota
	seekingEnd
	parsing
	done
)

// ExtractItems finds the item table between a start and an end marker and
// parses every line of it. Without both markers there is no reliable table
// and the result is empty.
func ExtractItems(text textlayer.Text) []LineItem {
	var (
		lines      = text.Lines
		state      = seekingStart
		start, end int
		items      = []LineItem{}
	)

	for state != done {
		switch state {
		case seekingStart:
			i, ok := findMarker(lines, 0, itemStartMarkers)
			if !ok {
				state = done
				continue
			}
			start = i + 1
			state = seekingEnd
		case seekingEnd:
			// the first line of the table is never its end
			i, ok := findMarker(lines, start+1, itemEndMarkers)
			if !ok {
				state = done
				continue
			}
			end = i
			state = parsing
		case parsing:
			for _, line := range lines[start:end] {
				if item, ok := parseItemLine(line); ok {
					items = append(items, item)
				}
			}
			state = done
		}
	}
	return items
}

func findMarker(lines []string, from int, markers []*regexp.Regexp) (int, bool) {
	for i := from; i < len(lines); i++ {
		for _, re := range markers {
			if re.MatchString(lines[i]) {
				return i, true
			}
		}
	}
	return 0, false
}

func parseItemLine(line string) (LineItem, bool) {
	line = strings.TrimSpace(line)
	if line == "" || reItemNoise.MatchString(line) {
		return LineItem{}, false
	}

	if m := reItemTaxed.FindStringSubmatch(line); m != nil {
		total, ok := parseDecimal(m[2])
		if !ok {
			return LineItem{}, false
		}
		return LineItem{Name: strings.TrimSpace(m[1]), TotalPrice: NewAmount(total)}, true
	}

	if m := reItemQuantity.FindStringSubmatch(line); m != nil {
		qty, ok1 := parseDecimal(m[2])
		unit, ok2 := parseDecimal(m[3])
		total, ok3 := parseDecimal(m[4])
		if !ok1 || !ok2 || !ok3 {
			return LineItem{}, false
		}
		unitPrice := NewAmount(unit)
		return LineItem{
			Name:       strings.TrimSpace(m[1]),
			Quantity:   &qty,
			UnitPrice:  &unitPrice,
			TotalPrice: NewAmount(total),
		}, true
	}

	if m := reItemPriced.FindStringSubmatch(line); m != nil {
		if reItemDenylist.MatchString(m[1]) {
			return LineItem{}, false
		}
		total, ok := parseDecimal(m[2])
		if !ok {
			return LineItem{}, false
		}
		return LineItem{Name: strings.TrimSpace(m[1]), TotalPrice: NewAmount(total)}, true
	}

	return LineItem{}, false
}
