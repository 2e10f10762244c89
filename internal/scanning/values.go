package scanning

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Date is a calendar date without time of day.
type Date struct {
	time.Time
}

// NewDate returns the date, or false when the parts do not form a real
// calendar day.
func NewDate(year int, month time.Month, day int) (Date, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, false
	}
	return Date{Time: t}, true
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("parsing date: %w", err)
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("parsing date: %w", err)
	}
	d.Time = t
	return nil
}

// Amount is a monetary value, always rendered with two decimal places.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

func (a Amount) String() string {
	return a.StringFixed(2)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.StringFixed(2)), nil
}

// PaymentMethod is one of the known payment tokens printed on receipts.
type PaymentMethod string

const (
	PaymentECCash          PaymentMethod = "EC-Cash"
	PaymentGirocard        PaymentMethod = "Girocard"
	PaymentKreditkarte     PaymentMethod = "Kreditkarte"
	PaymentMastercard      PaymentMethod = "Mastercard"
	PaymentVisa            PaymentMethod = "Visa"
	PaymentAmericanExpress PaymentMethod = "American Express"
	PaymentCash            PaymentMethod = "BAR"
	PaymentBargeld         PaymentMethod = "Bargeld"
)

// paymentMethods is the matching order.
var paymentMethods = []PaymentMethod{
	PaymentECCash,
	PaymentGirocard,
	PaymentKreditkarte,
	PaymentMastercard,
	PaymentVisa,
	PaymentAmericanExpress,
	PaymentCash,
	PaymentBargeld,
}

var (
	rePlainAmount    = regexp.MustCompile(`^\d+[,.]\d{2}$`)
	reGermanAmount   = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+,\d{2}$`)
	reEnglishAmount  = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+\.\d{2}$`)
	reDecimalNumeral = regexp.MustCompile(`^\d+(?:[,.]\d+)?$`)
)

// parseAmount reads a printed money value. Only exactly two fractional
// digits are accepted; grouped thousands are allowed in German and English
// notation. Anything else is rejected.
func parseAmount(s string) (Amount, bool) {
	s = strings.TrimRight(strings.TrimSpace(s), ".,")
	switch {
	case rePlainAmount.MatchString(s):
		s = strings.Replace(s, ",", ".", 1)
	case reGermanAmount.MatchString(s):
		s = strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
	case reEnglishAmount.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	default:
		return Amount{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, false
	}
	return NewAmount(d), true
}

// parseDecimal reads a number with an optional comma or dot separator.
func parseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if !reDecimalNumeral.MatchString(s) {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// parseDate builds a date from day, month and year digits. Two digit years
// are in the 21st century; three digit years are rejected.
func parseDate(day, month, year string) (Date, bool) {
	d, err := strconv.Atoi(day)
	if err != nil {
		return Date{}, false
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return Date{}, false
	}
	switch len(year) {
	case 2:
		year = "20" + year
	case 4:
	default:
		return Date{}, false
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return Date{}, false
	}
	return NewDate(y, time.Month(m), d)
}

// parseClock validates hour and minute and renders HH:MM.
func parseClock(hour, minute string) (string, bool) {
	h, err := strconv.Atoi(hour)
	if err != nil || h > 23 {
		return "", false
	}
	m, err := strconv.Atoi(minute)
	if err != nil || m > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", h, m), true
}
