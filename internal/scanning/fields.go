package scanning

import "github.com/zombor/receipt-extract/internal/textlayer"

// Field names one scalar receipt field.
type Field string

const (
	FieldBrand         Field = "brand"
	FieldMerchantName  Field = "merchant_name"
	FieldStoreAddress  Field = "store_address"
	FieldTelephone     Field = "telephone"
	FieldTaxID         Field = "tax_id"
	FieldMarketID      Field = "market_id"
	FieldReceiptNr     Field = "receipt_nr"
	FieldDocumentNr    Field = "document_nr"
	FieldDate          Field = "date"
	FieldTime          Field = "time"
	FieldPaymentMethod Field = "payment_method"
	FieldTotal         Field = "total"
)

// AllFields lists every field in canonical order.
var AllFields = []Field{
	FieldBrand,
	FieldMerchantName,
	FieldStoreAddress,
	FieldTelephone,
	FieldTaxID,
	FieldMarketID,
	FieldReceiptNr,
	FieldDocumentNr,
	FieldDate,
	FieldTime,
	FieldPaymentMethod,
	FieldTotal,
}

// Fields holds the scalar values found on a receipt. A nil member means no
// rule produced a value for it.
type Fields struct {
	Brand         *string        `json:"brand,omitempty"`
	MerchantName  *string        `json:"merchant_name,omitempty"`
	StoreAddress  *string        `json:"store_address,omitempty"`
	Telephone     *string        `json:"telephone,omitempty"`
	TaxID         *string        `json:"tax_id,omitempty"`
	MarketID      *string        `json:"market_id,omitempty"`
	ReceiptNr     *string        `json:"receipt_nr,omitempty"`
	DocumentNr    *string        `json:"document_nr,omitempty"`
	Date          *Date          `json:"date,omitempty"`
	Time          *string        `json:"time,omitempty"` // HH:MM
	PaymentMethod *PaymentMethod `json:"payment_method,omitempty"`
	Total         *Amount        `json:"total,omitempty"`
}

// ExtractFields applies every field rule to the whole text. It is a pure
// function of its input.
func ExtractFields(text textlayer.Text) Fields {
	s := text.String()
	f := Fields{
		Brand:         brandRule.apply(s),
		MerchantName:  merchantNameRule.apply(s),
		StoreAddress:  storeAddressRule.apply(s),
		Telephone:     telephoneRule.apply(s),
		TaxID:         taxIDRule.apply(s),
		MarketID:      marketIDRule.apply(s),
		ReceiptNr:     receiptNrRule.apply(s),
		Date:          dateRule.apply(s),
		Time:          timeRule.apply(s),
		PaymentMethod: paymentMethodRule.apply(s),
		Total:         totalRule.apply(s),
	}
	// receipt and document number are mutually exclusive
	if f.ReceiptNr == nil {
		f.DocumentNr = documentNrRule.apply(s)
	}
	return f
}

// Has reports whether field holds a value.
func (f Fields) Has(field Field) bool {
	switch field {
	case FieldBrand:
		return f.Brand != nil
	case FieldMerchantName:
		return f.MerchantName != nil
	case FieldStoreAddress:
		return f.StoreAddress != nil
	case FieldTelephone:
		return f.Telephone != nil
	case FieldTaxID:
		return f.TaxID != nil
	case FieldMarketID:
		return f.MarketID != nil
	case FieldReceiptNr:
		return f.ReceiptNr != nil
	case FieldDocumentNr:
		return f.DocumentNr != nil
	case FieldDate:
		return f.Date != nil
	case FieldTime:
		return f.Time != nil
	case FieldPaymentMethod:
		return f.PaymentMethod != nil
	case FieldTotal:
		return f.Total != nil
	}
	return false
}

// Missing returns the absent fields in canonical order.
func (f Fields) Missing() []Field {
	var missing []Field
	for _, field := range AllFields {
		if !f.Has(field) {
			missing = append(missing, field)
		}
	}
	return missing
}
