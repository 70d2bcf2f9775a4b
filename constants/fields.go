package constants

// FieldName identifies one of the canonical accounting attributes extracted
// from an invoice document.
type FieldName string

// Stable values (store these exact strings downstream).
const (
	FieldInvoiceNumber FieldName = "invoice_number"
	FieldInvoiceDate   FieldName = "invoice_date"
	FieldVendorName    FieldName = "vendor_name"
	FieldSubtotal      FieldName = "subtotal"
	FieldTax           FieldName = "tax"
	FieldTotal         FieldName = "total"
	FieldCurrency      FieldName = "currency"
)

// CanonicalFields is the ordered set of fields the pipeline extracts.
var CanonicalFields = []FieldName{
	FieldInvoiceNumber,
	FieldInvoiceDate,
	FieldVendorName,
	FieldSubtotal,
	FieldTax,
	FieldTotal,
	FieldCurrency,
}

// NumCanonicalFields is the denominator for extraction_rate.
const NumCanonicalFields = 7

// IsAmountField reports whether the field carries a monetary amount.
func IsAmountField(n FieldName) bool {
	switch n {
	case FieldSubtotal, FieldTax, FieldTotal:
		return true
	}
	return false
}

// IsDateField reports whether the field carries a calendar date.
func IsDateField(n FieldName) bool {
	return n == FieldInvoiceDate
}

// IsCanonicalField reports whether n is one of the seven canonical fields.
func IsCanonicalField(n FieldName) bool {
	for _, f := range CanonicalFields {
		if f == n {
			return true
		}
	}
	return false
}
