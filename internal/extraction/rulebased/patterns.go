package rulebased

import "regexp"

// pattern pairs a matcher with the fixed confidence assigned to its hits.
// Lists are ordered most-specific first; the first match wins for a field.
type pattern struct {
	re         *regexp.Regexp
	confidence float64
}

// amount is the shared sub-expression for money values, optionally prefixed
// by a currency symbol or by "S"/"5 " where OCR misread "$".
const amount = `((?:[$€£¥₹]|S|5\s)?\s*[\d,]+(?:\.\d{1,2})?)`

var invoiceNumberPatterns = []pattern{
	{regexp.MustCompile(`(?i)invoice\s*(?:no\.?|number|#)\s*:?\s*([A-Za-z][A-Za-z0-9\-]*\d[A-Za-z0-9\-]*|[0-9][A-Za-z0-9\-]*)`), 0.9},
	{regexp.MustCompile(`(?i)\binv\.?\s*(?:no\.?|number|#)\s*:?\s*([A-Za-z0-9\-]+)`), 0.85},
	{regexp.MustCompile(`(?i)\binvoice\s+([A-Za-z0-9\-]{3,})`), 0.6},
}

// rejectedNumberLabels are table headers and amount labels that regularly sit
// next to the word "invoice" and must never be accepted as an invoice number.
var rejectedNumberLabels = map[string]struct{}{
	"amount": {}, "total": {}, "subtotal": {}, "balance": {}, "due": {},
	"tax": {}, "vat": {}, "discount": {}, "price": {}, "cost": {}, "fee": {},
	"payment": {}, "paid": {}, "description": {}, "qty": {}, "quantity": {},
	"item": {}, "unit": {}, "rate": {}, "date": {},
}

var subtotalPatterns = []pattern{
	{regexp.MustCompile(`(?im)\bsub\s*[- ]?total\s*:?\s*` + amount), 0.9},
	{regexp.MustCompile(`(?im)\btotal\s+before\s+tax\s*:?\s*` + amount), 0.85},
	{regexp.MustCompile(`(?im)[|]\s*sub\s*total\s*[|][^|\n]*[|]\s*\+?` + amount + `\s*[|]`), 0.85},
}

var taxPatterns = []pattern{
	// VAT is more specific than generic tax, so it is tried first.
	{regexp.MustCompile(`(?im)\b(?:vat|value\s+added\s+tax)(?:\s*\([^)\n]*\))?\s*:?\s*` + amount), 0.9},
	{regexp.MustCompile(`(?im)\bsales\s+tax\s*:?\s*` + amount), 0.9},
	{regexp.MustCompile(`(?im)\btax\s+amount\s*:?\s*` + amount), 0.85},
	{regexp.MustCompile(`(?im)\btax(?:\s*\([^)\n]*\))?\s*:?\s*` + amount), 0.8},
	{regexp.MustCompile(`(?im)[|]\s*(?:vat|tax)\s*[|][^|\n]*[|]\s*\+?` + amount + `\s*[|]`), 0.8},
}

var totalPatterns = []pattern{
	{regexp.MustCompile(`(?im)\btotal\s+due\s*:?\s*` + amount), 0.9},
	{regexp.MustCompile(`(?im)\bamount\s+due\s*:?\s*` + amount), 0.9},
	{regexp.MustCompile(`(?im)\bgrand\s+total\s*:?\s*` + amount), 0.9},
	{regexp.MustCompile(`(?im)\bbalance\s+due\s*:?\s*` + amount), 0.85},
	{regexp.MustCompile(`(?im)[|]\s*total(?:\s+due)?\s*[|][^|\n]*[|]\s*` + amount + `\s*[|]`), 0.8},
	{regexp.MustCompile(`(?im)^total\s*:?\s*` + amount), 0.8},
	{regexp.MustCompile(`(?im)\btotal\s*:?\s*` + amount), 0.7},
}

var vendorPatterns = []pattern{
	{regexp.MustCompile(`(?im)^(?:from|vendor|supplier|sold\s+by|bill\s+from)\s*:?\s*([A-Z][A-Za-z0-9&.,' \-]{1,60}?)\s*$`), 0.8},
}

// Currency is matched from explicit indicators only: a labeled currency line
// or a standalone ISO 4217 code. Bare symbols feed amount normalization, not
// the currency field.
var currencyPatterns = []pattern{
	{regexp.MustCompile(`(?i)\bcurrency\s*:?\s*([A-Za-z]{3})\b`), 0.9},
	{regexp.MustCompile(`(?i)\b(USD|EUR|GBP|CAD|AUD|JPY|CNY|INR|NOK|SEK|DKK|CHF|NZD|MXN|BRL|ZAR)\b`), 0.85},
}

// dateKeywords anchor date extraction: a date is only taken from a window
// following one of these labels, most specific first.
var dateKeywords = []string{"invoice date", "billing date", "date of issue", "issued", "date"}
