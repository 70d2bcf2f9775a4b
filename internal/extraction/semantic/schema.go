package semantic

import (
	"strings"

	"github.com/ledgerline/invoice-extractor/constants"
)

// BuildInvoiceJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. It is sent to the backend as an output constraint and used
// locally to validate the reply. Every field is optional: a partial reply is
// a valid reply.
func BuildInvoiceJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"invoice_number": map[string]any{"type": "string", "minLength": 1},
			"invoice_date":   map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
			"vendor_name":    map[string]any{"type": "string", "minLength": 1},
			"subtotal":       decimalProp(),
			"tax":            decimalProp(),
			"total":          decimalProp(),
			"currency":       map[string]any{"type": "string", "minLength": 3, "maxLength": 3},
			"confidence":     map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
	}
}

func decimalProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^-?\d+(\.\d{1,2})?$`,
	}
}

// BuildSystemPrompt composes the instruction message shared by all backends.
func BuildSystemPrompt(fallbackCurrency string) string {
	cur := strings.TrimSpace(fallbackCurrency)
	if cur == "" {
		cur = "USD"
	}
	parts := []string{
		"You are an invoice parser. Return ONLY JSON that matches the provided JSON Schema.",
		"Extract: invoice_number, invoice_date, vendor_name, subtotal, tax, total, currency.",
		"Use ISO-8601 dates (YYYY-MM-DD).",
		"Amounts are plain decimal strings without currency symbols or thousands separators.",
		"Currency must be a 3-letter ISO 4217 code; default to " + cur + " if uncertain.",
		"The text comes from OCR: a '5' or 'S' directly before an amount is usually a misread '$'.",
		"Ensure subtotal + tax = total; use arithmetic to correct obvious OCR typos.",
		"Never output null. If a field is not present, omit it.",
		"Optionally include 'confidence' (0..1) for the extraction as a whole.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the document text, truncated to keep the request
// inside token limits.
func BuildUserPrompt(documentText string) string {
	const maxChars = 4000
	var b strings.Builder
	b.WriteString("Document text (OCR):\n")
	if len(documentText) > maxChars {
		b.WriteString(documentText[:maxChars])
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(documentText)
	}
	return b.String()
}

// FieldNames lists the canonical fields as strings for the backend request.
func FieldNames() []string {
	names := make([]string, 0, len(constants.CanonicalFields))
	for _, f := range constants.CanonicalFields {
		names = append(names, string(f))
	}
	return names
}
