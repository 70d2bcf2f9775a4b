package structural

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/ledgerline/invoice-extractor/constants"
)

// labelEntry maps a label phrase to a field. Rank disambiguates when several
// label rows compete for the same field: "Amount Due" beats a bare "Total".
type labelEntry struct {
	phrase string
	field  constants.FieldName
	rank   int
}

// lexicon is ordered longest-phrase-first so that "subtotal" is recognized
// before its "total" suffix.
var lexicon = []labelEntry{
	{"invoice number", constants.FieldInvoiceNumber, 2},
	{"invoice date", constants.FieldInvoiceDate, 2},
	{"billing date", constants.FieldInvoiceDate, 2},
	{"grand total", constants.FieldTotal, 2},
	{"balance due", constants.FieldTotal, 2},
	{"amount due", constants.FieldTotal, 3},
	{"total due", constants.FieldTotal, 3},
	{"invoice no", constants.FieldInvoiceNumber, 2},
	{"invoice #", constants.FieldInvoiceNumber, 2},
	{"sales tax", constants.FieldTax, 2},
	{"sub total", constants.FieldSubtotal, 1},
	{"subtotal", constants.FieldSubtotal, 1},
	{"currency", constants.FieldCurrency, 2},
	{"supplier", constants.FieldVendorName, 2},
	{"sold by", constants.FieldVendorName, 2},
	{"vendor", constants.FieldVendorName, 2},
	{"total", constants.FieldTotal, 1},
	{"date", constants.FieldInvoiceDate, 1},
	{"from", constants.FieldVendorName, 1},
	{"vat", constants.FieldTax, 2},
	{"tax", constants.FieldTax, 1},
}

const (
	exactLabelBase = 0.9
	fuzzyLabelBase = 0.7
)

// matchLabel looks the label region of a row up in the lexicon. It returns
// the entry and the confidence base: exact substring hits score higher than
// fuzzy (edit-distance 1) hits, which absorb common OCR damage like "Tota1".
func matchLabel(labelText string) (labelEntry, float64, bool) {
	labelText = strings.ToLower(strings.TrimSpace(labelText))
	if labelText == "" {
		return labelEntry{}, 0, false
	}
	for _, e := range lexicon {
		if strings.Contains(labelText, e.phrase) {
			return e, exactLabelBase, true
		}
	}
	for _, e := range lexicon {
		if len(e.phrase) < 4 {
			continue
		}
		for _, word := range strings.Fields(labelText) {
			word = strings.Trim(word, ":.#")
			if fuzzy.LevenshteinDistance(word, e.phrase) == 1 {
				return e, fuzzyLabelBase, true
			}
		}
	}
	return labelEntry{}, 0, false
}
