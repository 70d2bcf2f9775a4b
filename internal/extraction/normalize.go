package extraction

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/invoice-extractor/constants"
)

var (
	reAmountJunk = regexp.MustCompile(`[$€£¥₹,\s]`)
	reDateISO    = regexp.MustCompile(`(\d{4})[-/](\d{1,2})[-/](\d{1,2})`)
	reDateDMY    = regexp.MustCompile(`(\d{1,2})[-/.](\d{1,2})[-/.](\d{4})`)
)

// TotalsTolerance is the rounding margin allowed when cross-checking
// subtotal + tax against total.
var TotalsTolerance = decimal.NewFromFloat(0.02)

// NormalizeAmount strips currency symbols, thousands separators and
// whitespace from a candidate amount and returns its canonical two-decimal
// form. OCR artifacts where "$" was read as a leading "S" are tolerated.
func NormalizeAmount(raw string) (string, decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", decimal.Decimal{}, false
	}
	// "S1,798.39" is a common misread of "$1,798.39".
	if len(s) > 1 && (s[0] == 'S') && (s[1] >= '0' && s[1] <= '9') {
		s = s[1:]
	}
	s = reAmountJunk.ReplaceAllString(s, "")
	if s == "" || s == "-" {
		return "", decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", decimal.Decimal{}, false
	}
	d = d.Round(2)
	return d.StringFixed(2), d, true
}

// NormalizeDate finds the first date-looking substring and returns it in ISO
// form (YYYY-MM-DD). ISO-ordered dates are preferred; for ambiguous
// two-digit orderings the first component is treated as the day when it
// exceeds 12, otherwise as the month.
func NormalizeDate(raw string) (string, bool) {
	if m := reDateISO.FindStringSubmatch(raw); m != nil {
		if iso, ok := buildISODate(m[1], m[2], m[3]); ok {
			return iso, true
		}
	}
	if m := reDateDMY.FindStringSubmatch(raw); m != nil {
		if iso, ok := ResolveAmbiguousDate(m[1], m[2], m[3]); ok {
			return iso, true
		}
	}
	return "", false
}

// ResolveAmbiguousDate resolves a D/M-vs-M/D ordering deterministically:
// first > 12 means day-first, otherwise month-first.
func ResolveAmbiguousDate(first, second, year string) (string, bool) {
	day, month := second, first
	if atoi(first) > 12 {
		day, month = first, second
	}
	return buildISODate(year, month, day)
}

func buildISODate(year, month, day string) (string, bool) {
	iso := fmt.Sprintf("%s-%02d-%02d", year, atoi(month), atoi(day))
	if _, err := time.Parse("2006-01-02", iso); err != nil {
		return "", false
	}
	return iso, true
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return -1
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// NormalizeCurrency uppercases a candidate currency code and checks it
// against the ISO 4217 registry.
func NormalizeCurrency(raw string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != 3 {
		return "", false
	}
	if money.GetCurrency(code) == nil {
		return "", false
	}
	return code, true
}

// TotalsConsistent reports whether subtotal + tax matches total within
// TotalsTolerance.
func TotalsConsistent(subtotal, tax, total decimal.Decimal) bool {
	return subtotal.Add(tax).Sub(total).Abs().LessThanOrEqual(TotalsTolerance)
}

// CheckTotals runs the advisory subtotal/tax/total cross-check over a field
// map. It returns a human-readable finding when all three amounts are present
// and inconsistent, and "" otherwise. The check never rejects fields.
func CheckTotals(fields map[constants.FieldName]Field) string {
	sub, okSub := fields[constants.FieldSubtotal]
	tax, okTax := fields[constants.FieldTax]
	total, okTotal := fields[constants.FieldTotal]
	if !okSub || !okTax || !okTotal {
		return ""
	}
	if TotalsConsistent(sub.Amount, tax.Amount, total.Amount) {
		return ""
	}
	return fmt.Sprintf("totals inconsistent: subtotal %s + tax %s != total %s",
		sub.Value, tax.Value, total.Value)
}
