// Package rulebased implements the regex/heuristic extraction level. It is
// the guaranteed fallback: it always runs, never fails, and simply omits
// fields it cannot find.
package rulebased

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/ledgerline/invoice-extractor/constants"
	"github.com/ledgerline/invoice-extractor/internal/extraction"
)

type Extractor struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract applies the ordered pattern lists to the raw document text.
// Catastrophic input (empty or garbage text) yields an empty result, not an
// error. After extraction, a missing tax is inferred from subtotal and total
// when arithmetically sound, and the totals cross-check is reported as an
// advisory error entry.
func (e *Extractor) Extract(rawText string) extraction.Result {
	res := extraction.NewResult(constants.LevelRuleBased)
	text := strings.TrimSpace(rawText)
	if text == "" {
		return res
	}

	if f, ok := extractInvoiceNumber(text); ok {
		res.Put(f)
	}
	if f, ok := extractDate(text); ok {
		res.Put(f)
	}
	if f, ok := extractVendor(text); ok {
		res.Put(f)
	}
	for _, am := range []struct {
		name     constants.FieldName
		patterns []pattern
	}{
		{constants.FieldSubtotal, subtotalPatterns},
		{constants.FieldTax, taxPatterns},
		{constants.FieldTotal, totalPatterns},
	} {
		if f, ok := extractAmount(text, am.name, am.patterns); ok {
			res.Put(f)
		}
	}
	if f, ok := extractCurrency(text); ok {
		res.Put(f)
	}

	inferMissingTax(&res)
	if msg := extraction.CheckTotals(res.Fields); msg != "" {
		res.AddError(msg)
	}

	e.logger.Debug("rulebased.extract.done",
		"fields", len(res.Fields),
		"errors", len(res.Errors),
		"text_len", len(text),
	)
	return res
}

func extractInvoiceNumber(text string) (extraction.Field, bool) {
	for _, p := range invoiceNumberPatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, 4) {
			cand := strings.ToUpper(strings.TrimSpace(m[1]))
			if !acceptInvoiceNumber(cand) {
				continue
			}
			return extraction.Field{
				Name:       constants.FieldInvoiceNumber,
				Value:      cand,
				Confidence: p.confidence,
				RawSpan:    strings.TrimSpace(m[0]),
			}, true
		}
	}
	return extraction.Field{}, false
}

// acceptInvoiceNumber applies the negative rules: known labels and table
// headers are rejected, candidates must carry a digit, and all-digit
// candidates must be at least four characters long.
func acceptInvoiceNumber(cand string) bool {
	if len(cand) < 3 {
		return false
	}
	if _, bad := rejectedNumberLabels[strings.ToLower(cand)]; bad {
		return false
	}
	hasDigit, allDigits := false, true
	for _, c := range cand {
		if c >= '0' && c <= '9' {
			hasDigit = true
		} else {
			allDigits = false
		}
	}
	if !hasDigit {
		return false
	}
	if allDigits && len(cand) < 4 {
		return false
	}
	return true
}

func extractDate(text string) (extraction.Field, bool) {
	lower := strings.ToLower(text)
	for _, kw := range dateKeywords {
		pos := strings.Index(lower, kw)
		if pos < 0 {
			continue
		}
		end := pos + len(kw) + 100
		if end > len(text) {
			end = len(text)
		}
		window := text[pos:end]
		if iso, ok := extraction.NormalizeDate(window); ok {
			conf := 0.85
			if !reISOOrder.MatchString(window) {
				// Year was not leading, so the ordering was ambiguous.
				conf = 0.7
			}
			return extraction.Field{
				Name:       constants.FieldInvoiceDate,
				Value:      iso,
				Confidence: conf,
				RawSpan:    strings.TrimSpace(firstLine(window)),
			}, true
		}
	}
	return extraction.Field{}, false
}

var reISOOrder = regexp.MustCompile(`\d{4}[-/]\d{1,2}[-/]\d{1,2}`)

var vendorSkipLine = regexp.MustCompile(`(?i)invoice|billed\s+to|click\s+to\s+edit|^\s*[|]|^\s*\d|\d{4}[-/]\d|total|subtotal|tax|amount|date`)

func extractVendor(text string) (extraction.Field, bool) {
	header := text
	if len(header) > 500 {
		header = header[:500]
	}
	for _, p := range vendorPatterns {
		if m := p.re.FindStringSubmatch(header); m != nil {
			name := strings.Join(strings.Fields(m[1]), " ")
			if len(name) >= 2 && len(name) <= 100 {
				return extraction.Field{
					Name:       constants.FieldVendorName,
					Value:      name,
					Confidence: p.confidence,
					RawSpan:    strings.TrimSpace(m[0]),
				}, true
			}
		}
	}
	// Fallback: the vendor is usually a company-looking line near the top.
	lines := strings.Split(header, "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if i == 0 || len(line) < 4 || len(line) >= 50 {
			continue
		}
		if vendorSkipLine.MatchString(line) {
			continue
		}
		if line[0] >= 'A' && line[0] <= 'Z' {
			return extraction.Field{
				Name:       constants.FieldVendorName,
				Value:      line,
				Confidence: 0.5,
				RawSpan:    line,
			}, true
		}
	}
	return extraction.Field{}, false
}

func extractAmount(text string, name constants.FieldName, patterns []pattern) (extraction.Field, bool) {
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		span := m[1]
		conf := p.confidence
		if cleaned, ocrFix := stripOCRDollar(span); ocrFix {
			span = cleaned
			conf -= 0.15 // misread "$" lowers trust in the digits too
		}
		value, dec, ok := extraction.NormalizeAmount(span)
		if !ok {
			continue
		}
		return extraction.Field{
			Name:       name,
			Value:      value,
			Amount:     dec,
			Confidence: conf,
			RawSpan:    strings.TrimSpace(m[0]),
		}, true
	}
	return extraction.Field{}, false
}

// stripOCRDollar removes a leading "5 " where OCR misread "$" as the digit
// five. The "S" variant is handled by NormalizeAmount itself.
func stripOCRDollar(s string) (string, bool) {
	t := strings.TrimSpace(s)
	if len(t) > 2 && t[0] == '5' && (t[1] == ' ' || t[1] == '\t') {
		return t[2:], true
	}
	if len(t) > 1 && (t[0] == 'S' || t[0] == 's') && t[1] >= '0' && t[1] <= '9' {
		return t[1:], true
	}
	return s, false
}

func extractCurrency(text string) (extraction.Field, bool) {
	for _, p := range currencyPatterns {
		if m := p.re.FindStringSubmatch(text); m != nil {
			code, ok := extraction.NormalizeCurrency(m[1])
			if !ok {
				continue
			}
			return extraction.Field{
				Name:       constants.FieldCurrency,
				Value:      code,
				Confidence: p.confidence,
				RawSpan:    strings.TrimSpace(m[0]),
			}, true
		}
	}
	return extraction.Field{}, false
}

// inferMissingTax fills an absent tax from subtotal and total when the
// difference is non-negative. The inference is advisory-grade: reduced
// confidence and an error entry, and it never overrides an extracted value.
func inferMissingTax(res *extraction.Result) {
	if res.Has(constants.FieldTax) {
		return
	}
	sub, okSub := res.Fields[constants.FieldSubtotal]
	total, okTotal := res.Fields[constants.FieldTotal]
	if !okSub || !okTotal {
		return
	}
	diff := total.Amount.Sub(sub.Amount)
	if diff.IsNegative() {
		return
	}
	res.Put(extraction.Field{
		Name:       constants.FieldTax,
		Value:      diff.StringFixed(2),
		Amount:     diff,
		Confidence: 0.5,
		RawSpan:    "inferred from subtotal and total",
	})
	res.AddError("tax inferred from subtotal and total")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
