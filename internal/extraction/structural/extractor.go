// Package structural implements the geometry-aware extraction level. It
// reconstructs rows from positioned-token bounding boxes, recognizes label
// tokens via a lexicon, and pairs each label with the nearest value token,
// preferring same-row over below-row matches.
package structural

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

// candidate is a scored value for a field, carrying the tie-break keys: the
// lexicon rank of its label, its confidence, and its distance to the label.
type candidate struct {
	field extraction.Field
	rank  int
	dist  float64
}

// Extract runs geometry-based extraction over positioned tokens. Degenerate
// input (no tokens, or no valid bounding boxes) yields an empty result with
// an explanatory error entry; the method never fails.
func (e *Extractor) Extract(tokens []extraction.Token) extraction.Result {
	res := extraction.NewResult(constants.LevelStructural)

	valid := make([]extraction.Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Valid() && strings.TrimSpace(t.Text) != "" {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		if len(tokens) == 0 {
			res.AddError("no positioned tokens")
		} else {
			res.AddError("degenerate geometry: no valid bounding boxes")
		}
		return res
	}

	rows := clusterRows(valid)
	best := make(map[constants.FieldName]candidate)

	for i, r := range rows {
		labelTokens, rest := splitLabelRegion(r.tokens)
		if len(labelTokens) == 0 {
			continue
		}
		entry, base, ok := matchLabel(joinTexts(labelTokens))
		if !ok {
			continue
		}
		anchor := labelTokens[len(labelTokens)-1]

		cand, found := e.findValue(entry, base, anchor, rest, rows, i)
		if !found {
			continue
		}
		if cur, exists := best[entry.field]; exists && !beats(cand, cur) {
			continue
		}
		best[entry.field] = cand
	}

	for _, c := range best {
		res.Put(c.field)
	}

	if !res.Has(constants.FieldVendorName) {
		if f, ok := vendorFromHeader(rows); ok {
			res.Put(f)
		}
	}

	if msg := extraction.CheckTotals(res.Fields); msg != "" {
		res.AddError(msg)
	}
	if !res.Has(constants.FieldTotal) && hasAmounts(valid) {
		res.AddError("table region not found for total")
	}

	e.logger.Debug("structural.extract.done",
		"tokens", len(valid),
		"rows", len(rows),
		"fields", len(res.Fields),
		"errors", len(res.Errors),
	)
	return res
}

// beats orders candidates by lexicon rank, then confidence, then proximity.
func beats(a, b candidate) bool {
	if a.rank != b.rank {
		return a.rank > b.rank
	}
	if a.field.Confidence != b.field.Confidence {
		return a.field.Confidence > b.field.Confidence
	}
	return a.dist < b.dist
}

// findValue locates the value for a recognized label: same-row tokens to the
// right first, then the nearest token below the label, tie-broken by
// Euclidean distance between bounding-box centers.
func (e *Extractor) findValue(entry labelEntry, base float64, anchor extraction.Token, sameRow []extraction.Token, rows []row, rowIdx int) (candidate, bool) {
	if entry.field == constants.FieldVendorName {
		// Vendor values are free text: everything right of the label.
		text := strings.Trim(strings.TrimSpace(joinTexts(sameRow)), ":")
		text = strings.TrimSpace(text)
		if len(text) < 2 || len(text) > 60 {
			return candidate{}, false
		}
		return candidate{
			field: extraction.Field{
				Name:       constants.FieldVendorName,
				Value:      text,
				Confidence: base,
				RawSpan:    anchor.Text + " " + text,
			},
			rank: entry.rank,
		}, true
	}

	type scored struct {
		f    extraction.Field
		dist float64
	}
	var hit *scored

	consider := func(t extraction.Token, penalty float64) {
		f, ok := parseValueToken(entry.field, t)
		if !ok {
			return
		}
		d := anchor.Distance(t) + penalty
		if hit == nil || d < hit.dist {
			hit = &scored{f: f, dist: d}
		}
	}

	for _, t := range sameRow {
		consider(t, 0)
	}
	if hit == nil {
		// Form-style layouts put the value below the label. A fixed penalty
		// keeps same-row winners preferred when both orientations exist.
		for j := rowIdx + 1; j < len(rows) && j <= rowIdx+3; j++ {
			if rows[j].page != anchor.Page {
				break
			}
			for _, t := range rows[j].tokens {
				if !horizontallyAligned(anchor, t) {
					continue
				}
				consider(t, 10)
			}
		}
	}
	if hit == nil {
		return candidate{}, false
	}

	hit.f.Confidence = base * proximityFactor(hit.dist)
	return candidate{field: hit.f, rank: entry.rank, dist: hit.dist}, true
}

// proximityFactor scales confidence by geometric distance: values adjacent to
// their label keep the full base; far-away values decay toward half of it.
func proximityFactor(dist float64) float64 {
	if dist <= 50 {
		return 1.0
	}
	f := 1.0 - (dist-50)/400
	if f < 0.5 {
		f = 0.5
	}
	return f
}

func horizontallyAligned(label, t extraction.Token) bool {
	if t.X0 < label.X1 && t.X1 > label.X0 {
		return true
	}
	dx := t.CenterX() - label.CenterX()
	if dx < 0 {
		dx = -dx
	}
	return dx < 60
}

var (
	reAmountToken = regexp.MustCompile(`^[$€£¥₹Ss]?\s?\d[\d,]*(?:\.\d{1,2})?$`)
	reHasDecimals = regexp.MustCompile(`\.\d{1,2}$`)
	reHasSymbol   = regexp.MustCompile(`^[$€£¥₹]`)
	reDigits      = regexp.MustCompile(`\d`)
)

var currencySymbols = map[string]string{
	"$": "USD", "€": "EUR", "£": "GBP", "¥": "JPY", "₹": "INR",
}

// parseValueToken decides whether a token can serve as the value for the
// given field and returns it in normalized form.
func parseValueToken(field constants.FieldName, t extraction.Token) (extraction.Field, bool) {
	text := strings.TrimSpace(t.Text)
	switch {
	case constants.IsAmountField(field):
		// Require decimals or an explicit symbol so that quantity columns
		// ("2", "10") are not mistaken for money.
		if !reAmountToken.MatchString(text) || !(reHasDecimals.MatchString(text) || reHasSymbol.MatchString(text)) {
			return extraction.Field{}, false
		}
		value, dec, ok := extraction.NormalizeAmount(text)
		if !ok {
			return extraction.Field{}, false
		}
		return extraction.Field{Name: field, Value: value, Amount: dec, RawSpan: text}, true

	case constants.IsDateField(field):
		iso, ok := extraction.NormalizeDate(text)
		if !ok {
			return extraction.Field{}, false
		}
		return extraction.Field{Name: field, Value: iso, RawSpan: text}, true

	case field == constants.FieldCurrency:
		if code, ok := currencySymbols[text]; ok {
			return extraction.Field{Name: field, Value: code, RawSpan: text}, true
		}
		code, ok := extraction.NormalizeCurrency(text)
		if !ok {
			return extraction.Field{}, false
		}
		return extraction.Field{Name: field, Value: code, RawSpan: text}, true

	case field == constants.FieldInvoiceNumber:
		cand := strings.Trim(strings.ToUpper(text), ":#")
		if len(cand) < 3 || !reDigits.MatchString(cand) {
			return extraction.Field{}, false
		}
		return extraction.Field{Name: field, Value: cand, RawSpan: text}, true
	}
	return extraction.Field{}, false
}

// splitLabelRegion separates the leading label tokens of a row from the
// remainder. The label region ends at the first token that reads as a value
// (amount, date, or bare number).
func splitLabelRegion(tokens []extraction.Token) (label, rest []extraction.Token) {
	for i, t := range tokens {
		text := strings.TrimSpace(t.Text)
		if reAmountToken.MatchString(text) && reDigits.MatchString(text) {
			return tokens[:i], tokens[i:]
		}
		if _, ok := extraction.NormalizeDate(text); ok {
			return tokens[:i], tokens[i:]
		}
	}
	// No value-looking token: the whole row may be "Label: free text".
	for i, t := range tokens {
		if strings.HasSuffix(t.Text, ":") {
			return tokens[:i+1], tokens[i+1:]
		}
	}
	if len(tokens) > 1 {
		return tokens[:1], tokens[1:]
	}
	return tokens, nil
}

// vendorFromHeader applies the top-of-page heuristic: the first header row
// that is not boilerplate and looks like a company name.
func vendorFromHeader(rows []row) (extraction.Field, bool) {
	limit := 5
	for i, r := range rows {
		if i >= limit {
			break
		}
		text := strings.TrimSpace(joinTexts(r.tokens))
		lower := strings.ToLower(text)
		if len(text) < 4 || len(text) > 50 {
			continue
		}
		if strings.Contains(lower, "invoice") || strings.Contains(lower, "date") ||
			strings.Contains(lower, "number") || reDigits.MatchString(text) {
			continue
		}
		if text[0] >= 'A' && text[0] <= 'Z' {
			return extraction.Field{
				Name:       constants.FieldVendorName,
				Value:      text,
				Confidence: 0.5,
				RawSpan:    text,
			}, true
		}
	}
	return extraction.Field{}, false
}

func hasAmounts(tokens []extraction.Token) bool {
	for _, t := range tokens {
		text := strings.TrimSpace(t.Text)
		if reAmountToken.MatchString(text) && reHasDecimals.MatchString(text) {
			return true
		}
	}
	return false
}

func joinTexts(tokens []extraction.Token) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		parts = append(parts, t.Text)
	}
	return strings.Join(parts, " ")
}
