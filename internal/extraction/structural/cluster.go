package structural

import (
	"sort"

	"github.com/ledgerline/invoice-extractor/internal/extraction"
)

// row is a horizontal band of tokens reconstructed from bounding-box
// proximity, ordered left to right.
type row struct {
	page    int
	centerY float64
	tokens  []extraction.Token
}

// clusterRows groups tokens into visual rows. Tokens on the same page whose
// vertical centers fall within a tolerance derived from the median token
// height belong to the same row. Invalid boxes are dropped by the caller.
func clusterRows(tokens []extraction.Token) []row {
	if len(tokens) == 0 {
		return nil
	}

	sorted := make([]extraction.Token, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Page != sorted[j].Page {
			return sorted[i].Page < sorted[j].Page
		}
		if sorted[i].CenterY() != sorted[j].CenterY() {
			return sorted[i].CenterY() < sorted[j].CenterY()
		}
		return sorted[i].X0 < sorted[j].X0
	})

	tol := rowTolerance(sorted)

	var rows []row
	cur := row{page: sorted[0].Page, centerY: sorted[0].CenterY(), tokens: []extraction.Token{sorted[0]}}
	for _, t := range sorted[1:] {
		if t.Page == cur.page && t.CenterY()-cur.centerY <= tol {
			cur.tokens = append(cur.tokens, t)
			continue
		}
		rows = append(rows, finishRow(cur))
		cur = row{page: t.Page, centerY: t.CenterY(), tokens: []extraction.Token{t}}
	}
	rows = append(rows, finishRow(cur))
	return rows
}

func finishRow(r row) row {
	sort.SliceStable(r.tokens, func(i, j int) bool { return r.tokens[i].X0 < r.tokens[j].X0 })
	sum := 0.0
	for _, t := range r.tokens {
		sum += t.CenterY()
	}
	r.centerY = sum / float64(len(r.tokens))
	return r
}

// rowTolerance derives the same-row threshold from the median token height.
func rowTolerance(tokens []extraction.Token) float64 {
	heights := make([]float64, 0, len(tokens))
	for _, t := range tokens {
		heights = append(heights, t.Height())
	}
	sort.Float64s(heights)
	med := heights[len(heights)/2]
	tol := med * 0.6
	if tol < 2.0 {
		tol = 2.0
	}
	return tol
}
