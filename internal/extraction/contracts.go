package extraction

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/invoice-extractor/constants"
)

// Field is one extracted accounting attribute together with its provenance.
// Value is the normalized canonical form: amounts as fixed two-decimal
// strings, dates as YYYY-MM-DD, currency as an ISO 4217 code. Amount is set
// only for monetary fields and mirrors Value.
type Field struct {
	Name       constants.FieldName `json:"-"`
	Value      string              `json:"value"`
	Amount     decimal.Decimal     `json:"-"`
	Confidence float64             `json:"confidence"`
	Source     constants.Level     `json:"source_level"`
	RawSpan    string              `json:"raw_span,omitempty"`
}

// Result is the aggregate output of a single extractor run. A field is
// present in Fields only if the extractor produced a value for it; Errors
// collects non-fatal issues in the order they were encountered.
type Result struct {
	Level  constants.Level
	Fields map[constants.FieldName]Field
	Errors []string
}

// NewResult returns an empty result for the given level.
func NewResult(level constants.Level) Result {
	return Result{Level: level, Fields: make(map[constants.FieldName]Field)}
}

// Put records a field, stamping it with the result's level. Extractors set
// each field at most once; a later Put for the same name replaces the value.
func (r *Result) Put(f Field) {
	f.Source = r.Level
	r.Fields[f.Name] = f
}

// Has reports whether the result produced a value for the named field.
func (r *Result) Has(name constants.FieldName) bool {
	_, ok := r.Fields[name]
	return ok
}

// AddError appends a non-fatal issue to the result.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// Token is a unit of recognized text with its page-local bounding box,
// produced by an external text/layout source. Coordinates use a top-left
// origin with y growing downward. Tokens are consumed read-only.
type Token struct {
	Text string  `json:"text"`
	X0   float64 `json:"x0"`
	Y0   float64 `json:"y0"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	Page int     `json:"page"`
}

// Valid reports whether the bounding box has positive extent.
func (t Token) Valid() bool {
	return t.X1 > t.X0 && t.Y1 > t.Y0
}

// CenterX returns the horizontal center of the bounding box.
func (t Token) CenterX() float64 { return (t.X0 + t.X1) / 2 }

// CenterY returns the vertical center of the bounding box.
func (t Token) CenterY() float64 { return (t.Y0 + t.Y1) / 2 }

// Height returns the box height.
func (t Token) Height() float64 { return t.Y1 - t.Y0 }

// Distance returns the Euclidean distance between the box centers of two
// tokens.
func (t Token) Distance(other Token) float64 {
	dx := t.CenterX() - other.CenterX()
	dy := t.CenterY() - other.CenterY()
	return math.Sqrt(dx*dx + dy*dy)
}
