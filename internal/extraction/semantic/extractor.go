// Package semantic implements the model-backed extraction level. A Backend
// answers a schema-constrained lookup over the raw document text; the
// extractor validates, sanitizes, and normalizes the reply into fields. Any
// backend failure surfaces as an error so the orchestrator can skip the level
// without losing fields already extracted elsewhere.
package semantic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/invoice-extractor/constants"
	"github.com/ledgerline/invoice-extractor/internal/extraction"
)

// DefaultConfidence is assigned to fields the backend returned without any
// confidence of its own.
const DefaultConfidence = 0.85

type Extractor struct {
	backend          Backend
	timeout          time.Duration
	fallbackCurrency string
	logger           *slog.Logger
}

func New(backend Backend, timeout time.Duration, fallbackCurrency string, logger *slog.Logger) *Extractor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		backend:          backend,
		timeout:          timeout,
		fallbackCurrency: fallbackCurrency,
		logger:           logger,
	}
}

// Extract runs a single schema-constrained lookup against the backend. On any
// failure — transport, timeout, malformed or schema-invalid reply — it returns
// an error and NO partial fields.
func (e *Extractor) Extract(ctx context.Context, rawText string) (extraction.Result, error) {
	res := extraction.NewResult(constants.LevelSemantic)
	if e.backend == nil {
		return res, fmt.Errorf("no semantic backend configured")
	}

	rid := uuid.New().String()
	start := time.Now()
	schema := BuildInvoiceJSONSchema()

	e.logger.Info("semantic.extract.start",
		"req_id", rid,
		"backend", e.backend.Name(),
		"text_len", len(rawText),
	)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.backend.Lookup(ctx, Request{
		DocumentText:     rawText,
		FieldNames:       FieldNames(),
		Schema:           schema,
		FallbackCurrency: e.fallbackCurrency,
	})
	if err != nil {
		e.logger.Error("semantic.extract.backend_error",
			"req_id", rid, "backend", e.backend.Name(), "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return res, fmt.Errorf("%s lookup: %w", e.backend.Name(), err)
	}

	content := raw
	confidences := map[string]float64{}
	if vErr := ValidateAgainstSchema(schema, content); vErr != nil {
		cleaned, confs, touched, sErr := NormalizeResponse(content)
		if sErr != nil {
			e.logger.Error("semantic.extract.sanitize_failed",
				"req_id", rid, "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return res, fmt.Errorf("sanitize reply: %w", sErr)
		}
		if vErr2 := ValidateAgainstSchema(schema, cleaned); vErr2 != nil {
			e.logger.Error("semantic.extract.schema_validation_failed",
				"req_id", rid, "error", vErr2,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return res, fmt.Errorf("schema validation failed: %w", vErr2)
		}
		e.logger.Warn("semantic.extract.sanitize_applied",
			"req_id", rid, "touched", touched,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		content = cleaned
		confidences = confs
	}

	var doc map[string]any
	if err := json.Unmarshal(content, &doc); err != nil {
		return res, fmt.Errorf("decode reply: %w", err)
	}

	topConf := DefaultConfidence
	if c, ok := doc["confidence"].(float64); ok && c > 0 && c <= 1 {
		topConf = c
	}

	for _, name := range constants.CanonicalFields {
		v, ok := doc[string(name)].(string)
		if !ok || v == "" {
			continue
		}
		f, ok := e.buildField(name, v)
		if !ok {
			res.AddError(fmt.Sprintf("unusable %s value %q", name, v))
			continue
		}
		if c, ok := confidences[string(name)]; ok && c > 0 && c <= 1 {
			f.Confidence = c
		} else {
			f.Confidence = topConf
		}
		res.Put(f)
	}

	if msg := extraction.CheckTotals(res.Fields); msg != "" {
		res.AddError(msg)
	}

	e.logger.Info("semantic.extract.ok",
		"req_id", rid,
		"backend", e.backend.Name(),
		"fields", len(res.Fields),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// buildField normalizes a backend value into a canonical field.
func (e *Extractor) buildField(name constants.FieldName, v string) (extraction.Field, bool) {
	switch {
	case constants.IsAmountField(name):
		value, dec, ok := extraction.NormalizeAmount(v)
		if !ok {
			return extraction.Field{}, false
		}
		return extraction.Field{Name: name, Value: value, Amount: dec, RawSpan: v}, true
	case constants.IsDateField(name):
		iso, ok := extraction.NormalizeDate(v)
		if !ok {
			return extraction.Field{}, false
		}
		return extraction.Field{Name: name, Value: iso, RawSpan: v}, true
	case name == constants.FieldCurrency:
		code, ok := extraction.NormalizeCurrency(v)
		if !ok {
			return extraction.Field{}, false
		}
		return extraction.Field{Name: name, Value: code, RawSpan: v}, true
	default:
		return extraction.Field{Name: name, Value: v, RawSpan: v}, true
	}
}
