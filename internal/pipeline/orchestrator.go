// Package pipeline orchestrates the extraction levels. It runs the rule-based
// level unconditionally, layers the structural and semantic levels on top in
// ascending trust order, and merges their fields so that a higher-trust level
// always wins per field. The pipeline itself never fails: every level problem
// becomes a skip record or an error entry on the merged result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/invoice-extractor/constants"
	"github.com/ledgerline/invoice-extractor/internal/common"
	"github.com/ledgerline/invoice-extractor/internal/extraction"
	"github.com/ledgerline/invoice-extractor/internal/extraction/rulebased"
	"github.com/ledgerline/invoice-extractor/internal/extraction/semantic"
	"github.com/ledgerline/invoice-extractor/internal/extraction/structural"
)

type Orchestrator struct {
	cfg        Config
	ruleBased  *rulebased.Extractor
	structural *structural.Extractor
	semantic   *semantic.Extractor
	logger     *slog.Logger
}

// New builds an orchestrator. A nil backend leaves the semantic level
// unconfigured: it will be skipped with a missing-credentials reason rather
// than failing the run.
func New(cfg Config, backend semantic.Backend, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		cfg:        cfg,
		ruleBased:  rulebased.New(logger),
		structural: structural.New(logger),
		logger:     logger,
	}
	if backend != nil {
		o.semantic = semantic.New(backend, cfg.SemanticTimeout, cfg.FallbackCurrency, logger)
	}
	return o
}

// Run executes the configured levels over one document and returns the merged
// result. It is deterministic for a given input and configuration (up to
// backend replies) and never returns an error: failures are recorded on the
// result.
func (o *Orchestrator) Run(ctx context.Context, rawText string, tokens []extraction.Token) extraction.Merged {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
		ctx = common.WithRequestID(ctx, rid)
	}
	start := time.Now()

	merged := extraction.NewMerged()

	o.logger.Info("pipeline.run.start",
		"req_id", rid,
		"text_len", len(rawText),
		"tokens", len(tokens),
	)

	// RULE_BASED always runs.
	res := o.ruleBased.Extract(rawText)
	o.fold(&merged, res)

	// STRUCTURAL needs positioned tokens.
	switch {
	case !o.cfg.EnableStructural:
		o.skip(&merged, rid, constants.LevelStructural, constants.SkipDisabled)
	case len(tokens) == 0:
		o.skip(&merged, rid, constants.LevelStructural, constants.SkipNoTokens)
	default:
		res := o.structural.Extract(tokens)
		o.fold(&merged, res)
	}

	// SEMANTIC is the most trusted and the most expensive level.
	switch {
	case !o.cfg.EnableSemantic:
		o.skip(&merged, rid, constants.LevelSemantic, constants.SkipDisabled)
	case o.semantic == nil:
		o.skip(&merged, rid, constants.LevelSemantic, constants.SkipMissingCredentials)
	case o.cfg.SemanticFallbackOnly && !o.needsSemantic(merged):
		o.skip(&merged, rid, constants.LevelSemantic, constants.SkipNotTriggered)
	default:
		res, err := o.semantic.Extract(ctx, rawText)
		if err != nil {
			reason := constants.SkipBackendError
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				reason = constants.SkipTimeout
			}
			o.skip(&merged, rid, constants.LevelSemantic, reason)
			merged.Errors = append(merged.Errors,
				fmt.Sprintf("%s: %v", constants.LevelSemantic, err))
		} else {
			o.fold(&merged, res)
		}
	}

	o.applyCurrencyDefault(&merged)

	if msg := extraction.CheckTotals(merged.Fields); msg != "" {
		merged.Errors = append(merged.Errors, msg)
	}

	o.logger.Info("pipeline.run.done",
		"req_id", rid,
		"levels_run", len(merged.LevelsRun),
		"levels_skipped", len(merged.LevelsSkipped),
		"fields", len(merged.Fields),
		"extraction_rate", merged.ExtractionRate,
		"overall_confidence", merged.OverallConfidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return merged
}

// NeedsReview reports whether a merged result falls below the configured
// extraction-rate threshold.
func (o *Orchestrator) NeedsReview(m extraction.Merged) bool {
	return m.ExtractionRate < o.cfg.MinExtractionRate
}

// fold records a completed level and merges its fields and errors.
func (o *Orchestrator) fold(m *extraction.Merged, res extraction.Result) {
	m.LevelsRun = append(m.LevelsRun, res.Level)
	for _, e := range res.Errors {
		m.Errors = append(m.Errors, fmt.Sprintf("%s: %s", res.Level, e))
	}
	m.Apply(res)
}

func (o *Orchestrator) skip(m *extraction.Merged, rid string, level constants.Level, reason constants.SkipReason) {
	m.LevelsSkipped = append(m.LevelsSkipped, extraction.SkippedLevel{Level: level, Reason: reason})
	o.logger.Info("pipeline.level.skipped", "req_id", rid, "level", level, "reason", reason)
}

// needsSemantic decides, in fallback-only mode, whether the cheaper levels
// left enough gaps to justify a backend call: a missing total or currency, or
// a rate below the review threshold.
func (o *Orchestrator) needsSemantic(m extraction.Merged) bool {
	if _, ok := m.Fields[constants.FieldTotal]; !ok {
		return true
	}
	if _, ok := m.Fields[constants.FieldCurrency]; !ok {
		return true
	}
	return m.ExtractionRate < o.cfg.MinExtractionRate
}

// applyCurrencyDefault fills the currency field from configuration when no
// level produced one. The default is marked as such and counts toward neither
// extraction rate nor overall confidence.
func (o *Orchestrator) applyCurrencyDefault(m *extraction.Merged) {
	if o.cfg.FallbackCurrency == "" {
		return
	}
	if _, ok := m.Fields[constants.FieldCurrency]; ok {
		return
	}
	code, ok := extraction.NormalizeCurrency(o.cfg.FallbackCurrency)
	if !ok {
		m.Errors = append(m.Errors,
			fmt.Sprintf("invalid fallback currency %q", o.cfg.FallbackCurrency))
		return
	}
	m.Fields[constants.FieldCurrency] = extraction.Field{
		Name:    constants.FieldCurrency,
		Value:   code,
		Source:  constants.SourceDefault,
		RawSpan: "configured default",
	}
	m.Recompute()
}
