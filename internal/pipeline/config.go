package pipeline

import (
	"time"

	"github.com/ledgerline/invoice-extractor/internal/common"
)

// Config controls which levels run and how the merged result is judged.
type Config struct {
	EnableStructural bool
	EnableSemantic   bool

	// SemanticTimeout bounds a single backend lookup.
	SemanticTimeout time.Duration

	// MinExtractionRate is the review threshold: merged results below it are
	// flagged for manual review, and in fallback-only mode it decides whether
	// the semantic level is worth its cost.
	MinExtractionRate float64

	// FallbackCurrency fills the currency field when no level produced one.
	// Empty disables the fallback.
	FallbackCurrency string

	// SemanticFallbackOnly gates the semantic level on the cheaper levels
	// having come up short (missing total or currency, or a low rate).
	SemanticFallbackOnly bool
}

// DefaultConfig returns the standard three-level setup.
func DefaultConfig() Config {
	return Config{
		EnableStructural:  true,
		EnableSemantic:    true,
		SemanticTimeout:   30 * time.Second,
		MinExtractionRate: 0.6,
		FallbackCurrency:  "USD",
	}
}

// ConfigFromEnv maps the application environment config onto a pipeline
// config.
func ConfigFromEnv(c *common.Config) Config {
	return Config{
		EnableStructural:     c.Pipeline.EnableStructural,
		EnableSemantic:       c.Pipeline.EnableSemantic,
		SemanticTimeout:      c.Semantic.Timeout,
		MinExtractionRate:    c.Pipeline.MinExtractionRate,
		FallbackCurrency:     c.Pipeline.FallbackCurrency,
		SemanticFallbackOnly: c.Pipeline.FallbackOnly,
	}
}
