package constants

// Level identifies one extraction strategy, ordered by increasing trust.
type Level string

// Stable values (store these exact strings downstream).
const (
	LevelRuleBased  Level = "RULE_BASED" // regex/heuristics over raw text
	LevelStructural Level = "STRUCTURAL" // geometry-aware, over positioned tokens
	LevelSemantic   Level = "SEMANTIC"   // external ML/LLM capability

	// SourceDefault marks a field filled from configuration rather than by
	// any extraction level (currently only the currency fallback).
	SourceDefault Level = "DEFAULT"
)

// TrustRank returns the merge precedence of a level. Higher wins.
// SourceDefault ranks below every real level.
func (l Level) TrustRank() int {
	switch l {
	case LevelRuleBased:
		return 1
	case LevelStructural:
		return 2
	case LevelSemantic:
		return 3
	}
	return 0
}
