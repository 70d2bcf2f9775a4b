package constants

// SkipReason explains why a level did not run. Reasons are data, not errors:
// a skipped level never aborts the pipeline.
type SkipReason string

const (
	SkipDisabled           SkipReason = "disabled"
	SkipNoTokens           SkipReason = "no layout tokens"
	SkipMissingCredentials SkipReason = "missing credentials"
	SkipBackendError       SkipReason = "backend error"
	SkipTimeout            SkipReason = "timeout"
	SkipNotTriggered       SkipReason = "fallback not triggered"
)
