package semantic

import "context"

// Request is the fixed-shape payload handed to a semantic backend: the
// document text, the fields to extract, and the JSON schema the reply must
// satisfy.
type Request struct {
	DocumentText     string
	FieldNames       []string
	Schema           map[string]any
	FallbackCurrency string
}

// Backend is the narrow boundary to an external ML/LLM capability. Lookup
// returns the backend's reply as a raw JSON document (a flat mapping of
// field name to value); any transport, auth, or shape problem is an error.
// The orchestrator treats every Backend error as a soft skip.
type Backend interface {
	Name() string
	Lookup(ctx context.Context, req Request) ([]byte, error)
}
