package constants

import "strings"

// Backend names the external semantic capability used by the SEMANTIC level.
type Backend string

const (
	BackendOpenAI     Backend = "openai"
	BackendDocumentAI Backend = "google_document_ai"
	BackendNone       Backend = "none"
)

// ParseBackend normalizes a configured backend name. Unknown values map to
// BackendNone so a misconfigured semantic level degrades to a skip, never an
// abort.
func ParseBackend(s string) Backend {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(BackendOpenAI):
		return BackendOpenAI
	case string(BackendDocumentAI):
		return BackendDocumentAI
	}
	return BackendNone
}
