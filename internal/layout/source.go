// Package layout loads documents for extraction: the raw OCR text plus,
// when the OCR engine produced them, positioned tokens with bounding boxes.
package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledgerline/invoice-extractor/internal/extraction"
)

// Document is one unit of extraction input. Tokens may be empty: plain text
// documents simply skip the geometry level.
type Document struct {
	ID      string
	RawText string
	Tokens  []extraction.Token
}

// Source yields documents for the pipeline.
type Source interface {
	Load(path string) (Document, error)
}

// FileSource reads a document from a UTF-8 text file and, when a sibling
// <name>.tokens.json exists, its positioned tokens.
type FileSource struct{}

func NewFileSource() *FileSource { return &FileSource{} }

func (s *FileSource) Load(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read text: %w", err)
	}
	doc := Document{
		ID:      filepath.Base(path),
		RawText: string(raw),
	}

	tokens, err := s.loadTokens(tokensPathFor(path))
	if err != nil {
		return Document{}, err
	}
	doc.Tokens = tokens
	return doc, nil
}

// LoadTokens reads positioned tokens from an explicit JSON file.
func (s *FileSource) LoadTokens(path string) ([]extraction.Token, error) {
	return s.loadTokens(path)
}

func (s *FileSource) loadTokens(path string) ([]extraction.Token, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read tokens: %w", err)
	}
	var tokens []extraction.Token
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return nil, fmt.Errorf("decode tokens %s: %w", filepath.Base(path), err)
	}
	return tokens, nil
}

// tokensPathFor maps invoice.txt to invoice.tokens.json.
func tokensPathFor(textPath string) string {
	ext := filepath.Ext(textPath)
	return strings.TrimSuffix(textPath, ext) + ".tokens.json"
}
