package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/ledgerline/invoice-extractor/constants"
	"github.com/ledgerline/invoice-extractor/internal/common"
	"github.com/ledgerline/invoice-extractor/internal/extraction/semantic"
	"github.com/ledgerline/invoice-extractor/internal/extraction/semantic/googleai"
	"github.com/ledgerline/invoice-extractor/internal/extraction/semantic/openai"
	"github.com/ledgerline/invoice-extractor/internal/layout"
	"github.com/ledgerline/invoice-extractor/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		textPath   = flag.String("text", "", "path to the document text file (required)")
		tokensPath = flag.String("tokens", "", "path to a positioned-tokens JSON file (optional; defaults to <text>.tokens.json if present)")
		pretty     = flag.Bool("pretty", false, "indent the JSON output")
	)
	flag.Parse()

	if *textPath == "" {
		printError("Error: --text is required\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	source := layout.NewFileSource()
	doc, err := source.Load(*textPath)
	if err != nil {
		logger.Error("failed to load document", "path", *textPath, "error", err)
		os.Exit(1)
	}
	if *tokensPath != "" {
		tokens, err := source.LoadTokens(*tokensPath)
		if err != nil {
			logger.Error("failed to load tokens", "path", *tokensPath, "error", err)
			os.Exit(1)
		}
		doc.Tokens = tokens
	}

	backend := buildBackend(cfg, logger)
	orch := pipeline.New(pipeline.ConfigFromEnv(cfg), backend, logger)

	merged := orch.Run(context.Background(), doc.RawText, doc.Tokens)

	var out []byte
	if *pretty {
		out, err = json.MarshalIndent(merged, "", "  ")
	} else {
		out, err = json.Marshal(merged)
	}
	if err != nil {
		logger.Error("failed to encode result", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

// buildBackend wires the configured semantic backend; a missing API key or an
// unknown backend name yields nil, which the pipeline reports as a skip.
func buildBackend(cfg *common.Config, logger *slog.Logger) semantic.Backend {
	if cfg.Semantic.APIKey == "" {
		logger.Warn("semantic API key not configured, semantic level will be skipped")
		return nil
	}
	switch constants.ParseBackend(cfg.Semantic.Backend) {
	case constants.BackendOpenAI:
		return openai.NewClient(openai.Config{
			APIKey:      cfg.Semantic.APIKey,
			Model:       cfg.Semantic.Model,
			Temperature: cfg.Semantic.Temperature,
			Timeout:     cfg.Semantic.Timeout,
		}, logger)
	case constants.BackendDocumentAI:
		return googleai.NewClient(googleai.Config{
			APIKey:  cfg.Semantic.APIKey,
			Model:   cfg.Semantic.Model,
			Timeout: cfg.Semantic.Timeout,
		}, logger)
	default:
		logger.Warn("unknown semantic backend, semantic level will be skipped",
			"backend", cfg.Semantic.Backend)
		return nil
	}
}
