package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/invoice-extractor/constants"
	"github.com/ledgerline/invoice-extractor/internal/async"
	"github.com/ledgerline/invoice-extractor/internal/common"
	"github.com/ledgerline/invoice-extractor/internal/export"
	"github.com/ledgerline/invoice-extractor/internal/extraction/semantic"
	"github.com/ledgerline/invoice-extractor/internal/extraction/semantic/googleai"
	"github.com/ledgerline/invoice-extractor/internal/extraction/semantic/openai"
	"github.com/ledgerline/invoice-extractor/internal/layout"
	"github.com/ledgerline/invoice-extractor/internal/pipeline"
	"github.com/ledgerline/invoice-extractor/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir     = flag.String("dir", "", "directory of document text files to process (required)")
		out     = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		db      = flag.String("db", "", "database DSN (optional, defaults to DB_URL or in-memory SQLite)")
		workers = flag.Int("workers", 4, "number of concurrent extraction workers")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		parentDir := filepath.Dir(*dir)
		*out = filepath.Join(parentDir, "invoices.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	dsn := *db
	if dsn == "" {
		dsn = cfg.Database.DSN
	}
	if dsn == "" {
		dsn = ":memory:"
	}
	store, err := repository.Open(dsn, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close database", "error", cerr)
		}
	}()
	if err := store.Init(ctx); err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	backend := buildBackend(cfg, logger)
	orch := pipeline.New(pipeline.ConfigFromEnv(cfg), backend, logger)
	source := layout.NewFileSource()

	// Walk the directory for text documents; token sidecars are picked up
	// automatically by the source.
	var paths []string
	err = filepath.WalkDir(*dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			logger.Error("walk error", "path", path, "error", walkErr)
			return nil
		}
		if d.IsDir() || strings.HasPrefix(filepath.Base(path), ".") {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".txt") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		logger.Error("failed to walk directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	logger.Info("starting batch", "dir", *dir, "documents", len(paths), "workers", *workers)

	queue := async.NewDocumentQueue(orch, source, store, logger, async.WithWorkers(*workers))
	for _, path := range paths {
		_ = queue.Enqueue(ctx, async.Job{
			Path:        path,
			SubmittedAt: time.Now(),
			TraceID:     uuid.New().String(),
		})
	}
	queue.Shutdown(ctx)
	stats := queue.StatsSnapshot()

	logger.Info("exporting to XLSX", "output", *out)
	exportService := export.NewService(store, logger)
	xlsxBytes, err := exportService.ExportExtractionsXLSX(ctx)
	if err != nil {
		logger.Error("failed to export extractions", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	logger.Info("batch processing complete",
		"documents", len(paths),
		"processed", stats.Processed,
		"failures", stats.Failed,
		"needs_review", stats.NeedsReview,
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Documents: %d\n", len(paths))
	fmt.Printf("- Processed: %d\n", stats.Processed)
	fmt.Printf("- Failures: %d\n", stats.Failed)
	fmt.Printf("- Needs review: %d\n", stats.NeedsReview)
	fmt.Printf("- Output: %s\n", *out)
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
