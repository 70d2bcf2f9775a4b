package async

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/invoice-extractor/internal/layout"
	"github.com/ledgerline/invoice-extractor/internal/pipeline"
)

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDocumentQueueProcessesJobs(t *testing.T) {
	dir := t.TempDir()
	good := writeDoc(t, dir, "a.txt",
		"From: Acme Corporation\nInvoice #1001\nDate: 2024-03-15\nSubtotal: $1,000.00\nTax: $250.00\nTotal Due: $1,250.00\nCurrency: USD")
	sparse := writeDoc(t, dir, "b.txt", "nothing to see")

	cfg := pipeline.DefaultConfig()
	cfg.EnableSemantic = false
	orch := pipeline.New(cfg, nil, nil)

	q := NewDocumentQueue(orch, layout.NewFileSource(), nil, nil, WithWorkers(2), WithQueueSize(4))
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, Job{Path: good, SubmittedAt: time.Now()}))
	require.NoError(t, q.Enqueue(ctx, Job{Path: sparse, SubmittedAt: time.Now()}))
	require.NoError(t, q.Enqueue(ctx, Job{Path: filepath.Join(dir, "absent.txt")}))
	q.Shutdown(ctx)

	stats := q.StatsSnapshot()
	assert.Equal(t, uint32(2), stats.Processed)
	assert.Equal(t, uint32(1), stats.Failed)
	assert.Equal(t, uint32(1), stats.NeedsReview, "sparse document falls below the review threshold")
}

func TestDocumentQueueEnqueueAfterShutdown(t *testing.T) {
	cfg := pipeline.DefaultConfig()
	cfg.EnableSemantic = false
	q := NewDocumentQueue(pipeline.New(cfg, nil, nil), layout.NewFileSource(), nil, nil, WithWorkers(1))

	ctx := context.Background()
	q.Shutdown(ctx)
	require.NoError(t, q.Enqueue(ctx, Job{Path: "ignored.txt"}))
	q.Shutdown(ctx) // idempotent

	assert.Zero(t, q.StatsSnapshot().Processed)
}
