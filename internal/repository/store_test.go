package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/invoice-extractor/constants"
	"github.com/ledgerline/invoice-extractor/internal/extraction"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Init(context.Background()))
	return store
}

func sampleMerged() extraction.Merged {
	res := extraction.NewResult(constants.LevelRuleBased)
	res.Put(extraction.Field{Name: constants.FieldInvoiceNumber, Value: "1001", Confidence: 0.9})
	res.Put(extraction.Field{Name: constants.FieldInvoiceDate, Value: "2024-03-15", Confidence: 0.85})
	res.Put(extraction.Field{Name: constants.FieldTotal, Value: "1250.00", Confidence: 0.9})

	m := extraction.NewMerged()
	m.Apply(res)
	m.LevelsRun = []constants.Level{constants.LevelRuleBased}
	m.Errors = []string{"RULE_BASED: tax inferred from subtotal and total"}
	return m
}

func TestSaveAndListExtractions(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id, err := store.SaveExtraction(ctx, "invoice-1001.txt", sampleMerged(), true)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	recs, err := store.ListExtractions(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	r := recs[0]
	assert.Equal(t, id, r.ID)
	assert.Equal(t, "invoice-1001.txt", r.DocumentID)
	assert.Equal(t, "1001", r.InvoiceNumber)
	assert.Equal(t, "2024-03-15", r.InvoiceDate)
	assert.Equal(t, "1250.00", r.Total)
	assert.Empty(t, r.VendorName)
	assert.InDelta(t, 3.0/7.0, r.ExtractionRate, 1e-9)
	assert.True(t, r.NeedsReview)
	assert.Equal(t, "RULE_BASED", r.LevelsRun)
	assert.Contains(t, r.Errors, "tax inferred")
	assert.False(t, r.CreatedAt.IsZero())

	// Per-field provenance survives the roundtrip.
	assert.Contains(t, r.FieldsJSON, `"source_level":"RULE_BASED"`)
	assert.Contains(t, r.FieldsJSON, `"invoice_number"`)
}

func TestListExtractionsEmpty(t *testing.T) {
	store := openTestStore(t)
	recs, err := store.ListExtractions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRebind(t *testing.T) {
	s := &Store{postgres: true}
	assert.Equal(t, "INSERT INTO t VALUES ($1, $2, $3)", s.rebind("INSERT INTO t VALUES (?, ?, ?)"))
	s.postgres = false
	assert.Equal(t, "INSERT INTO t VALUES (?, ?)", s.rebind("INSERT INTO t VALUES (?, ?)"))
}
