package extraction

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/invoice-extractor/constants"
)

func TestMergedApplyOverridesRegardlessOfConfidence(t *testing.T) {
	low := NewResult(constants.LevelRuleBased)
	low.Put(Field{Name: constants.FieldVendorName, Value: "ACME", Confidence: 0.95})
	low.Put(Field{Name: constants.FieldTotal, Value: "1250.00", Confidence: 0.9})

	high := NewResult(constants.LevelSemantic)
	high.Put(Field{Name: constants.FieldVendorName, Value: "Acme Corporation", Confidence: 0.6})

	m := NewMerged()
	m.Apply(low)
	m.Apply(high)

	// The later (higher-trust) level wins even with lower confidence.
	assert.Equal(t, "Acme Corporation", m.Fields[constants.FieldVendorName].Value)
	assert.Equal(t, constants.LevelSemantic, m.Fields[constants.FieldVendorName].Source)
	// Fields the later level did not produce are retained.
	assert.Equal(t, "1250.00", m.Fields[constants.FieldTotal].Value)
	assert.Equal(t, constants.LevelRuleBased, m.Fields[constants.FieldTotal].Source)
}

func TestMergedRecompute(t *testing.T) {
	res := NewResult(constants.LevelRuleBased)
	res.Put(Field{Name: constants.FieldInvoiceNumber, Value: "1001", Confidence: 0.9})
	res.Put(Field{Name: constants.FieldTotal, Value: "1250.00", Confidence: 0.8})

	m := NewMerged()
	m.Apply(res)

	assert.InDelta(t, 2.0/7.0, m.ExtractionRate, 1e-9)
	assert.InDelta(t, 0.85, m.OverallConfidence, 1e-9)
}

func TestMergedRecomputeExcludesDefaults(t *testing.T) {
	res := NewResult(constants.LevelRuleBased)
	res.Put(Field{Name: constants.FieldTotal, Value: "1250.00", Confidence: 0.8})

	m := NewMerged()
	m.Apply(res)
	m.Fields[constants.FieldCurrency] = Field{
		Name:   constants.FieldCurrency,
		Value:  "USD",
		Source: constants.SourceDefault,
	}
	m.Recompute()

	// A configured default is not an extraction.
	assert.InDelta(t, 1.0/7.0, m.ExtractionRate, 1e-9)
	assert.InDelta(t, 0.8, m.OverallConfidence, 1e-9)
}

func TestMergedRecomputeEmpty(t *testing.T) {
	m := NewMerged()
	m.Recompute()
	assert.Zero(t, m.ExtractionRate)
	assert.Zero(t, m.OverallConfidence)
}

func TestMergedMarshalJSON(t *testing.T) {
	res := NewResult(constants.LevelRuleBased)
	res.Put(Field{Name: constants.FieldTotal, Value: "1250.00", Confidence: 0.9, RawSpan: "Total Due: $1,250.00"})

	m := NewMerged()
	m.Apply(res)
	m.LevelsRun = append(m.LevelsRun, constants.LevelRuleBased)
	m.LevelsSkipped = append(m.LevelsSkipped, SkippedLevel{
		Level:  constants.LevelStructural,
		Reason: constants.SkipNoTokens,
	})

	raw, err := json.Marshal(m)
	require.NoError(t, err)

	var wire struct {
		Fields map[string]struct {
			Value       string  `json:"value"`
			Confidence  float64 `json:"confidence"`
			SourceLevel string  `json:"source_level"`
		} `json:"fields"`
		LevelsRun     []string `json:"levels_run"`
		LevelsSkipped []struct {
			Level  string `json:"level"`
			Reason string `json:"reason"`
		} `json:"levels_skipped"`
		ExtractionRate    float64 `json:"extraction_rate"`
		OverallConfidence float64 `json:"overall_confidence"`
	}
	require.NoError(t, json.Unmarshal(raw, &wire))

	require.Contains(t, wire.Fields, "total")
	assert.Equal(t, "1250.00", wire.Fields["total"].Value)
	assert.Equal(t, "RULE_BASED", wire.Fields["total"].SourceLevel)
	assert.Equal(t, []string{"RULE_BASED"}, wire.LevelsRun)
	require.Len(t, wire.LevelsSkipped, 1)
	assert.Equal(t, "no layout tokens", wire.LevelsSkipped[0].Reason)
	assert.InDelta(t, 1.0/7.0, wire.ExtractionRate, 1e-9)
}
