package extraction

import (
	"encoding/json"

	"github.com/ledgerline/invoice-extractor/constants"
)

// SkippedLevel records a level that did not run and why.
type SkippedLevel struct {
	Level  constants.Level      `json:"level"`
	Reason constants.SkipReason `json:"reason"`
}

// Merged is the orchestrator's final output: the winning field per name,
// which levels ran or were skipped, advisory errors collected across levels,
// and the aggregate quality numbers. It is the only entity handed downstream.
type Merged struct {
	Fields            map[constants.FieldName]Field
	LevelsRun         []constants.Level
	LevelsSkipped     []SkippedLevel
	Errors            []string
	ExtractionRate    float64
	OverallConfidence float64
}

// NewMerged returns an empty merged result.
func NewMerged() Merged {
	return Merged{Fields: make(map[constants.FieldName]Field)}
}

// Apply folds a level's result into the merged field map. Every field the
// level produced overwrites the current winner regardless of confidence, as
// long as the level's trust rank is not lower; fields the level did not
// produce are retained from lower-trust levels. Aggregates are recomputed
// afterwards.
func (m *Merged) Apply(res Result) {
	for name, f := range res.Fields {
		if cur, ok := m.Fields[name]; ok && cur.Source.TrustRank() > f.Source.TrustRank() {
			continue
		}
		m.Fields[name] = f
	}
	m.Recompute()
}

// Recompute refreshes extraction_rate and overall_confidence from the field
// map. Fields filled from configuration defaults (SourceDefault) count toward
// neither: extraction_rate measures what the levels actually extracted, and a
// default carries no extraction confidence.
func (m *Merged) Recompute() {
	extracted := 0
	confSum := 0.0
	for _, f := range m.Fields {
		if f.Source == constants.SourceDefault {
			continue
		}
		extracted++
		confSum += f.Confidence
	}
	m.ExtractionRate = float64(extracted) / float64(constants.NumCanonicalFields)
	if extracted > 0 {
		m.OverallConfidence = confSum / float64(extracted)
	} else {
		m.OverallConfidence = 0
	}
}

// mergedWire is the serialized shape: a flat field map plus aggregates.
type mergedWire struct {
	Fields            map[constants.FieldName]Field `json:"fields"`
	LevelsRun         []constants.Level             `json:"levels_run"`
	LevelsSkipped     []SkippedLevel                `json:"levels_skipped"`
	Errors            []string                      `json:"errors,omitempty"`
	ExtractionRate    float64                       `json:"extraction_rate"`
	OverallConfidence float64                       `json:"overall_confidence"`
}

// MarshalJSON serializes the merged result as a flat mapping
// field -> {value, confidence, source_level} plus the aggregates.
func (m Merged) MarshalJSON() ([]byte, error) {
	return json.Marshal(mergedWire{
		Fields:            m.Fields,
		LevelsRun:         m.LevelsRun,
		LevelsSkipped:     m.LevelsSkipped,
		Errors:            m.Errors,
		ExtractionRate:    m.ExtractionRate,
		OverallConfidence: m.OverallConfidence,
	})
}
