// Package repository persists merged extraction results. It speaks plain
// database/sql so the same store runs against embedded SQLite for local use
// and Postgres (via the pgx stdlib driver) in shared deployments.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/ledgerline/invoice-extractor/constants"
	"github.com/ledgerline/invoice-extractor/internal/common"
	"github.com/ledgerline/invoice-extractor/internal/extraction"
)

type Store struct {
	db       *sql.DB
	postgres bool
	logger   *slog.Logger
}

// Open connects to the database named by the DSN. A postgres:// or
// postgresql:// DSN selects the pgx driver; anything else is treated as a
// SQLite path (":memory:" works).
func Open(dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver := "sqlite"
	postgres := false
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = "pgx"
		postgres = true
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, common.NewAppError("DB_OPEN", "open database", err)
	}
	logger.Info("store.open", "driver", driver)
	return &Store{db: db, postgres: postgres, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const createTable = `
CREATE TABLE IF NOT EXISTS extractions (
	id                 TEXT PRIMARY KEY,
	document_id        TEXT NOT NULL,
	invoice_number     TEXT,
	invoice_date       TEXT,
	vendor_name        TEXT,
	subtotal           TEXT,
	tax                TEXT,
	total              TEXT,
	currency           TEXT,
	fields_json        TEXT,
	extraction_rate    REAL NOT NULL,
	overall_confidence REAL NOT NULL,
	needs_review       INTEGER NOT NULL,
	levels_run         TEXT,
	errors             TEXT,
	created_at         TIMESTAMP NOT NULL
)`

// Init creates the extractions table if it does not exist.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return common.NewAppError("DB_INIT", "create extractions table", err)
	}
	return nil
}

// Record is one persisted extraction row.
type Record struct {
	ID                string
	DocumentID        string
	InvoiceNumber     string
	InvoiceDate       string
	VendorName        string
	Subtotal          string
	Tax               string
	Total             string
	Currency          string
	FieldsJSON        string
	ExtractionRate    float64
	OverallConfidence float64
	NeedsReview       bool
	LevelsRun         string
	Errors            string
	CreatedAt         time.Time
}

// SaveExtraction persists one merged result and returns the row ID.
func (s *Store) SaveExtraction(ctx context.Context, documentID string, m extraction.Merged, needsReview bool) (string, error) {
	id := uuid.New().String()
	field := func(name constants.FieldName) string {
		return m.Fields[name].Value
	}
	levels := make([]string, 0, len(m.LevelsRun))
	for _, l := range m.LevelsRun {
		levels = append(levels, string(l))
	}

	// Keep the full per-field provenance (source level, confidence, raw
	// span) alongside the flattened columns.
	fieldsJSON, err := json.Marshal(m.Fields)
	if err != nil {
		return "", common.NewAppError("DB_ENCODE", "encode fields", err)
	}

	query := s.rebind(`INSERT INTO extractions
		(id, document_id, invoice_number, invoice_date, vendor_name,
		 subtotal, tax, total, currency, fields_json,
		 extraction_rate, overall_confidence, needs_review,
		 levels_run, errors, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = s.db.ExecContext(ctx, query,
		id, documentID,
		field(constants.FieldInvoiceNumber),
		field(constants.FieldInvoiceDate),
		field(constants.FieldVendorName),
		field(constants.FieldSubtotal),
		field(constants.FieldTax),
		field(constants.FieldTotal),
		field(constants.FieldCurrency),
		string(fieldsJSON),
		m.ExtractionRate, m.OverallConfidence, boolToInt(needsReview),
		strings.Join(levels, ","), strings.Join(m.Errors, "; "),
		time.Now().UTC(),
	)
	if err != nil {
		return "", common.NewAppError("DB_INSERT", "save extraction", err)
	}
	s.logger.Info("store.save.ok",
		"id", id,
		"document_id", documentID,
		"extraction_rate", m.ExtractionRate,
		"needs_review", needsReview,
	)
	return id, nil
}

// ListExtractions returns all rows, newest first.
func (s *Store) ListExtractions(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, document_id, invoice_number, invoice_date, vendor_name,
		subtotal, tax, total, currency, fields_json,
		extraction_rate, overall_confidence, needs_review,
		levels_run, errors, created_at
		FROM extractions ORDER BY created_at DESC`)
	if err != nil {
		return nil, common.NewAppError("DB_QUERY", "list extractions", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn("store.rows_close_error", "error", cerr)
		}
	}()

	var out []Record
	for rows.Next() {
		var r Record
		var needsReview int
		if err := rows.Scan(
			&r.ID, &r.DocumentID, &r.InvoiceNumber, &r.InvoiceDate, &r.VendorName,
			&r.Subtotal, &r.Tax, &r.Total, &r.Currency, &r.FieldsJSON,
			&r.ExtractionRate, &r.OverallConfidence, &needsReview,
			&r.LevelsRun, &r.Errors, &r.CreatedAt,
		); err != nil {
			return nil, common.NewAppError("DB_SCAN", "scan extraction row", err)
		}
		r.NeedsReview = needsReview != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// rebind converts ?-style placeholders to $n for the Postgres driver.
func (s *Store) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
