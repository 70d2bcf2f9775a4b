// Package export renders persisted extraction results as XLSX workbooks.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ledgerline/invoice-extractor/internal/repository"
)

// Service is a tiny façade over the store that produces XLSX bytes.
type Service struct {
	store  *repository.Store
	logger *slog.Logger
}

func NewService(store *repository.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// ExportExtractionsXLSX returns an XLSX workbook (as bytes) holding every
// persisted extraction, one invoice per row, newest first.
func (s *Service) ExportExtractionsXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	recs, err := s.store.ListExtractions(ctx)
	if err != nil {
		return nil, fmt.Errorf("query extractions: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Invoices"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Document",
		"Invoice Number",
		"Invoice Date",
		"Vendor",
		"Subtotal",
		"Tax",
		"Total",
		"Currency",
		"Extraction Rate",
		"Confidence",
		"Needs Review",
		"Errors",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.DocumentID)
		write(2, r.InvoiceNumber)
		write(3, r.InvoiceDate)
		write(4, truncate(r.VendorName, 60))
		write(5, r.Subtotal)
		write(6, r.Tax)
		write(7, r.Total)
		write(8, r.Currency)
		write(9, fmt.Sprintf("%.2f", r.ExtractionRate))
		write(10, fmt.Sprintf("%.2f", r.OverallConfidence))
		if r.NeedsReview {
			write(11, "YES")
		} else {
			write(11, "")
		}
		write(12, truncate(r.Errors, 140))

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 40) // document
	_ = f.SetColWidth(sheet, "B", "C", 16)
	_ = f.SetColWidth(sheet, "D", "D", 28) // vendor
	_ = f.SetColWidth(sheet, "E", "H", 12)
	_ = f.SetColWidth(sheet, "I", "K", 14)
	_ = f.SetColWidth(sheet, "L", "L", 48) // errors

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
