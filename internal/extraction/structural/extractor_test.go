package structural

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/invoice-extractor/constants"
	"github.com/ledgerline/invoice-extractor/internal/extraction"
)

// tok builds a token with a box of height 10 starting at (x, y).
func tok(text string, x, y, w float64) extraction.Token {
	return extraction.Token{Text: text, X0: x, Y0: y, X1: x + w, Y1: y + 10}
}

func TestClusterRows(t *testing.T) {
	tokens := []extraction.Token{
		tok("Total", 10, 100, 40),
		tok("$1,250.00", 200, 101, 60), // same visual row, slightly offset
		tok("Subtotal", 10, 130, 50),
		tok("$1,000.00", 200, 130, 60),
	}
	rows := clusterRows(tokens)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0].tokens, 2)
	assert.Equal(t, "Total", rows[0].tokens[0].Text)
	assert.Equal(t, "$1,250.00", rows[0].tokens[1].Text)
}

func TestClusterRowsSeparatesPages(t *testing.T) {
	a := tok("Total", 10, 100, 40)
	b := tok("$5.00", 200, 100, 40)
	b.Page = 1
	rows := clusterRows([]extraction.Token{a, b})
	assert.Len(t, rows, 2)
}

func TestExtractSameRowPairs(t *testing.T) {
	tokens := []extraction.Token{
		tok("Invoice", 10, 20, 50),
		tok("Number:", 65, 20, 50),
		tok("INV-7001", 200, 20, 60),
		tok("Invoice", 10, 40, 50),
		tok("Date:", 65, 40, 40),
		tok("2024-03-15", 200, 40, 70),
		tok("Total", 10, 200, 40),
		tok("Due:", 55, 200, 30),
		tok("$1,250.00", 200, 200, 60),
	}
	res := New(nil).Extract(tokens)

	require.True(t, res.Has(constants.FieldInvoiceNumber))
	assert.Equal(t, "INV-7001", res.Fields[constants.FieldInvoiceNumber].Value)

	require.True(t, res.Has(constants.FieldInvoiceDate))
	assert.Equal(t, "2024-03-15", res.Fields[constants.FieldInvoiceDate].Value)

	require.True(t, res.Has(constants.FieldTotal))
	f := res.Fields[constants.FieldTotal]
	assert.Equal(t, "1250.00", f.Value)
	assert.Equal(t, constants.LevelStructural, f.Source)
	assert.Greater(t, f.Confidence, 0.5)
}

func TestLabeledTotalOutranksBareTotal(t *testing.T) {
	tokens := []extraction.Token{
		tok("Total", 10, 100, 40),
		tok("$999.99", 200, 100, 50),
		tok("Amount", 10, 130, 45),
		tok("Due:", 60, 130, 30),
		tok("$1,250.00", 200, 130, 60),
	}
	res := New(nil).Extract(tokens)
	require.True(t, res.Has(constants.FieldTotal))
	assert.Equal(t, "1250.00", res.Fields[constants.FieldTotal].Value,
		"higher-rank label wins over a bare total")
}

func TestFormStyleValueBelowLabel(t *testing.T) {
	tokens := []extraction.Token{
		tok("Invoice", 10, 20, 50),
		tok("Date:", 65, 20, 40),
		tok("2024-03-15", 12, 40, 70), // value on the next row, left-aligned with the label
	}
	res := New(nil).Extract(tokens)
	require.True(t, res.Has(constants.FieldInvoiceDate))
	assert.Equal(t, "2024-03-15", res.Fields[constants.FieldInvoiceDate].Value)
}

func TestExtractNoTokens(t *testing.T) {
	res := New(nil).Extract(nil)
	assert.Empty(t, res.Fields)
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, "no positioned tokens", res.Errors[0])
}

func TestExtractDegenerateBoxes(t *testing.T) {
	tokens := []extraction.Token{
		{Text: "Total", X0: 10, Y0: 10, X1: 10, Y1: 10}, // zero extent
		{Text: "$5.00", X0: 50, Y0: 20, X1: 40, Y1: 10}, // inverted
	}
	res := New(nil).Extract(tokens)
	assert.Empty(t, res.Fields)
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, "degenerate geometry: no valid bounding boxes", res.Errors[0])
}

func TestQuantityColumnsAreNotAmounts(t *testing.T) {
	tokens := []extraction.Token{
		tok("Total", 10, 100, 40),
		tok("2", 100, 100, 10), // a bare integer quantity
	}
	res := New(nil).Extract(tokens)
	assert.False(t, res.Has(constants.FieldTotal),
		"integers without decimals or a symbol are not money")
}

func TestCurrencySymbolToken(t *testing.T) {
	tokens := []extraction.Token{
		tok("Currency:", 10, 20, 60),
		tok("EUR", 200, 20, 30),
	}
	res := New(nil).Extract(tokens)
	require.True(t, res.Has(constants.FieldCurrency))
	assert.Equal(t, "EUR", res.Fields[constants.FieldCurrency].Value)
}

func TestVendorFromHeaderRow(t *testing.T) {
	tokens := []extraction.Token{
		tok("Globex", 10, 10, 50),
		tok("Industries", 65, 10, 70),
		tok("Invoice", 10, 40, 50),
		tok("Number:", 65, 40, 50),
		tok("INV-9", 200, 40, 40),
	}
	res := New(nil).Extract(tokens)
	require.True(t, res.Has(constants.FieldVendorName))
	f := res.Fields[constants.FieldVendorName]
	assert.Equal(t, "Globex Industries", f.Value)
	assert.Equal(t, 0.5, f.Confidence)
}

func TestMissingTotalWithAmountsReportsTableError(t *testing.T) {
	tokens := []extraction.Token{
		tok("Widget", 10, 100, 50),
		tok("$12.50", 200, 100, 45),
		tok("Gadget", 10, 120, 50),
		tok("$99.00", 200, 120, 45),
	}
	res := New(nil).Extract(tokens)
	assert.False(t, res.Has(constants.FieldTotal))
	assert.Contains(t, res.Errors, "table region not found for total")
}

func TestMatchLabelFuzzy(t *testing.T) {
	entry, base, ok := matchLabel("Tota1:")
	require.True(t, ok, "edit distance one absorbs OCR damage")
	assert.Equal(t, constants.FieldTotal, entry.field)
	assert.Equal(t, fuzzyLabelBase, base)

	entry, base, ok = matchLabel("Grand Total")
	require.True(t, ok)
	assert.Equal(t, constants.FieldTotal, entry.field)
	assert.Equal(t, exactLabelBase, base)

	_, _, ok = matchLabel("Description")
	assert.False(t, ok)
}
