package rulebased

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/invoice-extractor/constants"
)

const sampleInvoice = "Invoice #1001\nDate: 2024-03-15\nTotal Due: $1,250.00"

func TestExtractSampleInvoice(t *testing.T) {
	res := New(nil).Extract(sampleInvoice)

	require.True(t, res.Has(constants.FieldInvoiceNumber))
	num := res.Fields[constants.FieldInvoiceNumber]
	assert.Equal(t, "1001", num.Value)
	assert.Equal(t, 0.9, num.Confidence)
	assert.Equal(t, constants.LevelRuleBased, num.Source)

	require.True(t, res.Has(constants.FieldInvoiceDate))
	assert.Equal(t, "2024-03-15", res.Fields[constants.FieldInvoiceDate].Value)

	require.True(t, res.Has(constants.FieldTotal))
	total := res.Fields[constants.FieldTotal]
	assert.Equal(t, "1250.00", total.Value)
	assert.Equal(t, 0.9, total.Confidence)

	// A bare "$" is an amount marker, not a currency declaration.
	assert.False(t, res.Has(constants.FieldCurrency))
	assert.False(t, res.Has(constants.FieldVendorName))
}

func TestExtractEmptyText(t *testing.T) {
	for _, in := range []string{"", "   \n\t  "} {
		res := New(nil).Extract(in)
		assert.Empty(t, res.Fields)
		assert.Empty(t, res.Errors)
	}
}

func TestExtractInvoiceNumberNegativeRules(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"label rejected", "Invoice Total: $10.00\nInvoice INV-42 enclosed", "INV-42"},
		{"needs a digit", "Invoice ABC attached, see invoice 20240", "20240"},
		{"short all digits rejected", "Invoice 42", ""},
		{"alphanumeric accepted", "Invoice No: A-17", "A-17"},
		{"hash form", "INVOICE #2024-0042", "2024-0042"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := New(nil).Extract(tt.text)
			if tt.want == "" {
				assert.False(t, res.Has(constants.FieldInvoiceNumber))
				return
			}
			require.True(t, res.Has(constants.FieldInvoiceNumber))
			assert.Equal(t, tt.want, res.Fields[constants.FieldInvoiceNumber].Value)
		})
	}
}

func TestExtractDateConfidence(t *testing.T) {
	res := New(nil).Extract("Invoice Date: 2024-03-15")
	require.True(t, res.Has(constants.FieldInvoiceDate))
	assert.Equal(t, 0.85, res.Fields[constants.FieldInvoiceDate].Confidence)

	res = New(nil).Extract("Invoice Date: 15/03/2024")
	require.True(t, res.Has(constants.FieldInvoiceDate))
	f := res.Fields[constants.FieldInvoiceDate]
	assert.Equal(t, "2024-03-15", f.Value)
	assert.Equal(t, 0.7, f.Confidence, "ambiguous ordering lowers confidence")
}

func TestExtractAmountOCRVariants(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"clean dollar", "Total Due: $1,798.39", "1798.39"},
		{"s for dollar", "Total Due: S1,798.39", "1798.39"},
		{"five space for dollar", "Total Due: 5 1,798.39", "1798.39"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := New(nil).Extract(tt.text)
			require.True(t, res.Has(constants.FieldTotal))
			f := res.Fields[constants.FieldTotal]
			assert.Equal(t, tt.want, f.Value)
			if tt.name != "clean dollar" {
				assert.Less(t, f.Confidence, 0.9, "OCR repair lowers confidence")
			}
		})
	}
}

func TestExtractVendor(t *testing.T) {
	res := New(nil).Extract("From: Acme Corporation\nInvoice #1001")
	require.True(t, res.Has(constants.FieldVendorName))
	f := res.Fields[constants.FieldVendorName]
	assert.Equal(t, "Acme Corporation", f.Value)
	assert.Equal(t, 0.8, f.Confidence)

	// Header heuristic: a company-looking line near the top.
	res = New(nil).Extract("INVOICE\nGlobex Industries\n123 Main Street\nTotal: $5.00")
	require.True(t, res.Has(constants.FieldVendorName))
	f = res.Fields[constants.FieldVendorName]
	assert.Equal(t, "Globex Industries", f.Value)
	assert.Equal(t, 0.5, f.Confidence)
}

func TestExtractCurrencyExplicitOnly(t *testing.T) {
	res := New(nil).Extract("Currency: EUR\nTotal: 100.00")
	require.True(t, res.Has(constants.FieldCurrency))
	f := res.Fields[constants.FieldCurrency]
	assert.Equal(t, "EUR", f.Value)
	assert.Equal(t, 0.9, f.Confidence)

	res = New(nil).Extract("All amounts in USD.\nTotal: 100.00")
	require.True(t, res.Has(constants.FieldCurrency))
	assert.Equal(t, "USD", res.Fields[constants.FieldCurrency].Value)
	assert.Equal(t, 0.85, res.Fields[constants.FieldCurrency].Confidence)
}

func TestInferMissingTax(t *testing.T) {
	res := New(nil).Extract("Subtotal: $100.00\nTotal Due: $108.00")
	require.True(t, res.Has(constants.FieldTax))
	f := res.Fields[constants.FieldTax]
	assert.Equal(t, "8.00", f.Value)
	assert.Equal(t, 0.5, f.Confidence)
	assert.Contains(t, res.Errors, "tax inferred from subtotal and total")
}

func TestInferMissingTaxSkipsNegative(t *testing.T) {
	res := New(nil).Extract("Subtotal: $200.00\nTotal Due: $108.00")
	assert.False(t, res.Has(constants.FieldTax))
}

func TestTotalsAdvisory(t *testing.T) {
	res := New(nil).Extract("Subtotal: $100.00\nTax: $8.00\nTotal Due: $150.00")
	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Errors[0], "totals inconsistent")
	// Fields are kept despite the inconsistency.
	assert.Equal(t, "150.00", res.Fields[constants.FieldTotal].Value)
}

func TestVATPreferredOverGenericTax(t *testing.T) {
	res := New(nil).Extract("VAT (20%): €20.00\nTotal: €120.00")
	require.True(t, res.Has(constants.FieldTax))
	f := res.Fields[constants.FieldTax]
	assert.Equal(t, "20.00", f.Value)
	assert.Equal(t, 0.9, f.Confidence)
}
