package semantic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeResponse(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		want      map[string]any
		wantConfs map[string]float64
		wantErr   bool
	}{
		{
			name: "synonym renames",
			in:   `{"date": "2024-03-15", "invoice_no": "1001", "merchant_name": "Acme"}`,
			want: map[string]any{
				"invoice_date":   "2024-03-15",
				"invoice_number": "1001",
				"vendor_name":    "Acme",
			},
		},
		{
			name: "synonym never clobbers canonical key",
			in:   `{"total": "10.00", "amount_due": "99.00"}`,
			want: map[string]any{"total": "10.00"},
		},
		{
			name:      "wrapper objects unwrap with confidence",
			in:        `{"total": {"value": "12.00", "confidence": 0.8}}`,
			want:      map[string]any{"total": "12.00"},
			wantConfs: map[string]float64{"total": 0.8},
		},
		{
			name: "numbers coerce to two decimals",
			in:   `{"total": 1250, "tax": 19.5}`,
			want: map[string]any{"total": "1250.00", "tax": "19.50"},
		},
		{
			name: "nulls and empties dropped",
			in:   `{"total": null, "vendor_name": "  ", "tax": "null", "currency": "usd"}`,
			want: map[string]any{"currency": "USD"},
		},
		{
			name: "unknown keys dropped",
			in:   `{"total": "5.00", "line_items": [1, 2], "notes": "x"}`,
			want: map[string]any{"total": "5.00"},
		},
		{
			name:    "non-object input fails",
			in:      `[1, 2, 3]`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, confs, _, err := NormalizeResponse([]byte(tt.in))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			var got map[string]any
			require.NoError(t, json.Unmarshal(out, &got))
			assert.Equal(t, tt.want, got)
			for k, v := range tt.wantConfs {
				assert.Equal(t, v, confs[k])
			}
		})
	}
}
