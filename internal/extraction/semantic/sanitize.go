package semantic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ledgerline/invoice-extractor/constants"
)

// fieldSynonyms renames keys backends commonly use to our schema names.
var fieldSynonyms = map[string]string{
	"date":          "invoice_date",
	"invoice_no":    "invoice_number",
	"invoicenumber": "invoice_number",
	"vendor":        "vendor_name",
	"merchant_name": "vendor_name",
	"supplier":      "vendor_name",
	"amount_due":    "total",
	"total_due":     "total",
	"currency_code": "currency",
}

var moneyKeys = []string{"subtotal", "tax", "total"}

// NormalizeResponse cleans a backend reply so it can validate against the
// invoice schema:
//   - renames known synonyms (date -> invoice_date)
//   - unwraps {value, confidence} objects, collecting per-field confidences
//   - coerces numeric money values to two-decimal strings
//   - drops null/empty values and unknown keys
//
// It returns the cleaned document, per-field confidences where the backend
// supplied them, and the list of keys it touched.
func NormalizeResponse(raw []byte) ([]byte, map[string]float64, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, nil, fmt.Errorf("decode backend reply: %w", err)
	}

	var touched []string
	confidences := make(map[string]float64)

	// 1) rename synonyms
	for from, to := range fieldSynonyms {
		if v, ok := m[from]; ok {
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			touched = append(touched, from+"->"+to)
		}
	}

	// 2) unwrap {value, confidence} wrappers
	for k, v := range m {
		obj, ok := v.(map[string]any)
		if !ok {
			continue
		}
		inner, ok := obj["value"]
		if !ok {
			continue
		}
		m[k] = inner
		if c, ok := obj["confidence"].(float64); ok {
			confidences[k] = c
		}
		touched = append(touched, k+"(unwrapped)")
	}

	// 3) coerce money values to decimal strings
	for _, k := range moneyKeys {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case float64:
			m[k] = fmt.Sprintf("%.2f", t)
			touched = append(touched, k+"(number)")
		case string:
			s := strings.TrimSpace(t)
			if s == "" || strings.EqualFold(s, "null") {
				delete(m, k)
				touched = append(touched, k+"(empty)")
			} else {
				m[k] = s
			}
		case nil:
			delete(m, k)
			touched = append(touched, k+"(null)")
		default:
			delete(m, k)
			touched = append(touched, k+"(type)")
		}
	}

	// 4) trim strings, drop null/empty, uppercase currency
	for k, v := range m {
		switch t := v.(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				delete(m, k)
				touched = append(touched, k+"(empty)")
			} else if k == "currency" {
				m[k] = strings.ToUpper(s)
			} else {
				m[k] = s
			}
		case nil:
			delete(m, k)
			touched = append(touched, k+"(null)")
		}
	}

	// 5) remove unknown keys
	for k := range m {
		if k == "confidence" || constants.IsCanonicalField(constants.FieldName(k)) {
			continue
		}
		delete(m, k)
		touched = append(touched, k+"(unknown)")
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, nil, touched, fmt.Errorf("encode sanitized reply: %w", err)
	}
	return out, confidences, touched, nil
}
