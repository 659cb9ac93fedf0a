// Package validate checks invoice records against a JSON Schema before they
// are exported or stored.
package validate

// BuildInvoiceJSONSchema returns the record schema (draft 2020-12 subset) as a
// generic map. Optional text fields may be absent; amounts must be
// non-negative.
func BuildInvoiceJSONSchema() map[string]any {
	party := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"name":    map[string]any{"type": "string"},
			"address": map[string]any{"type": "string"},
			"tax_id":  map[string]any{"type": "string"},
		},
	}

	item := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"item_no":        map[string]any{"type": "integer"},
			"description":    map[string]any{"type": "string", "minLength": 1},
			"quantity":       map[string]any{"type": "number", "exclusiveMinimum": 0},
			"unit_price":     amountProp(),
			"net_worth":      amountProp(),
			"vat_percentage": map[string]any{"type": "string", "pattern": `^\d+(\.\d+)?%$`},
			"gross_worth":    amountProp(),
		},
		"required": []string{"description", "quantity", "unit_price", "net_worth", "vat_percentage", "gross_worth"},
	}

	totals := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"net_worth":   amountProp(),
			"vat":         amountProp(),
			"gross_worth": amountProp(),
		},
		"required": []string{"net_worth", "vat", "gross_worth"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"invoice_number":     map[string]any{"type": "string"},
			"issue_date":         map[string]any{"type": "string"},
			"seller":             party,
			"client":             party,
			"line_items":         map[string]any{"type": "array", "items": item},
			"totals":             totals,
			"completeness_score": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
		},
		"required": []string{"seller", "client", "line_items", "totals", "completeness_score"},
	}
}

func amountProp() map[string]any {
	return map[string]any{"type": "number", "minimum": 0}
}
