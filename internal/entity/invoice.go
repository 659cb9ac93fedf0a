package entity

// InvoiceRecord is the structured result of parsing one invoice text.
// Empty strings mean the field was not found.
type InvoiceRecord struct {
	InvoiceNumber     string     `json:"invoice_number,omitempty"`
	IssueDate         string     `json:"issue_date,omitempty"`
	Seller            PartyInfo  `json:"seller"`
	Client            PartyInfo  `json:"client"`
	LineItems         []LineItem `json:"line_items"`
	Totals            Totals     `json:"totals"`
	CompletenessScore int        `json:"completeness_score"`
}

// PartyInfo is a seller or client block. Address never carries banking or
// contact lines.
type PartyInfo struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	TaxID   string `json:"tax_id,omitempty"`
}

// LineItem is one row of the items table.
type LineItem struct {
	ItemNo        *int    `json:"item_no,omitempty"`
	Description   string  `json:"description"`
	Quantity      float64 `json:"quantity"`
	UnitPrice     float64 `json:"unit_price"`
	NetWorth      float64 `json:"net_worth"`
	VATPercentage string  `json:"vat_percentage"`
	GrossWorth    float64 `json:"gross_worth"`
}

// Totals is the invoice summary.
type Totals struct {
	NetWorth   float64 `json:"net_worth"`
	VAT        float64 `json:"vat"`
	GrossWorth float64 `json:"gross_worth"`
}

// IsZero reports whether no amount was recovered.
func (t Totals) IsZero() bool {
	return t.NetWorth == 0 && t.VAT == 0 && t.GrossWorth == 0
}
