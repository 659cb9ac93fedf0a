package invoice

import (
	"math"

	"github.com/playerMars/final-ocr/internal/entity"
)

// requiredFields is the number of checks made by Score.
const requiredFields = 4

// Score is the percentage of required fields present: invoice number, issue
// date, a positive gross total and the seller name.
func Score(rec entity.InvoiceRecord) int {
	n := 0
	for _, ok := range []bool{
		rec.InvoiceNumber != "",
		rec.IssueDate != "",
		rec.Totals.GrossWorth > 0,
		rec.Seller.Name != "",
	} {
		if ok {
			n++
		}
	}
	return int(math.Round(100 * float64(n) / requiredFields))
}

// MissingFields names the required fields Score did not count.
func MissingFields(rec entity.InvoiceRecord) []string {
	var missing []string
	if rec.InvoiceNumber == "" {
		missing = append(missing, "invoice_number")
	}
	if rec.IssueDate == "" {
		missing = append(missing, "issue_date")
	}
	if rec.Totals.GrossWorth <= 0 {
		missing = append(missing, "totals.gross_worth")
	}
	if rec.Seller.Name == "" {
		missing = append(missing, "seller.name")
	}
	return missing
}
