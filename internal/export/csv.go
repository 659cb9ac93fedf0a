package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"github.com/playerMars/final-ocr/internal/core/numeric"
)

// CSVExporter writes one row per line item. An invoice without items still
// gets one row, with the item columns empty.
type CSVExporter struct {
	logger *slog.Logger
}

func (e *CSVExporter) Ext() string { return "csv" }

var csvHeader = []string{
	"source",
	"invoice_number",
	"issue_date",
	"seller_name",
	"seller_tax_id",
	"client_name",
	"client_tax_id",
	"item_no",
	"description",
	"quantity",
	"unit_price",
	"net_worth",
	"vat_percentage",
	"gross_worth",
	"total_net_worth",
	"total_vat",
	"total_gross_worth",
	"completeness_score",
	"needs_review",
}

func (e *CSVExporter) Write(ctx context.Context, w io.Writer, rep Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}

	rows := 0
	for _, en := range rep.Entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := en.Record
		head := []string{
			en.Source,
			rec.InvoiceNumber,
			rec.IssueDate,
			rec.Seller.Name,
			rec.Seller.TaxID,
			rec.Client.Name,
			rec.Client.TaxID,
		}
		tail := []string{
			numeric.Format(rec.Totals.NetWorth),
			numeric.Format(rec.Totals.VAT),
			numeric.Format(rec.Totals.GrossWorth),
			fmt.Sprint(rec.CompletenessScore),
			fmt.Sprint(en.NeedsReview),
		}

		if len(rec.LineItems) == 0 {
			row := append(append(append([]string{}, head...), "", "", "", "", "", "", ""), tail...)
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("csv write: %w", err)
			}
			rows++
			continue
		}
		for _, it := range rec.LineItems {
			row := append([]string{}, head...)
			row = append(row,
				itemNo(it),
				it.Description,
				numeric.Format(it.Quantity),
				numeric.Format(it.UnitPrice),
				numeric.Format(it.NetWorth),
				it.VATPercentage,
				numeric.Format(it.GrossWorth),
			)
			row = append(row, tail...)
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("csv write: %w", err)
			}
			rows++
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csv flush: %w", err)
	}
	e.logger.Info("export.csv.ok", "invoices", len(rep.Entries), "rows", rows)
	return nil
}
