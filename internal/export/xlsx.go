package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	sheetInvoices = "Invoices"
	sheetItems    = "Items"
	sheetSummary  = "Summary"
)

// XLSXExporter writes an "Invoices" sheet with one row per invoice and an
// "Items" sheet with one row per line item. Batch reports add a "Summary".
type XLSXExporter struct {
	logger *slog.Logger
}

func (e *XLSXExporter) Ext() string { return "xlsx" }

func (e *XLSXExporter) Write(ctx context.Context, w io.Writer, rep Report) error {
	start := time.Now()
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.logger.Warn("export.xlsx.close_failed", "err", err)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), sheetInvoices); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetItems); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}

	invoiceHeaders := []any{
		"Source",
		"Invoice Number",
		"Issue Date",
		"Seller Name",
		"Seller Address",
		"Seller Tax ID",
		"Client Name",
		"Client Address",
		"Client Tax ID",
		"Net Worth",
		"VAT",
		"Gross Worth",
		"Completeness",
		"Needs Review",
		"Warnings",
		"Error",
	}
	itemHeaders := []any{
		"Source",
		"Invoice Number",
		"Item No",
		"Description",
		"Quantity",
		"Unit Price",
		"Net Worth",
		"VAT %",
		"Gross Worth",
	}
	if err := writeRow(f, sheetInvoices, 1, invoiceHeaders); err != nil {
		return err
	}
	if err := writeRow(f, sheetItems, 1, itemHeaders); err != nil {
		return err
	}
	_ = f.SetRowStyle(sheetInvoices, 1, 1, bold)
	_ = f.SetRowStyle(sheetItems, 1, 1, bold)

	invRow, itemRow := 2, 2
	for _, en := range rep.Entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := en.Record
		err := writeRow(f, sheetInvoices, invRow, []any{
			en.Source,
			rec.InvoiceNumber,
			rec.IssueDate,
			rec.Seller.Name,
			rec.Seller.Address,
			rec.Seller.TaxID,
			rec.Client.Name,
			rec.Client.Address,
			rec.Client.TaxID,
			rec.Totals.NetWorth,
			rec.Totals.VAT,
			rec.Totals.GrossWorth,
			rec.CompletenessScore,
			yesNo(en.NeedsReview),
			len(en.Warnings),
			truncate(en.Error, 140),
		})
		if err != nil {
			return err
		}
		invRow++

		for _, it := range rec.LineItems {
			err := writeRow(f, sheetItems, itemRow, []any{
				en.Source,
				rec.InvoiceNumber,
				itemNo(it),
				it.Description,
				it.Quantity,
				it.UnitPrice,
				it.NetWorth,
				it.VATPercentage,
				it.GrossWorth,
			})
			if err != nil {
				return err
			}
			itemRow++
		}
	}

	if rep.Summary != nil {
		if _, err := f.NewSheet(sheetSummary); err != nil {
			return fmt.Errorf("xlsx sheet: %w", err)
		}
		s := rep.Summary
		rows := [][]any{
			{"Total Files", s.TotalFiles},
			{"Successful", s.Successful},
			{"Failed", s.Failed},
			{"Needs Review", s.NeedsReview},
			{"Abandoned", s.Abandoned},
			{"Success Rate %", s.SuccessRate},
			{"Duration", s.Duration.Round(time.Millisecond).String()},
		}
		for i, r := range rows {
			if err := writeRow(f, sheetSummary, i+1, r); err != nil {
				return err
			}
		}
		_ = f.SetColWidth(sheetSummary, "A", "A", 18)
	}

	// Widen a few columns
	_ = f.SetColWidth(sheetInvoices, "A", "A", 28) // source
	_ = f.SetColWidth(sheetInvoices, "B", "C", 16) // number, date
	_ = f.SetColWidth(sheetInvoices, "D", "I", 30) // parties
	_ = f.SetColWidth(sheetInvoices, "J", "L", 14) // amounts
	_ = f.SetColWidth(sheetInvoices, "P", "P", 48) // error
	_ = f.SetColWidth(sheetItems, "A", "B", 20)
	_ = f.SetColWidth(sheetItems, "D", "D", 48) // description
	_ = f.SetColWidth(sheetItems, "E", "I", 12)
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	e.logger.Info("export.xlsx.ok",
		"invoices", invRow-2,
		"items", itemRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("xlsx row %s!%d: %w", sheet, row, err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
