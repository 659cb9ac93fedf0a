package export

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/playerMars/final-ocr/internal/core/numeric"
)

// TXTExporter writes a human-readable report, one block per invoice.
type TXTExporter struct {
	logger *slog.Logger
}

func (e *TXTExporter) Ext() string { return "txt" }

func (e *TXTExporter) Write(ctx context.Context, w io.Writer, rep Report) error {
	bw := bufio.NewWriter(w)
	rule := strings.Repeat("=", 60)
	thin := strings.Repeat("-", 30)

	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw, "INVOICE EXTRACTION REPORT")
	if !rep.GeneratedAt.IsZero() {
		fmt.Fprintf(bw, "Generated: %s\n", rep.GeneratedAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintln(bw, rule)

	if s := rep.Summary; s != nil {
		fmt.Fprintln(bw, "\nBatch summary:")
		fmt.Fprintln(bw, thin)
		fmt.Fprintf(bw, "Total files:   %d\n", s.TotalFiles)
		fmt.Fprintf(bw, "Successful:    %d\n", s.Successful)
		fmt.Fprintf(bw, "Failed:        %d\n", s.Failed)
		fmt.Fprintf(bw, "Needs review:  %d\n", s.NeedsReview)
		if s.Abandoned > 0 {
			fmt.Fprintf(bw, "Abandoned:     %d\n", s.Abandoned)
		}
		fmt.Fprintf(bw, "Success rate:  %.1f%%\n", s.SuccessRate)
		fmt.Fprintf(bw, "Duration:      %s\n", s.Duration.Round(time.Millisecond))
	}

	for _, en := range rep.Entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := en.Record
		fmt.Fprintf(bw, "\n%s\n%s\n", en.Source, thin)
		if en.Error != "" {
			fmt.Fprintf(bw, "FAILED: %s\n", en.Error)
			continue
		}

		field := func(label, v string) {
			if v != "" {
				fmt.Fprintf(bw, "%-16s%s\n", label+":", v)
			}
		}
		field("Invoice number", rec.InvoiceNumber)
		field("Issue date", rec.IssueDate)
		field("Seller", rec.Seller.Name)
		field("Seller address", rec.Seller.Address)
		field("Seller tax id", rec.Seller.TaxID)
		field("Client", rec.Client.Name)
		field("Client address", rec.Client.Address)
		field("Client tax id", rec.Client.TaxID)

		if len(rec.LineItems) > 0 {
			fmt.Fprintf(bw, "\nItems (%d):\n", len(rec.LineItems))
			for i, it := range rec.LineItems {
				no := itemNo(it)
				if no == "" {
					no = fmt.Sprint(i + 1)
				}
				fmt.Fprintf(bw, "%s. %s\n", no, it.Description)
				fmt.Fprintf(bw, "   qty %s x %s = %s net, VAT %s, %s gross\n",
					numeric.Format(it.Quantity), numeric.Format(it.UnitPrice),
					numeric.Format(it.NetWorth), it.VATPercentage, numeric.Format(it.GrossWorth))
			}
		}

		fmt.Fprintf(bw, "\nTotals: net %s, VAT %s, gross %s\n",
			numeric.Format(rec.Totals.NetWorth), numeric.Format(rec.Totals.VAT), numeric.Format(rec.Totals.GrossWorth))
		fmt.Fprintf(bw, "Completeness: %d%%", rec.CompletenessScore)
		if en.NeedsReview {
			fmt.Fprint(bw, " (needs review)")
		}
		fmt.Fprintln(bw)
		if len(en.Warnings) > 0 {
			fmt.Fprintf(bw, "Warnings (%d):\n", len(en.Warnings))
			for _, wr := range en.Warnings {
				fmt.Fprintf(bw, "  - %s\n", wr)
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("txt write: %w", err)
	}
	e.logger.Info("export.txt.ok", "invoices", len(rep.Entries))
	return nil
}
