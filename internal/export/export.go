// Package export writes parsed invoices as XLSX, JSON, CSV or plain-text reports.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/playerMars/final-ocr/constants"
	"github.com/playerMars/final-ocr/internal/common"
	"github.com/playerMars/final-ocr/internal/core"
	"github.com/playerMars/final-ocr/internal/entity"
)

// Entry is one invoice row of a report.
type Entry struct {
	Source        string               `json:"source"`
	Record        entity.InvoiceRecord `json:"record"`
	Warnings      []entity.Warning     `json:"warnings"`
	NeedsReview   bool                 `json:"needs_review"`
	Method        string               `json:"method,omitempty"`
	OCRConfidence float32              `json:"ocr_confidence,omitempty"`
	Error         string               `json:"error,omitempty"`
}

// Report is what every exporter writes. Summary is nil outside batch runs.
type Report struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Summary     *core.BatchSummary `json:"summary,omitempty"`
	Entries     []Entry            `json:"invoices"`
}

// FromResults builds report entries from processing results.
func FromResults(results []*core.ProcessResult) []Entry {
	out := make([]Entry, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		out = append(out, Entry{
			Source:        r.File.Filename,
			Record:        r.Record,
			Warnings:      r.Warnings,
			NeedsReview:   r.NeedsReview,
			Method:        r.Method,
			OCRConfidence: r.OCRConfidence,
			Error:         r.Error,
		})
	}
	return out
}

// FromStored builds report entries from persisted invoices.
func FromStored(invoices []*entity.StoredInvoice) []Entry {
	out := make([]Entry, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, Entry{
			Source:      inv.SourceName,
			Record:      inv.Record,
			Warnings:    inv.Warnings,
			NeedsReview: inv.NeedsReview,
		})
	}
	return out
}

// Exporter writes a report in one format.
type Exporter interface {
	Write(ctx context.Context, w io.Writer, rep Report) error
	Ext() string
}

// New returns the exporter for format.
func New(format constants.ReportFormat, logger *slog.Logger) (Exporter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch format {
	case constants.ReportXLSX:
		return &XLSXExporter{logger: logger}, nil
	case constants.ReportJSON:
		return &JSONExporter{logger: logger}, nil
	case constants.ReportCSV:
		return &CSVExporter{logger: logger}, nil
	case constants.ReportTXT:
		return &TXTExporter{logger: logger}, nil
	default:
		return nil, common.InvalidInputErrorf("unknown report format %q", format)
	}
}

// WriteFile writes rep to dir/base.<ext> and returns the path.
func WriteFile(ctx context.Context, e Exporter, dir, base string, rep Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, base+"."+e.Ext())
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	if err := e.Write(ctx, f, rep); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	return path, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func itemNo(it entity.LineItem) string {
	if it.ItemNo == nil {
		return ""
	}
	return fmt.Sprint(*it.ItemNo)
}
