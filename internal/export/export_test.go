package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/playerMars/final-ocr/constants"
	"github.com/playerMars/final-ocr/internal/common"
	"github.com/playerMars/final-ocr/internal/core"
	"github.com/playerMars/final-ocr/internal/entity"
	"github.com/playerMars/final-ocr/internal/repository"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleReport() Report {
	one, two := 1, 2
	return Report{
		GeneratedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Summary:     &core.BatchSummary{TotalFiles: 2, Successful: 1, Failed: 1, NeedsReview: 1, SuccessRate: 50},
		Entries: []Entry{
			{
				Source: "a.pdf",
				Record: entity.InvoiceRecord{
					InvoiceNumber: "51109338",
					IssueDate:     "04/13/2013",
					Seller:        entity.PartyInfo{Name: "Andrews, Kirby and Valdez", TaxID: "945-82-2137"},
					Client:        entity.PartyInfo{Name: "Becker Ltd", TaxID: "942-80-0517"},
					LineItems: []entity.LineItem{
						{ItemNo: &one, Description: "Desktop", Quantity: 3, UnitPrice: 209, NetWorth: 627, VATPercentage: "10%", GrossWorth: 689.7},
						{ItemNo: &two, Description: "Thin Client", Quantity: 5, UnitPrice: 37.75, NetWorth: 188.75, VATPercentage: "10%", GrossWorth: 207.63},
					},
					Totals:            entity.Totals{NetWorth: 815.75, VAT: 81.58, GrossWorth: 897.33},
					CompletenessScore: 100,
				},
				Warnings: []entity.Warning{{Kind: entity.WarnFieldAbsent, Field: "client.address", Message: "missing"}},
			},
			{
				Source:      "b.png",
				Record:      entity.InvoiceRecord{LineItems: []entity.LineItem{}},
				NeedsReview: true,
				Error:       "EXTRACTION_FAILED: no text",
			},
		},
	}
}

func TestNew(t *testing.T) {
	for _, f := range constants.ReportFormats {
		e, err := New(constants.ReportFormat(f), quiet())
		require.NoError(t, err)
		assert.Equal(t, f, e.Ext())
	}
	_, err := New("pdf", quiet())
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestXLSXExporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&XLSXExporter{logger: quiet()}).Write(context.Background(), &buf, sampleReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Invoices", "Items", "Summary"}, f.GetSheetList())

	inv, err := f.GetRows("Invoices")
	require.NoError(t, err)
	require.Len(t, inv, 3)
	assert.Equal(t, "Invoice Number", inv[0][1])
	assert.Equal(t, "a.pdf", inv[1][0])
	assert.Equal(t, "51109338", inv[1][1])
	assert.Equal(t, "Becker Ltd", inv[1][6])
	assert.Equal(t, "b.png", inv[2][0])
	assert.Equal(t, "yes", inv[2][13])

	items, err := f.GetRows("Items")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Desktop", items[1][3])
	assert.Equal(t, "10%", items[1][7])
	assert.Equal(t, "Thin Client", items[2][3])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, "Total Files", summary[0][0])
	assert.Equal(t, "2", summary[0][1])
}

func TestJSONExporter(t *testing.T) {
	var buf bytes.Buffer
	rep := sampleReport()
	require.NoError(t, (&JSONExporter{logger: quiet()}).Write(context.Background(), &buf, rep))

	var got struct {
		Summary  core.BatchSummary `json:"summary"`
		Invoices []Entry           `json:"invoices"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 2, got.Summary.TotalFiles)
	require.Len(t, got.Invoices, 2)
	assert.Equal(t, rep.Entries[0].Record, got.Invoices[0].Record)
	assert.NotNil(t, got.Invoices[1].Warnings)
	assert.Nil(t, rep.Entries[1].Warnings)
	assert.Contains(t, buf.String(), `"line_items": []`)
}

func TestJSONExporter_RejectsInvalidRecord(t *testing.T) {
	rep := sampleReport()
	rep.Entries[0].Record.LineItems[0].Quantity = 0

	err := (&JSONExporter{logger: quiet()}).Write(context.Background(), io.Discard, rep)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestCSVExporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&CSVExporter{logger: quiet()}).Write(context.Background(), &buf, sampleReport()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{
		"a.pdf", "51109338", "04/13/2013", "Andrews, Kirby and Valdez", "945-82-2137", "Becker Ltd", "942-80-0517",
		"1", "Desktop", "3.00", "209.00", "627.00", "10%", "689.70",
		"815.75", "81.58", "897.33", "100", "false",
	}, rows[1])
	assert.Equal(t, "2", rows[2][7])
	assert.Equal(t, "b.png", rows[3][0])
	assert.Equal(t, "", rows[3][8])
	assert.Equal(t, "true", rows[3][18])
}

func TestTXTExporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TXTExporter{logger: quiet()}).Write(context.Background(), &buf, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "INVOICE EXTRACTION REPORT")
	assert.Contains(t, out, "Success rate:  50.0%")
	assert.Contains(t, out, "Invoice number: 51109338")
	assert.Contains(t, out, "1. Desktop\n   qty 3.00 x 209.00 = 627.00 net, VAT 10%, 689.70 gross")
	assert.Contains(t, out, "Totals: net 815.75, VAT 81.58, gross 897.33")
	assert.Contains(t, out, "field_absent[client.address]: missing")
	assert.Contains(t, out, "FAILED: EXTRACTION_FAILED: no text")
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	e, err := New(constants.ReportCSV, quiet())
	require.NoError(t, err)

	path, err := WriteFile(context.Background(), e, dir, "batch", sampleReport())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "batch.csv"), path)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestFromResults(t *testing.T) {
	entries := FromResults([]*core.ProcessResult{
		{File: entity.SourceFile{Filename: "a.pdf"}, Method: "pdf-text", OCRConfidence: 1},
		nil,
		{File: entity.SourceFile{Filename: "b.png"}, Error: "boom", NeedsReview: true},
	})
	require.Len(t, entries, 2)
	assert.Equal(t, "a.pdf", entries[0].Source)
	assert.Equal(t, "pdf-text", entries[0].Method)
	assert.Equal(t, "boom", entries[1].Error)
	assert.True(t, entries[1].NeedsReview)
}

func TestServiceExportStored(t *testing.T) {
	ctx := context.Background()
	logger := quiet()
	db, err := repository.Open(ctx, common.DatabaseConfig{DSN: ":memory:"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(logger) })
	require.NoError(t, repository.Migrate(ctx, db, logger))

	invoices := repository.NewInvoiceRepository(db, logger)
	_, err = invoices.Save(ctx, &repository.SaveInvoiceRequest{SourceName: "a.pdf", Record: sampleReport().Entries[0].Record})
	require.NoError(t, err)

	out, err := NewService(invoices, logger).ExportStored(ctx, constants.ReportXLSX, repository.ListInvoicesFilter{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Items")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
