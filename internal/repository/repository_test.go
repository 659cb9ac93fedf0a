package repository

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playerMars/final-ocr/constants"
	"github.com/playerMars/final-ocr/internal/common"
	"github.com/playerMars/final-ocr/internal/entity"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	logger := testLogger()
	db, err := Open(ctx, common.DatabaseConfig{DSN: ":memory:"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(logger) })
	require.NoError(t, Migrate(ctx, db, logger))
	return db
}

func sampleRecord() entity.InvoiceRecord {
	one := 1
	return entity.InvoiceRecord{
		InvoiceNumber: "INV-7",
		IssueDate:     "03/14/2021",
		Seller:        entity.PartyInfo{Name: "Acme Ltd", Address: "1 Main St", TaxID: "123-45-6789"},
		Client:        entity.PartyInfo{Name: "Beta LLC"},
		LineItems: []entity.LineItem{{
			ItemNo:        &one,
			Description:   "Widget",
			Quantity:      2,
			UnitPrice:     10,
			NetWorth:      20,
			VATPercentage: "10%",
			GrossWorth:    22,
		}},
		Totals:            entity.Totals{NetWorth: 20, VAT: 2, GrossWorth: 22},
		CompletenessScore: 100,
	}
}

func TestDialectFor(t *testing.T) {
	assert.Equal(t, DialectPostgres, dialectFor("postgres://u:p@localhost/db"))
	assert.Equal(t, DialectPostgres, dialectFor("postgresql://localhost/db"))
	assert.Equal(t, DialectSQLite, dialectFor("file:invoices.db"))
}

func TestRebind(t *testing.T) {
	pg := &DB{dialect: DialectPostgres}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", pg.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))

	lite := &DB{dialect: DialectSQLite}
	assert.Equal(t, "SELECT ? ", lite.rebind("SELECT ? "))
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(context.Background(), db, testLogger()))
	require.NoError(t, HealthCheck(context.Background(), db, time.Second, testLogger()))
}

func TestSourceFileUpsertByHash(t *testing.T) {
	db := openTestDB(t)
	repo := NewSourceFileRepository(db, testLogger())
	ctx := context.Background()

	f := entity.SourceFile{
		SourcePath:  "/in/a.pdf",
		ContentHash: []byte{1, 2, 3},
		Filename:    "a.pdf",
		FileExt:     "pdf",
		FileSize:    42,
		UploadedAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	created, existed, err := repo.UpsertByHash(ctx, f)
	require.NoError(t, err)
	assert.False(t, existed)
	assert.NotEqual(t, uuid.Nil, created.ID)

	f.SourcePath = "/in/copy-of-a.pdf"
	again, existed, err := repo.UpsertByHash(ctx, f)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "/in/a.pdf", again.SourcePath)
	assert.True(t, again.UploadedAt.Equal(f.UploadedAt))

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got.ContentHash)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestExtractJobLifecycle(t *testing.T) {
	db := openTestDB(t)
	logger := testLogger()
	ctx := context.Background()

	file, err := NewSourceFileRepository(db, logger).Create(ctx, entity.SourceFile{
		SourcePath: "/in/b.png", ContentHash: []byte{9}, Filename: "b.png", FileExt: "png", UploadedAt: time.Now(),
	})
	require.NoError(t, err)

	jobs := NewExtractJobRepository(db, logger)
	job, err := jobs.Start(ctx, file.ID, constants.FormatImage)
	require.NoError(t, err)
	assert.Equal(t, string(constants.JobStatusRunning), job.Status)

	require.NoError(t, jobs.MarkOCR(ctx, job.ID, "Invoice no: 7", "tesseract", 0.8))
	got, err := jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.JobStatusOCROK), got.Status)
	require.NotNil(t, got.OCRText)
	assert.Equal(t, "Invoice no: 7", *got.OCRText)
	require.NotNil(t, got.OCRConfidence)
	assert.InDelta(t, 0.8, *got.OCRConfidence, 1e-6)
	assert.Nil(t, got.FinishedAt)

	invoiceID := uuid.New()
	require.NoError(t, jobs.MarkParsed(ctx, job.ID, invoiceID, 80, true))
	got, err = jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.JobStatusParsed), got.Status)
	require.NotNil(t, got.InvoiceID)
	assert.Equal(t, invoiceID, *got.InvoiceID)
	require.NotNil(t, got.CompletenessScore)
	assert.Equal(t, 80, *got.CompletenessScore)
	assert.True(t, got.NeedsReview)
	assert.NotNil(t, got.FinishedAt)

	err = jobs.MarkFailed(ctx, uuid.New(), "boom")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestInvoiceSaveGetList(t *testing.T) {
	db := openTestDB(t)
	repo := NewInvoiceRepository(db, testLogger())
	ctx := context.Background()

	warns := []entity.Warning{{Kind: entity.WarnItemCorrected, Field: "line_items.net_worth", Message: "fixed", Line: 4}}
	saved, err := repo.Save(ctx, &SaveInvoiceRequest{SourceName: "a.txt", Record: sampleRecord(), Warnings: warns})
	require.NoError(t, err)

	got, err := repo.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, sampleRecord(), got.Record)
	assert.Equal(t, warns, got.Warnings)
	assert.Equal(t, "a.txt", got.SourceName)
	assert.Nil(t, got.FileID)

	empty := entity.InvoiceRecord{LineItems: []entity.LineItem{}}
	_, err = repo.Save(ctx, &SaveInvoiceRequest{SourceName: "b.txt", Record: empty, NeedsReview: true})
	require.NoError(t, err)

	all, err := repo.List(ctx, ListInvoicesFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	review := true
	flagged, err := repo.List(ctx, ListInvoicesFilter{NeedsReview: &review})
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, "b.txt", flagged[0].SourceName)
	assert.Empty(t, flagged[0].Warnings)

	limited, err := repo.List(ctx, ListInvoicesFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestInvoiceSaveRejectsInvalidRecord(t *testing.T) {
	db := openTestDB(t)
	repo := NewInvoiceRepository(db, testLogger())

	rec := sampleRecord()
	rec.LineItems[0].VATPercentage = "ten"
	_, err := repo.Save(context.Background(), &SaveInvoiceRequest{SourceName: "bad.txt", Record: rec})
	assert.ErrorIs(t, err, common.ErrValidation)
}
