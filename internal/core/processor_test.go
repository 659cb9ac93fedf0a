package core

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playerMars/final-ocr/constants"
	"github.com/playerMars/final-ocr/internal/common"
	"github.com/playerMars/final-ocr/internal/core/invoice"
	"github.com/playerMars/final-ocr/internal/entity"
	"github.com/playerMars/final-ocr/internal/extract"
	"github.com/playerMars/final-ocr/internal/repository"
)

const sampleInvoice = "Invoice no: 51109338\nDate of issue: 04/13/2013\nSeller:\nAndrews, Kirby and Valdez\n...\n" +
	"ITEMS\n1. Desktop 3.00 each 209.00 627.00 10% 689.70\n...\n" +
	"SUMMARY\nTotal $ 5640.17 $ 564.02 $ 6204.19"

type stubText struct {
	res   extract.TextExtractionResult
	err   error
	calls int
}

func (s *stubText) Extract(_ context.Context, _, _ string) (extract.TextExtractionResult, error) {
	s.calls++
	return s.res, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProcessor(text extract.TextExtractor, opts ...ProcessorOption) *Processor {
	logger := discardLogger()
	cfg := ProcessorConfig{Lang: "eng", MinCompleteness: 75, MinOCRConfidence: 0.6}
	return NewProcessor(logger, text, invoice.NewParser(logger), cfg, opts...)
}

func sourceFile(name string, hash byte) entity.SourceFile {
	return entity.SourceFile{
		SourcePath:  "/in/" + name,
		ContentHash: []byte{hash},
		Filename:    name,
		FileExt:     constants.NormalizeExt(name[len(name)-3:]),
		FileSize:    10,
		UploadedAt:  time.Now(),
	}
}

func TestProcessText(t *testing.T) {
	p := newTestProcessor(&stubText{})

	res, err := p.ProcessText(context.Background(), "inline.txt", sampleInvoice)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "51109338", res.Record.InvoiceNumber)
	assert.Equal(t, 100, res.Record.CompletenessScore)
	assert.False(t, res.NeedsReview)
	assert.Nil(t, res.InvoiceID)
	assert.Equal(t, "text", res.Method)
}

func TestProcessText_IncompleteNeedsReview(t *testing.T) {
	p := newTestProcessor(&stubText{})

	res, err := p.ProcessText(context.Background(), "empty.txt", "")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Record.CompletenessScore)
	assert.True(t, res.NeedsReview)
	assert.NotNil(t, res.Record.LineItems)
}

func TestProcessFile_ExtractionFailed(t *testing.T) {
	text := &stubText{res: extract.TextExtractionResult{Failed: true, Warnings: []string{"attempt 1: boom"}}}
	p := newTestProcessor(text)

	res, err := p.ProcessFile(context.Background(), sourceFile("scan.png", 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrExtraction)
	require.NotNil(t, res)
	assert.False(t, res.OK())
	assert.True(t, res.NeedsReview)
	assert.Equal(t, []string{"attempt 1: boom"}, res.ExtractWarnings)
	assert.NotEmpty(t, res.Error)
}

func TestProcessFile_UnsupportedExtension(t *testing.T) {
	text := &stubText{}
	p := newTestProcessor(text)

	f := sourceFile("notes.doc", 2)
	res, err := p.ProcessFile(context.Background(), f)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	assert.False(t, res.OK())
	assert.Equal(t, 0, text.calls)
}

func TestProcessFile_LowConfidenceNeedsReview(t *testing.T) {
	text := &stubText{res: extract.TextExtractionResult{Text: sampleInvoice, Method: "image-ocr", Confidence: 0.3}}
	p := newTestProcessor(text)

	res, err := p.ProcessFile(context.Background(), sourceFile("scan.jpg", 3))
	require.NoError(t, err)
	assert.Equal(t, 100, res.Record.CompletenessScore)
	assert.True(t, res.NeedsReview)
	assert.Equal(t, "image-ocr", res.Method)
}

func TestProcessFile_WithStore(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()
	db, err := repository.Open(ctx, common.DatabaseConfig{DSN: ":memory:"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(logger) })
	require.NoError(t, repository.Migrate(ctx, db, logger))

	jobs := repository.NewExtractJobRepository(db, logger)
	invoices := repository.NewInvoiceRepository(db, logger)
	text := &stubText{res: extract.TextExtractionResult{Text: sampleInvoice, Method: "pdf-text", Confidence: 1}}
	p := newTestProcessor(text, WithStore(repository.NewSourceFileRepository(db, logger), jobs, invoices))

	res, err := p.ProcessFile(ctx, sourceFile("inv.pdf", 4))
	require.NoError(t, err)
	require.NotNil(t, res.InvoiceID)
	assert.False(t, res.Duplicate)

	job, err := jobs.Get(ctx, res.JobID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.JobStatusParsed), job.Status)
	assert.Equal(t, string(constants.FormatPDF), job.Format)
	require.NotNil(t, job.InvoiceID)
	assert.Equal(t, *res.InvoiceID, *job.InvoiceID)

	stored, err := invoices.Get(ctx, *res.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, res.Record, stored.Record)
	require.NotNil(t, stored.FileID)
	assert.Equal(t, res.File.ID, *stored.FileID)

	again, err := p.ProcessFile(ctx, sourceFile("copy-of-inv.pdf", 4))
	require.NoError(t, err)
	assert.True(t, again.Duplicate)
	assert.Equal(t, res.File.ID, again.File.ID)
}

func TestProcessFile_StoreMarksFailedJob(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()
	db, err := repository.Open(ctx, common.DatabaseConfig{DSN: ":memory:"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(logger) })
	require.NoError(t, repository.Migrate(ctx, db, logger))

	jobs := repository.NewExtractJobRepository(db, logger)
	text := &stubText{res: extract.TextExtractionResult{Failed: true}}
	p := newTestProcessor(text, WithStore(repository.NewSourceFileRepository(db, logger), jobs, nil))

	res, err := p.ProcessFile(ctx, sourceFile("bad.png", 5))
	require.Error(t, err)

	job, err := jobs.Get(ctx, res.JobID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.JobStatusFailed), job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Contains(t, *job.ErrorMessage, "EXTRACTION_FAILED")
}
