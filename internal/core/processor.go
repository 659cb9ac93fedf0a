package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/playerMars/final-ocr/constants"
	"github.com/playerMars/final-ocr/internal/common"
	"github.com/playerMars/final-ocr/internal/entity"
	"github.com/playerMars/final-ocr/internal/extract"
	"github.com/playerMars/final-ocr/internal/repository"
)

// ProcessResult is the outcome for one input. Err is set when the file could
// not be turned into text; Record is then empty.
type ProcessResult struct {
	File            entity.SourceFile    `json:"file"`
	JobID           uuid.UUID            `json:"job_id"`
	InvoiceID       *uuid.UUID           `json:"invoice_id,omitempty"`
	Record          entity.InvoiceRecord `json:"record"`
	Warnings        []entity.Warning     `json:"warnings"`
	ExtractWarnings []string             `json:"extract_warnings,omitempty"`
	Method          string               `json:"method,omitempty"`
	OCRConfidence   float32              `json:"ocr_confidence"`
	NeedsReview     bool                 `json:"needs_review"`
	Duplicate       bool                 `json:"duplicate,omitempty"`
	Duration        time.Duration        `json:"duration_ns"`
	Err             error                `json:"-"`
	Error           string               `json:"error,omitempty"`

	jobStored bool
}

// OK reports whether the file produced a record.
func (r *ProcessResult) OK() bool { return r.Err == nil }

func (r *ProcessResult) fail(err error) {
	r.Err = err
	r.Error = err.Error()
	r.NeedsReview = true
}

// ProcessorConfig holds the review thresholds and the OCR language.
type ProcessorConfig struct {
	Lang             string
	MinCompleteness  int
	MinOCRConfidence float32
}

// Processor coordinates text extraction then field parsing, and stores both
// when a store is attached.
type Processor struct {
	logger   *slog.Logger
	text     extract.TextExtractor
	fields   extract.FieldExtractor
	cfg      ProcessorConfig
	files    repository.SourceFileRepository
	jobs     repository.ExtractJobRepository
	invoices repository.InvoiceRepository
}

type ProcessorOption func(*Processor)

// WithStore persists source files, extract jobs and invoices. Any nil
// repository is skipped.
func WithStore(files repository.SourceFileRepository, jobs repository.ExtractJobRepository, invoices repository.InvoiceRepository) ProcessorOption {
	return func(p *Processor) {
		p.files, p.jobs, p.invoices = files, jobs, invoices
	}
}

func NewProcessor(
	logger *slog.Logger,
	text extract.TextExtractor,
	fields extract.FieldExtractor,
	cfg ProcessorConfig,
	opts ...ProcessorOption,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinOCRConfidence == 0 {
		cfg.MinOCRConfidence = 0.60
	}
	p := &Processor{
		logger: logger,
		text:   text,
		fields: fields,
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessFile extracts text from file, parses it, flags it for review and
// persists the outcome. A failed extraction is returned both in the result
// and as the error; the result is never nil.
func (p *Processor) ProcessFile(ctx context.Context, file entity.SourceFile) (*ProcessResult, error) {
	start := time.Now()
	res := &ProcessResult{File: file, Warnings: []entity.Warning{}}
	defer func() { res.Duration = time.Since(start) }()

	if !constants.IsAllowedExt(file.FileExt) {
		err := common.InvalidInputErrorf("unsupported file extension %q", file.FileExt)
		res.fail(err)
		return res, err
	}
	format := constants.MapExtToFormat(file.FileExt)

	if err := p.startJob(ctx, res, format); err != nil {
		res.fail(err)
		return res, err
	}
	ctx = common.WithJobID(ctx, res.JobID.String())

	lang := p.cfg.Lang
	if l := common.LangFromContext(ctx); l != "" {
		lang = l
	}
	tr, err := p.text.Extract(ctx, file.SourcePath, lang)
	res.ExtractWarnings = tr.Warnings
	res.Method = tr.Method
	res.OCRConfidence = tr.Confidence
	if err == nil && tr.Failed {
		err = common.NewAppError("EXTRACTION_FAILED", "no text extracted from "+file.Filename, common.ErrExtraction)
	}
	if err != nil {
		p.logger.Error("processor.ocr.failed", "file", file.SourcePath, "job_id", res.JobID, "err", err)
		p.markFailed(ctx, res, err)
		res.fail(err)
		return res, err
	}
	if res.jobStored {
		if err := p.jobs.MarkOCR(ctx, res.JobID, tr.Text, tr.Method, tr.Confidence); err != nil {
			res.fail(err)
			return res, err
		}
	}
	p.logger.Debug("processor.ocr.ok",
		"file", file.SourcePath,
		"job_id", res.JobID,
		"method", tr.Method,
		"pages", tr.Pages,
		"confidence", tr.Confidence,
	)

	if err := p.parse(ctx, res, tr.Text); err != nil {
		return res, err
	}
	return res, nil
}

// ProcessText parses text that needs no extraction, such as an upload of
// OCR output. name labels the result.
func (p *Processor) ProcessText(ctx context.Context, name, text string) (*ProcessResult, error) {
	start := time.Now()
	res := &ProcessResult{
		File:          entity.SourceFile{Filename: name, FileExt: "txt", FileSize: len(text), UploadedAt: time.Now().UTC()},
		Warnings:      []entity.Warning{},
		Method:        "text",
		OCRConfidence: 1,
	}
	defer func() { res.Duration = time.Since(start) }()

	if err := p.parse(ctx, res, text); err != nil {
		return res, err
	}
	return res, nil
}

func (p *Processor) parse(ctx context.Context, res *ProcessResult, text string) error {
	parsed := p.fields.Parse(text)
	res.Record = parsed.Record
	if parsed.Warnings != nil {
		res.Warnings = parsed.Warnings
	}
	res.NeedsReview = p.needsReview(res)

	if p.invoices != nil {
		req := &repository.SaveInvoiceRequest{
			SourceName:  res.File.Filename,
			Record:      res.Record,
			Warnings:    res.Warnings,
			NeedsReview: res.NeedsReview,
		}
		if res.File.ID != uuid.Nil {
			id := res.File.ID
			req.FileID = &id
		}
		inv, err := p.invoices.Save(ctx, req)
		if err != nil {
			p.logger.Error("processor.store.failed", "file", res.File.Filename, "job_id", res.JobID, "err", err)
			p.markFailed(ctx, res, err)
			res.fail(err)
			return err
		}
		res.InvoiceID = &inv.ID
		if res.jobStored {
			if err := p.jobs.MarkParsed(ctx, res.JobID, inv.ID, res.Record.CompletenessScore, res.NeedsReview); err != nil {
				res.fail(err)
				return err
			}
		}
	}

	p.logger.Info("processor.parse.ok",
		"file", res.File.Filename,
		"job_id", res.JobID,
		"invoice_number", res.Record.InvoiceNumber,
		"items", len(res.Record.LineItems),
		"completeness", res.Record.CompletenessScore,
		"warnings", len(res.Warnings),
		"needs_review", res.NeedsReview,
	)
	return nil
}

func (p *Processor) needsReview(res *ProcessResult) bool {
	if res.Record.CompletenessScore < p.cfg.MinCompleteness {
		return true
	}
	return res.OCRConfidence < p.cfg.MinOCRConfidence
}

// startJob registers the file and opens its extract job. Without a store
// the job only gets an ID for logging.
func (p *Processor) startJob(ctx context.Context, res *ProcessResult, format constants.FileFormat) error {
	if p.files != nil {
		stored, existed, err := p.files.UpsertByHash(ctx, res.File)
		if err != nil {
			return fmt.Errorf("register file: %w", err)
		}
		if existed {
			p.logger.Info("processor.file.duplicate", "file", res.File.SourcePath, "file_id", stored.ID, "first_seen", stored.SourcePath)
		}
		res.File.ID = stored.ID
		res.Duplicate = existed
	}
	if p.jobs == nil || res.File.ID == uuid.Nil {
		res.JobID = uuid.New()
		return nil
	}
	job, err := p.jobs.Start(ctx, res.File.ID, format)
	if err != nil {
		return fmt.Errorf("start job: %w", err)
	}
	res.JobID = job.ID
	res.jobStored = true
	return nil
}

func (p *Processor) markFailed(ctx context.Context, res *ProcessResult, cause error) {
	if !res.jobStored {
		return
	}
	// the caller's context may already be done; the failure is still recorded
	if err := p.jobs.MarkFailed(context.WithoutCancel(ctx), res.JobID, cause.Error()); err != nil {
		p.logger.Warn("processor.job.mark_failed", "job_id", res.JobID, "err", err)
	}
}
