// Package app wires configuration, storage and the extraction pipeline for
// the binaries under cmd/.
package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/playerMars/final-ocr/internal/common"
	"github.com/playerMars/final-ocr/internal/core"
	"github.com/playerMars/final-ocr/internal/core/invoice"
	"github.com/playerMars/final-ocr/internal/export"
	"github.com/playerMars/final-ocr/internal/extract"
	"github.com/playerMars/final-ocr/internal/ocr"
	"github.com/playerMars/final-ocr/internal/repository"
	"github.com/playerMars/final-ocr/internal/server"
)

// Options select the storage a binary runs with.
type Options struct {
	// InMemory swaps the configured DSN for a private in-memory SQLite store.
	InMemory bool
	// NoStore runs the pipeline without persisting anything.
	NoStore bool
	// Text replaces the OCR stack, mainly for tests.
	Text extract.TextExtractor
}

type App struct {
	Config    *common.Config
	Logger    *slog.Logger
	DB        *repository.DB
	Files     repository.SourceFileRepository
	Jobs      repository.ExtractJobRepository
	Invoices  repository.InvoiceRepository
	Exports   *export.Service
	Processor *core.Processor
}

// NewLogger returns a JSON logger at level and installs it as the default.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// NewTextExtractor builds the OCR stack with the configured timeout and
// retry policy.
func NewTextExtractor(cfg common.OCRConfig, logger *slog.Logger) extract.TextExtractor {
	ocrx := ocr.NewExtractor(ocr.Config{
		Lang:             cfg.Lang,
		TessdataDir:      cfg.TessdataDir,
		PSMs:             cfg.PSMs,
		Preprocess:       cfg.Preprocess,
		MaxPages:         cfg.MaxPages,
		HeicConverter:    cfg.HeicConverter,
		ArtifactCacheDir: cfg.ArtifactCacheDir,
	}, logger)
	return extract.NewOCRAdapter(ocrx, logger,
		extract.WithTimeout(cfg.Timeout),
		extract.WithRetries(cfg.Retries),
	)
}

func New(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts Options) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	var procOpts []core.ProcessorOption
	if !opts.NoStore {
		dbCfg := cfg.Database
		if opts.InMemory {
			dbCfg.DSN = ":memory:"
		}
		db, err := server.ConnectDB(ctx, dbCfg, logger)
		if err != nil {
			return nil, err
		}
		a.DB = db
		a.Files = repository.NewSourceFileRepository(db, logger)
		a.Jobs = repository.NewExtractJobRepository(db, logger)
		a.Invoices = repository.NewInvoiceRepository(db, logger)
		a.Exports = export.NewService(a.Invoices, logger)
		procOpts = append(procOpts, core.WithStore(a.Files, a.Jobs, a.Invoices))
	}

	text := opts.Text
	if text == nil {
		text = NewTextExtractor(cfg.OCR, logger)
	}
	parser := invoice.NewParser(logger, invoice.WithDefaultVAT(cfg.Parser.DefaultVAT))
	a.Processor = core.NewProcessor(logger, text, parser, core.ProcessorConfig{
		Lang:             cfg.OCR.Lang,
		MinCompleteness:  cfg.Parser.MinCompleteness,
		MinOCRConfidence: cfg.Parser.MinOCRConfidence,
	}, procOpts...)
	return a, nil
}

// Close releases the database, if any.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close(a.Logger)
	}
}
