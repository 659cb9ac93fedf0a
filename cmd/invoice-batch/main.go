package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/playerMars/final-ocr/constants"
	"github.com/playerMars/final-ocr/internal/app"
	"github.com/playerMars/final-ocr/internal/common"
	"github.com/playerMars/final-ocr/internal/core/async"
	"github.com/playerMars/final-ocr/internal/export"
	"github.com/playerMars/final-ocr/internal/ingest"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	cfg := common.LoadConfig()

	var (
		dir     = flag.String("dir", "", "directory to process invoices from (required)")
		out     = flag.String("out", cfg.Export.Dir, "directory the report is written to")
		name    = flag.String("name", "invoices", "report file name without extension")
		format  = flag.String("format", string(constants.ReportXLSX), "report format: "+strings.Join(constants.ReportFormats, ", "))
		workers = flag.Int("workers", cfg.Batch.Workers, "number of concurrent workers")
		lang    = flag.String("lang", "", "OCR language override, e.g. eng or ara+eng")
		exts    = flag.String("ext", "", "comma-separated extensions to include (default: all supported)")
		inmem   = flag.Bool("inmem", false, "use in-memory SQLite database")
		nostore = flag.Bool("nostore", false, "do not persist results")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	v := common.NewValidator().
		Field("format", *format, common.OneOf(constants.ReportFormats...)).
		Field("lang", *lang, common.MaxLen(32), common.OCRLang)
	if v.HasErrors() {
		printError("Error: %s\n", v.ErrorMessage())
		os.Exit(1)
	}
	cfg.Batch.Workers = *workers
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	logger := app.NewLogger(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if *lang != "" {
		ctx = common.WithLang(ctx, *lang)
	}

	a, err := app.New(ctx, cfg, logger, app.Options{InMemory: *inmem, NoStore: *nostore})
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	var extList []string
	if *exts != "" {
		extList = strings.Split(*exts, ",")
	}
	files, stats, err := ingest.ScanDirectory(ctx, *dir, extList, true)
	if err != nil {
		logger.Error("failed to scan directory", "dir", *dir, "error", err)
		os.Exit(1)
	}

	results, summary := async.RunBatch(ctx, a.Processor, files, logger,
		async.WithWorkers(cfg.Batch.Workers),
		async.WithQueueSize(cfg.Batch.QueueSize),
		async.WithProcessTimeout(cfg.Batch.JobTimeout),
	)

	exp, err := export.New(constants.ReportFormat(strings.ToLower(*format)), logger)
	if err != nil {
		logger.Error("failed to build exporter", "error", err)
		os.Exit(1)
	}
	rep := export.Report{
		GeneratedAt: time.Now().UTC(),
		Summary:     &summary,
		Entries:     export.FromResults(results),
	}
	path, err := export.WriteFile(context.WithoutCancel(ctx), exp, *out, *name, rep)
	if err != nil {
		logger.Error("failed to write report", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files scanned: %d (duplicates skipped: %d)\n", stats.Scanned, stats.Deduplicated)
	fmt.Printf("- Successful: %d\n", summary.Successful)
	fmt.Printf("- Failed: %d\n", summary.Failed)
	fmt.Printf("- Needs review: %d\n", summary.NeedsReview)
	fmt.Printf("- Success rate: %.2f%%\n", summary.SuccessRate)
	fmt.Printf("- Output: %s\n", path)
}
