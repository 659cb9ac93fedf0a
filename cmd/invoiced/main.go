package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/playerMars/final-ocr/internal/app"
	"github.com/playerMars/final-ocr/internal/common"
	"github.com/playerMars/final-ocr/internal/core"
	"github.com/playerMars/final-ocr/internal/core/async"
	"github.com/playerMars/final-ocr/internal/ingest"
	"github.com/playerMars/final-ocr/internal/server"
)

func main() {
	var (
		watch = flag.String("watch", "", "directory to watch for new invoice files (optional)")
		scan  = flag.Bool("scan", true, "with -watch, also process files already present")
		inmem = flag.Bool("inmem", false, "use in-memory SQLite database")
	)
	flag.Parse()

	cfg := common.LoadConfig()
	logger := app.NewLogger(os.Stdout, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, app.Options{InMemory: *inmem})
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := server.PingDB(ctx, a.DB, logger, cfg.Database.DialTimeout); err != nil {
		logger.Error("database health failed", "error", err)
		os.Exit(1)
	}

	if *watch != "" {
		queue := async.NewProcessorQueue(a.Processor, logger,
			async.WithContext(ctx),
			async.WithWorkers(cfg.Batch.Workers),
			async.WithQueueSize(cfg.Batch.QueueSize),
			async.WithProcessTimeout(cfg.Batch.JobTimeout),
			async.WithResultSink(func(job async.Job, res *core.ProcessResult) {
				logger.Info("watch.processed",
					"file", job.File.SourcePath,
					"ok", res.OK(),
					"needs_review", res.NeedsReview,
					"duplicate", res.Duplicate,
				)
			}),
		)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			queue.Shutdown(shutdownCtx)
		}()
		if err := watchDir(ctx, *watch, *scan, queue, logger); err != nil {
			logger.Error("failed to start watcher", "dir", *watch, "error", err)
			os.Exit(1)
		}
	}

	srv := server.New(server.Deps{
		Pipeline: a.Processor,
		DB:       a.DB,
		Invoices: a.Invoices,
		Jobs:     a.Jobs,
		Exports:  a.Exports,
	}, cfg.Server, logger)

	if err := srv.Run(ctx); err != nil {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}

// watchDir feeds every file the watcher reports into queue until ctx is done.
func watchDir(ctx context.Context, dir string, initialScan bool, queue *async.ProcessorQueue, logger *slog.Logger) error {
	paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{dir},
		SkipHidden:  true,
		InitialScan: initialScan,
		Debounce:    500 * time.Millisecond,
	}, logger)
	if err != nil {
		return err
	}

	go func() {
		for err := range errs {
			logger.Warn("watch.error", "error", err)
		}
	}()
	go func() {
		for path := range paths {
			file, err := ingest.Describe(path)
			if err != nil {
				logger.Warn("watch.describe.failed", "path", path, "error", err)
				continue
			}
			job := async.Job{ID: uuid.New(), File: file, SubmittedAt: time.Now()}
			if err := queue.Enqueue(ctx, job); err != nil {
				logger.Warn("watch.enqueue.failed", "path", path, "error", err)
				return
			}
		}
	}()
	return nil
}
