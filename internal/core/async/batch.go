package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/playerMars/final-ocr/internal/core"
	"github.com/playerMars/final-ocr/internal/entity"
)

// RunBatch processes files on a worker pool and returns one result per
// finished file, in input order. Cancelling ctx abandons the files not yet
// started; their results are absent and counted as abandoned.
func RunBatch(ctx context.Context, proc FileProcessor, files []entity.SourceFile, logger *slog.Logger, opts ...Option) ([]*core.ProcessResult, core.BatchSummary) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()
	slots := make([]*core.ProcessResult, len(files))
	var mu sync.Mutex

	sink := func(job Job, res *core.ProcessResult) {
		mu.Lock()
		slots[job.Index] = res
		mu.Unlock()
	}
	opts = append(opts, WithContext(ctx), WithResultSink(sink))
	q := NewProcessorQueue(proc, logger, opts...)

	logger.Info("batch.start", "files", len(files))
	for i, f := range files {
		if err := q.Enqueue(ctx, Job{File: f, Index: i}); err != nil {
			logger.Warn("batch.enqueue.stopped", "queued", i, "err", err)
			break
		}
	}
	// workers skip what is left once ctx is done, so draining always ends
	q.Shutdown(context.Background())

	results := make([]*core.ProcessResult, 0, len(files))
	for _, r := range slots {
		if r != nil {
			results = append(results, r)
		}
	}
	summary := core.Summarize(results, len(files), time.Since(start))
	logger.Info("batch.complete",
		"total_files", summary.TotalFiles,
		"successful", summary.Successful,
		"failed", summary.Failed,
		"needs_review", summary.NeedsReview,
		"abandoned", summary.Abandoned,
		"success_rate", summary.SuccessRate,
		"duration_ms", summary.Duration.Milliseconds(),
	)
	return results, summary
}
