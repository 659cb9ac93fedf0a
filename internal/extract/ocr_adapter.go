package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playerMars/final-ocr/internal/ocr"
)

// FileExtractor is the OCR backend the adapter drives; *ocr.Extractor
// implements it.
type FileExtractor interface {
	Extract(ctx context.Context, path, langHint string) (ocr.ExtractionResult, error)
}

var _ FileExtractor = (*ocr.Extractor)(nil)

// OCRAdapter applies the timeout and retry policy around OCR and turns
// extraction errors into an empty, flagged result.
type OCRAdapter struct {
	extractor FileExtractor
	logger    *slog.Logger
	timeout   time.Duration
	retries   int
	backoff   time.Duration
}

type AdapterOption func(*OCRAdapter)

// WithTimeout bounds each attempt. Zero disables the bound.
func WithTimeout(d time.Duration) AdapterOption {
	return func(a *OCRAdapter) { a.timeout = d }
}

// WithRetries sets how many extra attempts follow a failed one.
func WithRetries(n int) AdapterOption {
	return func(a *OCRAdapter) {
		if n >= 0 {
			a.retries = n
		}
	}
}

// WithBackoff sets the pause before each retry.
func WithBackoff(d time.Duration) AdapterOption {
	return func(a *OCRAdapter) { a.backoff = d }
}

func NewOCRAdapter(e FileExtractor, l *slog.Logger, opts ...AdapterOption) *OCRAdapter {
	if l == nil {
		l = slog.Default()
	}
	a := &OCRAdapter{
		extractor: e,
		logger:    l,
		timeout:   2 * time.Minute,
		retries:   1,
		backoff:   500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *OCRAdapter) Extract(ctx context.Context, path, langHint string) (TextExtractionResult, error) {
	var (
		warns   []string
		lastErr error
	)
	for attempt := 0; attempt <= a.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return TextExtractionResult{Warnings: warns, Attempts: attempt}, ctx.Err()
			case <-time.After(a.backoff):
			}
		}

		r, err := a.once(ctx, path, langHint)
		if err == nil {
			return TextExtractionResult{
				Text:       r.Text,
				Pages:      r.Pages,
				SourceType: r.SourceType,
				Method:     r.Method,
				Language:   r.Language,
				Duration:   r.Duration,
				Warnings:   append(warns, r.Warnings...),
				Confidence: r.Confidence,
				Attempts:   attempt + 1,
			}, nil
		}
		if ctx.Err() != nil {
			return TextExtractionResult{Warnings: warns, Attempts: attempt + 1}, ctx.Err()
		}

		lastErr = err
		warns = append(warns, r.Warnings...)
		warns = append(warns, fmt.Sprintf("attempt %d: %v", attempt+1, err))
		a.logger.Warn("extract.ocr.attempt.failed", "path", path, "attempt", attempt+1, "err", err)
	}

	a.logger.Error("extract.ocr.failed", "path", path, "attempts", a.retries+1, "err", lastErr)
	return TextExtractionResult{
		Warnings: warns,
		Attempts: a.retries + 1,
		Failed:   true,
	}, nil
}

func (a *OCRAdapter) once(ctx context.Context, path, langHint string) (ocr.ExtractionResult, error) {
	if a.timeout <= 0 {
		return a.extractor.Extract(ctx, path, langHint)
	}
	actx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	r, err := a.extractor.Extract(actx, path, langHint)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		err = fmt.Errorf("ocr timed out after %s: %w", a.timeout, err)
	}
	return r, err
}
