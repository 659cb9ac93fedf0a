package extract

import (
	"context"
	"time"

	"github.com/playerMars/final-ocr/constants"
	"github.com/playerMars/final-ocr/internal/core/invoice"
)

// TextExtractor is Stage 1: file -> text. Extraction failures are reported
// through Failed and Warnings; the error is only the caller's context.
type TextExtractor interface {
	Extract(ctx context.Context, path, langHint string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	Pages      int
	SourceType constants.FileFormat
	Method     string // "text" | "pdf-text" | "pdf-ocr" | "image-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
	Attempts   int
	// Failed is set when every attempt errored and Text is empty.
	Failed bool
}

// FieldExtractor is Stage 2: text -> invoice fields.
type FieldExtractor interface {
	Parse(text string) invoice.Result
}

var _ FieldExtractor = (*invoice.Parser)(nil)
