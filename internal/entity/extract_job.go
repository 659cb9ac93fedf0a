package entity

import (
	"time"

	"github.com/google/uuid"
)

// ExtractJob tracks one file through text extraction and parsing.
type ExtractJob struct {
	ID                uuid.UUID  `json:"id"`
	FileID            uuid.UUID  `json:"file_id"`
	InvoiceID         *uuid.UUID `json:"invoice_id,omitempty"`
	Format            string     `json:"format"`
	StartedAt         time.Time  `json:"started_at"`
	FinishedAt        *time.Time `json:"finished_at,omitempty"`
	Status            string     `json:"status"`
	ErrorMessage      *string    `json:"error_message,omitempty"`
	OCRConfidence     *float32   `json:"ocr_confidence,omitempty"`
	CompletenessScore *int       `json:"completeness_score,omitempty"`
	NeedsReview       bool       `json:"needs_review"`
	OCRText           *string    `json:"ocr_text,omitempty"`
	Method            *string    `json:"method,omitempty"`
}
