package entity

import (
	"time"

	"github.com/google/uuid"
)

// StoredInvoice is a persisted invoice record for data transfer between layers.
type StoredInvoice struct {
	ID          uuid.UUID     `json:"id"`
	FileID      *uuid.UUID    `json:"file_id,omitempty"`
	SourceName  string        `json:"source_name"`
	Record      InvoiceRecord `json:"record"`
	Warnings    []Warning     `json:"warnings"`
	NeedsReview bool          `json:"needs_review"`
	CreatedAt   time.Time     `json:"created_at"`
}
