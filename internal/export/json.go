package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/playerMars/final-ocr/internal/common"
	"github.com/playerMars/final-ocr/internal/core/validate"
	"github.com/playerMars/final-ocr/internal/entity"
)

// JSONExporter writes the whole report as indented JSON. Every record is
// checked against the invoice schema first.
type JSONExporter struct {
	logger *slog.Logger
}

func (e *JSONExporter) Ext() string { return "json" }

func (e *JSONExporter) Write(ctx context.Context, w io.Writer, rep Report) error {
	entries := make([]Entry, len(rep.Entries))
	copy(entries, rep.Entries)
	for i := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		en := &entries[i]
		if err := validate.ValidateRecord(en.Record); err != nil {
			e.logger.Error("export.json.invalid_record", "source", en.Source, "err", err)
			return common.NewAppError("VALIDATION_ERROR", "record "+en.Source+" does not match schema", fmt.Errorf("%w: %v", common.ErrValidation, err))
		}
		if en.Warnings == nil {
			en.Warnings = []entity.Warning{}
		}
	}
	rep.Entries = entries

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("json write: %w", err)
	}
	e.logger.Info("export.json.ok", "invoices", len(rep.Entries))
	return nil
}
