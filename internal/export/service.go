package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/playerMars/final-ocr/constants"
	"github.com/playerMars/final-ocr/internal/repository"
)

// Service is a tiny façade over the invoice repository that produces report bytes.
type Service struct {
	invoices repository.InvoiceRepository
	logger   *slog.Logger
}

func NewService(invoices repository.InvoiceRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{invoices: invoices, logger: logger}
}

// ExportStored renders the stored invoices matching filter in format.
func (s *Service) ExportStored(ctx context.Context, format constants.ReportFormat, filter repository.ListInvoicesFilter) ([]byte, error) {
	exp, err := New(format, s.logger)
	if err != nil {
		return nil, err
	}
	invs, err := s.invoices.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}

	var buf bytes.Buffer
	rep := Report{GeneratedAt: time.Now().UTC(), Entries: FromStored(invs)}
	if err := exp.Write(ctx, &buf, rep); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
