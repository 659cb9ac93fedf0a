// Package invoice extracts structured invoice fields from OCR text.
//
// Parsing never fails: every problem is reported as an entity.Warning next to
// the most complete record that could be recovered.
package invoice

import (
	"log/slog"

	"github.com/playerMars/final-ocr/internal/core/textclean"
	"github.com/playerMars/final-ocr/internal/entity"
)

// DefaultVAT is the rate, in percent, assumed for rows that print none.
const DefaultVAT = 10.0

// Result is a parsed record and the warnings collected on the way.
type Result struct {
	Record   entity.InvoiceRecord
	Warnings []entity.Warning
}

// Parser is stateless between calls and safe for concurrent use.
type Parser struct {
	logger     *slog.Logger
	defaultVAT float64
}

// Option configures a Parser.
type Option func(*Parser)

// WithDefaultVAT overrides the rate used for rows without a VAT column.
func WithDefaultVAT(rate float64) Option {
	return func(p *Parser) {
		if rate >= 0 {
			p.defaultVAT = rate
		}
	}
}

func NewParser(logger *slog.Logger, opts ...Option) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Parser{logger: logger, defaultVAT: DefaultVAT}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse runs the whole extraction over one OCR text.
func (p *Parser) Parse(raw string) Result {
	text := textclean.Normalize(raw)
	var warns []entity.Warning

	header, w := ExtractHeader(text)
	warns = append(warns, w...)

	seller, client, w := ExtractParties(text)
	warns = append(warns, w...)

	section, startLine := ItemsSection(text)
	segments, w := SegmentItems(section, startLine)
	warns = append(warns, w...)

	items := make([]entity.LineItem, 0, len(segments))
	for _, seg := range segments {
		item, w, ok := ParseLineItem(seg, p.defaultVAT)
		warns = append(warns, w...)
		if ok {
			items = append(items, item)
		}
	}

	totals, w := ReconcileTotals(text, items, header.GrandTotal)
	warns = append(warns, w...)

	rec := entity.InvoiceRecord{
		InvoiceNumber: header.InvoiceNumber,
		IssueDate:     header.IssueDate,
		Seller:        seller,
		Client:        client,
		LineItems:     items,
		Totals:        totals,
	}
	rec.CompletenessScore = Score(rec)

	for _, wr := range warns {
		p.logger.Debug("invoice.parse.warning", "kind", wr.Kind, "field", wr.Field, "line", wr.Line, "msg", wr.Message)
	}
	p.logger.Debug("invoice.parse.done",
		"invoice_number", rec.InvoiceNumber,
		"items", len(rec.LineItems),
		"completeness", rec.CompletenessScore,
		"warnings", len(warns),
	)
	return Result{Record: rec, Warnings: warns}
}

// Parse uses a Parser with default settings.
func Parse(raw string) Result {
	return NewParser(nil).Parse(raw)
}
