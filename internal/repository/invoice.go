package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/playerMars/final-ocr/internal/common"
	"github.com/playerMars/final-ocr/internal/core/validate"
	"github.com/playerMars/final-ocr/internal/entity"
)

// SaveInvoiceRequest wraps parameters for storing a parsed invoice.
type SaveInvoiceRequest struct {
	FileID      *uuid.UUID
	SourceName  string
	Record      entity.InvoiceRecord
	Warnings    []entity.Warning
	NeedsReview bool
}

// ListInvoicesFilter narrows List. Zero values mean no restriction.
type ListInvoicesFilter struct {
	NeedsReview *bool
	Limit       int
	Offset      int
}

type InvoiceRepository interface {
	Save(ctx context.Context, req *SaveInvoiceRequest) (*entity.StoredInvoice, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.StoredInvoice, error)
	List(ctx context.Context, filter ListInvoicesFilter) ([]*entity.StoredInvoice, error)
}

type invoiceRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewInvoiceRepository(db *DB, logger *slog.Logger) InvoiceRepository {
	return &invoiceRepository{
		db:     db,
		logger: logger,
	}
}

// Save validates the record against the invoice schema and stores it with
// its line items in one transaction.
func (r *invoiceRepository) Save(ctx context.Context, req *SaveInvoiceRequest) (*entity.StoredInvoice, error) {
	if err := validate.ValidateRecord(req.Record); err != nil {
		r.logger.Warn("invoice rejected by schema", "source", req.SourceName, "error", err)
		return nil, common.NewAppError("VALIDATION_ERROR", "invoice record does not match schema", fmt.Errorf("%w: %v", common.ErrValidation, err))
	}
	recordJSON, err := json.Marshal(req.Record)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	warns := req.Warnings
	if warns == nil {
		warns = []entity.Warning{}
	}
	warningsJSON, err := json.Marshal(warns)
	if err != nil {
		return nil, fmt.Errorf("marshal warnings: %w", err)
	}

	inv := &entity.StoredInvoice{
		ID:          uuid.New(),
		FileID:      req.FileID,
		SourceName:  req.SourceName,
		Record:      req.Record,
		Warnings:    warns,
		NeedsReview: req.NeedsReview,
		CreatedAt:   time.Now().UTC(),
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("failed to begin invoice transaction", "error", err)
		return nil, dbError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	rec := req.Record
	_, err = tx.ExecContext(ctx, r.db.rebind(
		`INSERT INTO invoice (id, file_id, source_name, invoice_number, issue_date, seller_name, client_name,
		                      net_worth, vat, gross_worth, completeness_score, needs_review, record_json, warnings_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		inv.ID, inv.FileID, inv.SourceName, rec.InvoiceNumber, rec.IssueDate, rec.Seller.Name, rec.Client.Name,
		rec.Totals.NetWorth, rec.Totals.VAT, rec.Totals.GrossWorth, rec.CompletenessScore, inv.NeedsReview,
		string(recordJSON), string(warningsJSON), formatTime(inv.CreatedAt),
	)
	if err != nil {
		r.logger.Error("failed to insert invoice", "source", req.SourceName, "error", err)
		return nil, dbError("insert invoice", err)
	}

	itemSQL := r.db.rebind(
		`INSERT INTO invoice_item (invoice_id, position, item_no, description, quantity, unit_price, net_worth, vat_percentage, gross_worth)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for i, it := range rec.LineItems {
		if _, err := tx.ExecContext(ctx, itemSQL,
			inv.ID, i, it.ItemNo, it.Description, it.Quantity, it.UnitPrice, it.NetWorth, it.VATPercentage, it.GrossWorth,
		); err != nil {
			r.logger.Error("failed to insert invoice item", "invoice_id", inv.ID, "position", i, "error", err)
			return nil, dbError("insert invoice item", err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("failed to commit invoice", "invoice_id", inv.ID, "error", err)
		return nil, dbError("commit invoice", err)
	}
	r.logger.Info("invoice stored", "invoice_id", inv.ID, "invoice_number", rec.InvoiceNumber, "items", len(rec.LineItems))
	return inv, nil
}

const invoiceColumns = `id, file_id, source_name, needs_review, record_json, warnings_json, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*entity.StoredInvoice, error) {
	var (
		inv                      entity.StoredInvoice
		recordJSON, warningsJSON string
		createdAt                string
	)
	if err := row.Scan(&inv.ID, &inv.FileID, &inv.SourceName, &inv.NeedsReview, &recordJSON, &warningsJSON, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(recordJSON), &inv.Record); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", inv.ID, err)
	}
	if err := json.Unmarshal([]byte(warningsJSON), &inv.Warnings); err != nil {
		return nil, fmt.Errorf("decode warnings %s: %w", inv.ID, err)
	}
	if inv.Record.LineItems == nil {
		inv.Record.LineItems = []entity.LineItem{}
	}
	inv.CreatedAt = parseTime(createdAt)
	return &inv, nil
}

func (r *invoiceRepository) Get(ctx context.Context, id uuid.UUID) (*entity.StoredInvoice, error) {
	inv, err := scanInvoice(r.db.queryRow(ctx, `SELECT `+invoiceColumns+` FROM invoice WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewAppError("NOT_FOUND", "invoice "+id.String(), common.ErrNotFound)
		}
		r.logger.Error("failed to get invoice", "invoice_id", id, "error", err)
		return nil, dbError("get invoice", err)
	}
	return inv, nil
}

func (r *invoiceRepository) List(ctx context.Context, filter ListInvoicesFilter) ([]*entity.StoredInvoice, error) {
	q := `SELECT ` + invoiceColumns + ` FROM invoice`
	var args []any
	if filter.NeedsReview != nil {
		q += ` WHERE needs_review = ?`
		args = append(args, *filter.NeedsReview)
	}
	q += ` ORDER BY created_at, id`
	if filter.Limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.db.query(ctx, q, args...)
	if err != nil {
		r.logger.Error("failed to list invoices", "error", err)
		return nil, dbError("list invoices", err)
	}
	defer rows.Close()

	result := []*entity.StoredInvoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			r.logger.Error("failed to scan invoice", "error", err)
			return nil, dbError("scan invoice", err)
		}
		result = append(result, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("list invoices", err)
	}
	return result, nil
}
