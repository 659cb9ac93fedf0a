package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/playerMars/final-ocr/constants"
	"github.com/playerMars/final-ocr/internal/common"
	"github.com/playerMars/final-ocr/internal/entity"
)

type ExtractJobRepository interface {
	Start(ctx context.Context, fileID uuid.UUID, format constants.FileFormat) (*entity.ExtractJob, error)
	MarkOCR(ctx context.Context, jobID uuid.UUID, ocrText, method string, confidence float32) error
	MarkParsed(ctx context.Context, jobID, invoiceID uuid.UUID, completeness int, needsReview bool) error
	MarkFailed(ctx context.Context, jobID uuid.UUID, message string) error
	Get(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error)
}

type extractJobRepo struct {
	db  *DB
	log *slog.Logger
}

func NewExtractJobRepository(db *DB, log *slog.Logger) ExtractJobRepository {
	return &extractJobRepo{db: db, log: log}
}

func (r *extractJobRepo) Start(ctx context.Context, fileID uuid.UUID, format constants.FileFormat) (*entity.ExtractJob, error) {
	job := &entity.ExtractJob{
		ID:        uuid.New(),
		FileID:    fileID,
		Format:    string(format),
		StartedAt: time.Now().UTC(),
		Status:    string(constants.JobStatusRunning),
	}
	_, err := r.db.exec(ctx,
		`INSERT INTO extract_job (id, file_id, format, started_at, status, needs_review) VALUES (?, ?, ?, ?, ?, ?)`,
		job.ID, job.FileID, job.Format, formatTime(job.StartedAt), job.Status, false,
	)
	if err != nil {
		r.log.Error("extract_job start failed", "file_id", fileID, "err", err)
		return nil, dbError("start extract job", err)
	}
	r.log.Info("extract_job started", "job_id", job.ID, "file_id", fileID, "format", format)
	return job, nil
}

func (r *extractJobRepo) MarkOCR(ctx context.Context, jobID uuid.UUID, ocrText, method string, confidence float32) error {
	err := r.update(ctx, jobID,
		`UPDATE extract_job SET ocr_text = ?, method = ?, ocr_confidence = ?, status = ? WHERE id = ?`,
		ocrText, method, float64(confidence), string(constants.JobStatusOCROK), jobID,
	)
	if err != nil {
		r.log.Error("extract_job finish(OCR_OK) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("extract_job text extracted (OCR_OK)", "job_id", jobID, "method", method, "confidence", confidence)
	return nil
}

func (r *extractJobRepo) MarkParsed(ctx context.Context, jobID, invoiceID uuid.UUID, completeness int, needsReview bool) error {
	err := r.update(ctx, jobID,
		`UPDATE extract_job SET invoice_id = ?, completeness_score = ?, needs_review = ?, finished_at = ?, status = ? WHERE id = ?`,
		invoiceID, completeness, needsReview, formatTime(time.Now()), string(constants.JobStatusParsed), jobID,
	)
	if err != nil {
		r.log.Error("extract_job finish(PARSED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("extract_job finished (PARSED)", "job_id", jobID, "invoice_id", invoiceID, "needs_review", needsReview)
	return nil
}

func (r *extractJobRepo) MarkFailed(ctx context.Context, jobID uuid.UUID, message string) error {
	err := r.update(ctx, jobID,
		`UPDATE extract_job SET error_message = ?, finished_at = ?, status = ? WHERE id = ?`,
		message, formatTime(time.Now()), string(constants.JobStatusFailed), jobID,
	)
	if err != nil {
		r.log.Error("extract_job finish(FAILED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Warn("extract_job finished (FAILED)", "job_id", jobID, "error", message)
	return nil
}

func (r *extractJobRepo) update(ctx context.Context, jobID uuid.UUID, query string, args ...any) error {
	res, err := r.db.exec(ctx, query, args...)
	if err != nil {
		return dbError("update extract job", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.NewAppError("NOT_FOUND", "extract job "+jobID.String(), common.ErrNotFound)
	}
	return nil
}

func (r *extractJobRepo) Get(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error) {
	var (
		job        entity.ExtractJob
		startedAt  string
		finishedAt sql.NullString
		confidence sql.NullFloat64
	)
	err := r.db.queryRow(ctx,
		`SELECT id, file_id, invoice_id, format, started_at, finished_at, status, error_message,
		        ocr_confidence, completeness_score, needs_review, ocr_text, method
		   FROM extract_job WHERE id = ?`, jobID,
	).Scan(&job.ID, &job.FileID, &job.InvoiceID, &job.Format, &startedAt, &finishedAt, &job.Status, &job.ErrorMessage,
		&confidence, &job.CompletenessScore, &job.NeedsReview, &job.OCRText, &job.Method)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewAppError("NOT_FOUND", "extract job "+jobID.String(), common.ErrNotFound)
		}
		r.log.Error("extract_job get failed", "job_id", jobID, "err", err)
		return nil, dbError("get extract job", err)
	}
	job.StartedAt = parseTime(startedAt)
	job.FinishedAt = nullTime(finishedAt)
	if confidence.Valid {
		c := float32(confidence.Float64)
		job.OCRConfidence = &c
	}
	return &job, nil
}
