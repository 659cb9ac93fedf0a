package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/playerMars/final-ocr/internal/common"
	"github.com/playerMars/final-ocr/internal/entity"
)

type SourceFileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.SourceFile, error)
	GetByHash(ctx context.Context, hash []byte) (*entity.SourceFile, error)
	Create(ctx context.Context, f entity.SourceFile) (*entity.SourceFile, error)
	// UpsertByHash returns the stored file with the same content hash, or
	// creates it. The bool is true when the file already existed.
	UpsertByHash(ctx context.Context, f entity.SourceFile) (*entity.SourceFile, bool, error)
}

type sourceFileRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewSourceFileRepository(db *DB, logger *slog.Logger) SourceFileRepository {
	return &sourceFileRepo{
		db:     db,
		logger: logger,
	}
}

const sourceFileColumns = `id, source_path, content_hash, filename, file_ext, file_size, uploaded_at`

func scanSourceFile(row *sql.Row) (*entity.SourceFile, error) {
	var (
		f          entity.SourceFile
		uploadedAt string
	)
	if err := row.Scan(&f.ID, &f.SourcePath, &f.ContentHash, &f.Filename, &f.FileExt, &f.FileSize, &uploadedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	f.UploadedAt = parseTime(uploadedAt)
	return &f, nil
}

func (r *sourceFileRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.SourceFile, error) {
	f, err := scanSourceFile(r.db.queryRow(ctx, `SELECT `+sourceFileColumns+` FROM source_file WHERE id = ?`, id))
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		r.logger.Error("failed to get source file", "file_id", id, "error", err)
		return nil, dbError("get source file", err)
	}
	return f, err
}

func (r *sourceFileRepo) GetByHash(ctx context.Context, hash []byte) (*entity.SourceFile, error) {
	f, err := scanSourceFile(r.db.queryRow(ctx, `SELECT `+sourceFileColumns+` FROM source_file WHERE content_hash = ?`, hash))
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		r.logger.Error("failed to get source file by hash", "error", err)
		return nil, dbError("get source file by hash", err)
	}
	return f, err
}

func (r *sourceFileRepo) Create(ctx context.Context, f entity.SourceFile) (*entity.SourceFile, error) {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	_, err := r.db.exec(ctx,
		`INSERT INTO source_file (`+sourceFileColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.SourcePath, f.ContentHash, f.Filename, f.FileExt, f.FileSize, formatTime(f.UploadedAt),
	)
	if err != nil {
		r.logger.Error("failed to create source file", "source_path", f.SourcePath, "filename", f.Filename, "error", err)
		return nil, dbError("create source file", err)
	}
	return &f, nil
}

func (r *sourceFileRepo) UpsertByHash(ctx context.Context, f entity.SourceFile) (*entity.SourceFile, bool, error) {
	existing, err := r.GetByHash(ctx, f.ContentHash)
	switch {
	case err == nil:
		return existing, true, nil
	case !errors.Is(err, common.ErrNotFound):
		return nil, false, err
	}
	row, err := r.Create(ctx, f)
	if err != nil {
		r.logger.Error("failed to upsert source file by hash", "source_path", f.SourcePath, "filename", f.Filename, "error", err)
		return nil, false, err
	}
	return row, false, nil
}
