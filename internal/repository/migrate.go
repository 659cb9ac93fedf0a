package repository

import (
	"context"
	"log/slog"
	"strings"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS source_file (
	id           TEXT PRIMARY KEY,
	source_path  TEXT NOT NULL,
	content_hash {{blob}} NOT NULL UNIQUE,
	filename     TEXT NOT NULL,
	file_ext     TEXT NOT NULL,
	file_size    INTEGER NOT NULL,
	uploaded_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS extract_job (
	id                 TEXT PRIMARY KEY,
	file_id            TEXT NOT NULL REFERENCES source_file(id),
	invoice_id         TEXT,
	format             TEXT NOT NULL,
	started_at         TEXT NOT NULL,
	finished_at        TEXT,
	status             TEXT NOT NULL,
	error_message      TEXT,
	ocr_confidence     {{real}},
	completeness_score INTEGER,
	needs_review       BOOLEAN NOT NULL DEFAULT FALSE,
	ocr_text           TEXT,
	method             TEXT
);

CREATE INDEX IF NOT EXISTS extract_job_status_idx ON extract_job (status);

CREATE TABLE IF NOT EXISTS invoice (
	id                 TEXT PRIMARY KEY,
	file_id            TEXT,
	source_name        TEXT NOT NULL,
	invoice_number     TEXT NOT NULL,
	issue_date         TEXT NOT NULL,
	seller_name        TEXT NOT NULL,
	client_name        TEXT NOT NULL,
	net_worth          {{real}} NOT NULL,
	vat                {{real}} NOT NULL,
	gross_worth        {{real}} NOT NULL,
	completeness_score INTEGER NOT NULL,
	needs_review       BOOLEAN NOT NULL,
	record_json        TEXT NOT NULL,
	warnings_json      TEXT NOT NULL,
	created_at         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS invoice_created_idx ON invoice (created_at);

CREATE TABLE IF NOT EXISTS invoice_item (
	invoice_id     TEXT NOT NULL REFERENCES invoice(id) ON DELETE CASCADE,
	position       INTEGER NOT NULL,
	item_no        INTEGER,
	description    TEXT NOT NULL,
	quantity       {{real}} NOT NULL,
	unit_price     {{real}} NOT NULL,
	net_worth      {{real}} NOT NULL,
	vat_percentage TEXT NOT NULL,
	gross_worth    {{real}} NOT NULL,
	PRIMARY KEY (invoice_id, position)
);
`

func (db *DB) ddl() []string {
	blobType, realType := "BLOB", "REAL"
	if db.dialect == DialectPostgres {
		blobType, realType = "BYTEA", "DOUBLE PRECISION"
	}
	s := strings.NewReplacer("{{blob}}", blobType, "{{real}}", realType).Replace(schemaDDL)

	var out []string
	for _, stmt := range strings.Split(s, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// Migrate creates any missing tables and indexes. It is safe to run on
// every start.
func Migrate(ctx context.Context, db *DB, logger *slog.Logger) error {
	for _, stmt := range db.ddl() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			logger.Error("schema migration failed", "error", err)
			return dbError("migrate", err)
		}
	}
	logger.Info("schema migrated", "dialect", db.dialect)
	return nil
}
