package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const schemaLockKey int64 = 2024030101

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func psql() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockKey); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS shops (
	id BIGSERIAL PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	owner_name TEXT NOT NULL DEFAULT '',
	owner_email TEXT NOT NULL,
	owner_phone TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_shops_status ON shops(status);
CREATE INDEX IF NOT EXISTS idx_shops_created_at ON shops(created_at DESC);

CREATE TABLE IF NOT EXISTS shop_status_history (
	id BIGSERIAL PRIMARY KEY,
	shop_id BIGINT NOT NULL REFERENCES shops(id) ON DELETE CASCADE,
	status TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	actor TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_shop_status_history_shop ON shop_status_history(shop_id, id);

CREATE TABLE IF NOT EXISTS shop_documents (
	id BIGSERIAL PRIMARY KEY,
	shop_id BIGINT NOT NULL REFERENCES shops(id) ON DELETE CASCADE,
	document_type TEXT NOT NULL,
	document_name TEXT NOT NULL,
	original_filename TEXT NOT NULL,
	file_type TEXT NOT NULL DEFAULT '',
	file_size_bytes BIGINT NOT NULL,
	storage_key TEXT NOT NULL,
	verification_status TEXT NOT NULL,
	verification_notes TEXT,
	verified_by TEXT,
	verified_at TIMESTAMPTZ,
	expired_at TIMESTAMPTZ,
	page_count INTEGER,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_shop_documents_shop ON shop_documents(shop_id, created_at DESC);

ALTER TABLE shop_documents ADD COLUMN IF NOT EXISTS expired_at TIMESTAMPTZ;
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
