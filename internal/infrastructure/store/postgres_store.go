package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
    collection VARCHAR(64)  NOT NULL,
    id         VARCHAR(255) NOT NULL,
    doc        JSONB        NOT NULL,
    updated_at TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
    PRIMARY KEY (collection, id)
)`

// insufficient_privilege
const pqInsufficientPrivilege = "42501"

// PostgresStore implements DocumentStore on a single JSONB table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the documents table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, documentsSchema); err != nil {
		return fmt.Errorf("failed to create documents table: %w", mapPostgresError(err))
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string, dst any) error {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return mapPostgresError(err)
	}
	return decodeRaw(raw, dst)
}

func (s *PostgresStore) Set(ctx context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, doc, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection, id) DO UPDATE SET
			doc = EXCLUDED.doc,
			updated_at = EXCLUDED.updated_at
	`, collection, id, raw, time.Now().UTC())
	return mapPostgresError(err)
}

func (s *PostgresStore) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, doc, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection, id) DO UPDATE SET
			doc = documents.doc || EXCLUDED.doc,
			updated_at = EXCLUDED.updated_at
	`, collection, id, raw, time.Now().UTC())
	return mapPostgresError(err)
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET doc = doc || $3, updated_at = $4
		WHERE collection = $1 AND id = $2
	`, collection, id, raw, time.Now().UTC())
	if err != nil {
		return mapPostgresError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	return mapPostgresError(err)
}

func mapPostgresError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pqInsufficientPrivilege {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, pqErr.Message)
	}
	return err
}

// ConnectPostgres creates a connection to PostgreSQL
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
