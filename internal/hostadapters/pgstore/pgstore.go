// Package pgstore is the durable catalog store behind cmd/host-harness: it
// holds the advertising catalog document the harness serves at the engine's
// configured catalog URL, and the sample bundle returned by
// host.Host.LoadSampleBundle. Adapted from the teacher codebase's
// internal/db.Postgres connection/otelsql/schema setup.
package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS catalog_documents (
    id SERIAL PRIMARY KEY,
    region TEXT NOT NULL,
    body JSONB NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_catalog_documents_region ON catalog_documents (region);

CREATE TABLE IF NOT EXISTS sample_bundles (
    id SERIAL PRIMARY KEY,
    body JSONB NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);
`

// Store wraps a connection pool to the catalog/sample-bundle database.
type Store struct {
	db *sql.DB
}

// Open connects to dsn with otelsql instrumentation and ensures the schema
// exists.
func Open(dsn string, maxOpenConns, maxIdleConns int, connMaxLifetime time.Duration) (*Store, error) {
	driverName, err := otelsql.Register("postgres",
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")))
	if err != nil {
		return nil, fmt.Errorf("register otelsql: %w", err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	s := &Store{db: db}
	if _, err := s.db.ExecContext(context.Background(), schemaSQL); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	zap.L().Info("connected to postgres catalog store")
	return s, nil
}

// PutCatalog upserts the catalog document for region.
func (s *Store) PutCatalog(region string, body []byte) error {
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO catalog_documents (region, body) VALUES ($1, $2)
		 ON CONFLICT (region) DO UPDATE SET body = $2, updated_at = NOW()`,
		region, body)
	if err != nil {
		return fmt.Errorf("put catalog: %w", err)
	}
	return nil
}

// GetCatalog returns the catalog document stored for region.
func (s *Store) GetCatalog(region string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(context.Background(),
		`SELECT body FROM catalog_documents WHERE region = $1`, region).Scan(&body)
	if err != nil {
		return nil, fmt.Errorf("get catalog: %w", err)
	}
	return body, nil
}

// PutSampleBundle replaces the single stored sample bundle document.
func (s *Store) PutSampleBundle(body []byte) error {
	_, err := s.db.ExecContext(context.Background(), `DELETE FROM sample_bundles`)
	if err != nil {
		return fmt.Errorf("clear sample bundle: %w", err)
	}
	_, err = s.db.ExecContext(context.Background(),
		`INSERT INTO sample_bundles (body) VALUES ($1)`, body)
	if err != nil {
		return fmt.Errorf("put sample bundle: %w", err)
	}
	return nil
}

// GetSampleBundle returns the most recently stored sample bundle document.
func (s *Store) GetSampleBundle() ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(context.Background(),
		`SELECT body FROM sample_bundles ORDER BY updated_at DESC LIMIT 1`).Scan(&body)
	if err != nil {
		return nil, fmt.Errorf("get sample bundle: %w", err)
	}
	return body, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
