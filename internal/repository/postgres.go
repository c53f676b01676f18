package repository

import (
	"database/sql"
	_ "embed"
	"fmt"

	"studio-recon/pkg/logger"
)

//go:embed schema.sql
var schema string

// PostgresStore implements Store on a Postgres database.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate applies the embedded schema. Every statement is idempotent, so
// running it on startup is safe.
func (s *PostgresStore) Migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to apply schema")
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
