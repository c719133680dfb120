package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLite is a Backend persisted in a SQLite database through sqlx.
type SQLite struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// OpenSQLite opens (and migrates) the database at path.
func OpenSQLite(path string, logger *slog.Logger) (*SQLite, error) {
	db, err := NewDB(path)
	if err != nil {
		return nil, err
	}
	return NewSQLite(db, logger), nil
}

// NewSQLite wraps an already migrated connection.
func NewSQLite(db *sqlx.DB, logger *slog.Logger) *SQLite {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLite{
		db:     db,
		logger: logger.With("component", "storage"),
	}
}

// Ping checks the database connection.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	if key == "" {
		return "", false, errors.New("key cannot be empty")
	}

	var value string
	err := s.db.GetContext(ctx, &value,
		`SELECT value FROM items WHERE namespace = ? AND key = ?;`, namespace, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error reading item", "namespace", namespace, "key", key, "error", err)
		return "", false, fmt.Errorf("failed to read item %s/%s: %w", namespace, key, err)
	}
	return value, true, nil
}

func (s *SQLite) Set(ctx context.Context, namespace, key, value string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	row := item{
		Namespace: namespace,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}

	query := `
        INSERT INTO items (namespace, key, value, updated_at)
        VALUES (:namespace, :key, :value, :updated_at)
        ON CONFLICT (namespace, key) DO UPDATE SET
            value = excluded.value,
            updated_at = excluded.updated_at;
    `
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		s.logger.ErrorContext(ctx, "Error saving item", "namespace", namespace, "key", key, "error", err)
		return fmt.Errorf("failed to save item %s/%s: %w", namespace, key, err)
	}

	s.logger.DebugContext(ctx, "Item saved", "namespace", namespace, "key", key, "size", len(value))
	return nil
}

func (s *SQLite) Delete(ctx context.Context, namespace, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM items WHERE namespace = ? AND key = ?;`, namespace, key); err != nil {
		s.logger.ErrorContext(ctx, "Error deleting item", "namespace", namespace, "key", key, "error", err)
		return fmt.Errorf("failed to delete item %s/%s: %w", namespace, key, err)
	}
	return nil
}

// RunMaintenance executes VACUUM on the database.
func (s *SQLite) RunMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")
	startTime := time.Now()

	// VACUUM cannot run inside a transaction.
	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "Database maintenance failed", "error", err)
		return fmt.Errorf("failed to vacuum database: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance completed", "duration", time.Since(startTime))
	return nil
}

// Close closes the database connection pool.
func (s *SQLite) Close() error {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Error closing database connection", "error", err)
		return err
	}
	s.logger.Debug("Database connection closed")
	return nil
}
