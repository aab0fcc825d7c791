package credstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens or creates the SQLite database at path in WAL mode.
// The handle can be shared by SQLiteBackend and the record set.
func OpenSQLite(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Join(ErrOpenFailed, err)
	}
	// writers serialize in SQLite anyway; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return db, nil
}

// SQLiteBackend is a durable Backend stored in a single table.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend creates the items table if needed.
func NewSQLiteBackend(ctx context.Context, db *sql.DB) (*SQLiteBackend, error) {
	b := &SQLiteBackend{db: db}
	if err := b.migrate(ctx); err != nil {
		return nil, errors.Join(ErrMigrationFailed, err)
	}
	return b, nil
}

func (b *SQLiteBackend) migrate(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS credstore_items (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`)
	return err
}

func (b *SQLiteBackend) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := b.db.QueryRowContext(ctx, `SELECT value FROM credstore_items WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Join(ErrReadFailed, err)
	}
	return v, true, nil
}

func (b *SQLiteBackend) Set(ctx context.Context, key, value string) error {
	_, err := b.db.ExecContext(ctx, `
	INSERT INTO credstore_items (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return errors.Join(ErrWriteFailed, err)
	}
	return nil
}

func (b *SQLiteBackend) Delete(ctx context.Context, key string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM credstore_items WHERE key = ?`, key); err != nil {
		return errors.Join(ErrWriteFailed, err)
	}
	return nil
}

func (b *SQLiteBackend) Keys(ctx context.Context) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT key FROM credstore_items ORDER BY key`)
	if err != nil {
		return nil, errors.Join(ErrReadFailed, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, errors.Join(ErrReadFailed, err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (b *SQLiteBackend) Clear(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM credstore_items`); err != nil {
		return errors.Join(ErrWriteFailed, err)
	}
	return nil
}
