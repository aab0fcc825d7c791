package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SQLiteSet is a durable Set. Loaded records are cached so that every lookup of the same
// record returns the same pointer.
type SQLiteSet struct {
	db *sql.DB

	mu    sync.Mutex
	cache map[uuid.UUID]*Record
}

// NewSQLiteSet creates the records table if needed. db is typically shared with the
// credential store.
func NewSQLiteSet(ctx context.Context, db *sql.DB) (*SQLiteSet, error) {
	s := &SQLiteSet{db: db, cache: make(map[uuid.UUID]*Record)}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate records: %w", err)
	}
	return s, nil
}

func (s *SQLiteSet) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS records (
		id           TEXT PRIMARY KEY,
		content_type TEXT NOT NULL,
		content      BLOB NOT NULL,
		dirty        INTEGER NOT NULL DEFAULT 0,
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_records_content_type ON records(content_type, created_at);
	CREATE INDEX IF NOT EXISTS idx_records_dirty ON records(dirty);
	`)
	return err
}

func (s *SQLiteSet) FindByContentType(ctx context.Context, contentType string) (*Record, bool, error) {
	list, err := s.query(ctx, `SELECT id, content_type, content, dirty, created_at, updated_at
		FROM records WHERE content_type = ? ORDER BY created_at, id LIMIT 1`, contentType)
	if err != nil || len(list) == 0 {
		return nil, false, err
	}
	return list[0], true, nil
}

func (s *SQLiteSet) ListByContentType(ctx context.Context, contentType string) ([]*Record, error) {
	return s.query(ctx, `SELECT id, content_type, content, dirty, created_at, updated_at
		FROM records WHERE content_type = ? ORDER BY created_at, id`, contentType)
}

// DirtyRecords returns records waiting for sync.
func (s *SQLiteSet) DirtyRecords(ctx context.Context) ([]*Record, error) {
	return s.query(ctx, `SELECT id, content_type, content, dirty, created_at, updated_at
		FROM records WHERE dirty = 1 ORDER BY updated_at`)
}

func (s *SQLiteSet) Add(ctx context.Context, r *Record) error {
	if r == nil {
		return ErrNilRecord
	}
	body, err := encodeContent(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache[r.ID]; ok {
		return ErrDuplicateRecord
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO records (id, content_type, content, dirty, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.ContentType, body, boolInt(r.Dirty()),
		formatTime(r.CreatedAt), formatTime(r.UpdatedAt()))
	if err != nil {
		// primary key violation or I/O failure
		return errors.Join(ErrStorageFailed, err)
	}
	s.cache[r.ID] = r
	return nil
}

func (s *SQLiteSet) MarkDirty(ctx context.Context, r *Record) error {
	if r == nil {
		return ErrNilRecord
	}
	r.setDirty(true)
	return s.save(ctx, r)
}

// MarkClean clears the dirty flag after a successful sync.
func (s *SQLiteSet) MarkClean(ctx context.Context, ids ...uuid.UUID) error {
	for _, id := range ids {
		if _, err := s.db.ExecContext(ctx, `UPDATE records SET dirty = 0 WHERE id = ?`, id.String()); err != nil {
			return errors.Join(ErrStorageFailed, err)
		}
		s.mu.Lock()
		if r, ok := s.cache[id]; ok {
			r.setDirty(false)
		}
		s.mu.Unlock()
	}
	return nil
}

func (s *SQLiteSet) save(ctx context.Context, r *Record) error {
	body, err := encodeContent(r)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE records SET content = ?, dirty = ?, updated_at = ? WHERE id = ?`,
		body, boolInt(r.Dirty()), formatTime(r.UpdatedAt()), r.ID.String())
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type row struct {
	id, contentType, created, updated string
	body                              []byte
	dirty                             int
}

func (s *SQLiteSet) query(ctx context.Context, q string, args ...any) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}
	var raw []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.contentType, &r.body, &r.dirty, &r.created, &r.updated); err != nil {
			rows.Close()
			return nil, errors.Join(ErrStorageFailed, err)
		}
		raw = append(raw, r)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Record, 0, len(raw))
	for _, rr := range raw {
		id, err := uuid.Parse(rr.id)
		if err != nil {
			return nil, errors.Join(ErrDecodeFailed, err)
		}
		if cached, ok := s.cache[id]; ok {
			out = append(out, cached)
			continue
		}

		appData, err := decodeContent(rr.body)
		if err != nil {
			return nil, err
		}
		r := &Record{
			ID:          id,
			ContentType: rr.contentType,
			CreatedAt:   parseTime(rr.created),
			appData:     appData,
			dirty:       rr.dirty == 1,
			updatedAt:   parseTime(rr.updated),
		}
		s.cache[id] = r
		out = append(out, r)
	}
	return out, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// fixed-width so that string order matches time order
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
