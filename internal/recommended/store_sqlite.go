package recommended

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the whole record as one JSON document in an options
// table, the way a host key-value options store would. The pool is pinned to
// one connection, so SetState's read-modify-write transaction is serialized
// against every other call.
type SQLiteStore struct {
	DBPath string
	name   string
	db     *sql.DB
}

// OpenSQLiteStore opens or creates the database at path. The record is kept
// under an option named after namespace.
func OpenSQLiteStore(path, namespace string) (*SQLiteStore, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve sqlite path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure sqlite dir: %w", err)
	}
	db, err := sql.Open("sqlite", absPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{DBPath: absPath, name: optionName(namespace), db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func optionName(namespace string) string {
	if namespace == "" {
		return "recommended_actions_visibility"
	}
	return namespace + "_recommended_actions_visibility"
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS options (
	name TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create options schema: %w", err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) Get(ctx context.Context) (Record, bool, error) {
	return s.read(ctx, s.db)
}

func (s *SQLiteStore) read(ctx context.Context, q queryer) (Record, bool, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT value FROM options WHERE name = ?`, s.name).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read option %s: %w", s.name, err)
	}
	rec := Record{}
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, false, fmt.Errorf("decode option %s: %w", s.name, err)
	}
	return rec, true, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) Set(ctx context.Context, rec Record) error {
	return s.write(ctx, s.db, rec)
}

func (s *SQLiteStore) write(ctx context.Context, e execer, rec Record) error {
	if rec == nil {
		rec = Record{}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	_, err = e.ExecContext(ctx, `
INSERT INTO options (name, value, updated_at)
VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.name, string(data))
	if err != nil {
		return fmt.Errorf("write option %s: %w", s.name, err)
	}
	return nil
}

// SetState updates one entry inside a transaction, creating the record when
// absent.
func (s *SQLiteStore) SetState(ctx context.Context, id string, state VisibilityState) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	rec, _, err := s.read(ctx, tx)
	if err != nil {
		return err
	}
	if rec == nil {
		rec = Record{}
	}
	rec[id] = state
	if err = s.write(ctx, tx, rec); err != nil {
		return err
	}
	return tx.Commit()
}

// SeedIfAbsent writes rec only when no record is stored under this
// namespace yet.
func (s *SQLiteStore) SeedIfAbsent(ctx context.Context, rec Record) (bool, error) {
	if rec == nil {
		rec = Record{}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("encode record: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO options (name, value, updated_at)
VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
ON CONFLICT(name) DO NOTHING`, s.name, string(data))
	if err != nil {
		return false, fmt.Errorf("seed option %s: %w", s.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
