package recommended

import (
	"context"
	"database/sql"
	"fmt"
)

// PGStore keeps one visibility record per namespace (the theme slug). A row
// in recommended_action_records marks the record as existing; entries live
// one per row so a dismiss is a single-key upsert.
type PGStore struct {
	DB        *sql.DB
	Namespace string
}

// NewPGStore constructs a Postgres-backed visibility store.
func NewPGStore(db *sql.DB, namespace string) *PGStore {
	return &PGStore{DB: db, Namespace: namespace}
}

func (s *PGStore) Get(ctx context.Context) (Record, bool, error) {
	const query = `
SELECT v.item_id, v.state
FROM recommended_action_records r
LEFT JOIN recommended_action_visibility v ON v.namespace = r.namespace
WHERE r.namespace = $1`
	rows, err := s.DB.QueryContext(ctx, query, s.Namespace)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var (
		rec   Record
		found bool
	)
	for rows.Next() {
		var itemID, state sql.NullString
		if err := rows.Scan(&itemID, &state); err != nil {
			return nil, false, err
		}
		if !found {
			rec = Record{}
			found = true
		}
		if !itemID.Valid {
			continue
		}
		vs := VisibilityState(state.String)
		if !vs.valid() {
			vs = Visible
		}
		rec[itemID.String] = vs
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return rec, found, nil
}

func (s *PGStore) Set(ctx context.Context, rec Record) (err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = s.ensureRecord(ctx, tx); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
DELETE FROM recommended_action_visibility WHERE namespace = $1`, s.Namespace); err != nil {
		return fmt.Errorf("clear visibility: %w", err)
	}
	for id, state := range rec {
		if _, err = tx.ExecContext(ctx, `
INSERT INTO recommended_action_visibility (namespace, item_id, state, updated_at)
VALUES ($1, $2, $3, now())`, s.Namespace, id, string(state)); err != nil {
			return fmt.Errorf("insert visibility %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (s *PGStore) SetState(ctx context.Context, id string, state VisibilityState) (err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = s.ensureRecord(ctx, tx); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
INSERT INTO recommended_action_visibility (namespace, item_id, state, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (namespace, item_id) DO UPDATE SET
  state = EXCLUDED.state,
  updated_at = now()`, s.Namespace, id, string(state)); err != nil {
		return fmt.Errorf("upsert visibility %s: %w", id, err)
	}
	return tx.Commit()
}

// SeedIfAbsent inserts the record marker and entries only if the marker did
// not exist. Entries already present (a dismiss that raced the seed) win.
func (s *PGStore) SeedIfAbsent(ctx context.Context, rec Record) (created bool, err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil || !created {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
INSERT INTO recommended_action_records (namespace, created_at)
VALUES ($1, now())
ON CONFLICT (namespace) DO NOTHING`, s.Namespace)
	if err != nil {
		return false, fmt.Errorf("insert record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}
	for id, state := range rec {
		if _, err = tx.ExecContext(ctx, `
INSERT INTO recommended_action_visibility (namespace, item_id, state, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (namespace, item_id) DO NOTHING`, s.Namespace, id, string(state)); err != nil {
			return false, fmt.Errorf("seed visibility %s: %w", id, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *PGStore) ensureRecord(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `
INSERT INTO recommended_action_records (namespace, created_at)
VALUES ($1, now())
ON CONFLICT (namespace) DO NOTHING`, s.Namespace); err != nil {
		return fmt.Errorf("ensure record: %w", err)
	}
	return nil
}
