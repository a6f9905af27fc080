package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SQL is a Store over a database/sql handle. SQLite and MySQL share it and
// differ only in schema, row locking and duplicate-key detection.
type SQL struct {
	db          *sql.DB
	forUpdate   string
	isDuplicate func(error) bool
	log         *zap.Logger
}

func newSQL(ctx context.Context, db *sql.DB, schema []string, forUpdate string, isDuplicate func(error) bool, log *zap.Logger) (*SQL, error) {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}
	return &SQL{db: db, forUpdate: forUpdate, isDuplicate: isDuplicate, log: log}, nil
}

// Close closes the database.
func (s *SQL) Close() error {
	return s.db.Close()
}

// Save upserts one entry inside a transaction.
func (s *SQL) Save(ctx context.Context, kind Kind, key string, payload []byte, ifVersion int64) (int64, error) {
	if err := checkSave(kind, key, payload); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var current int64
	err = tx.QueryRowContext(ctx,
		"SELECT version FROM entries WHERE kind = ? AND entry_key = ?"+s.forUpdate,
		string(kind), key,
	).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("reading version: %w", err)
	}
	if err := checkVersion(kind, key, current, ifVersion); err != nil {
		return 0, err
	}

	next := current + 1
	ts := now().Format(time.RFC3339)
	if current == 0 {
		_, err = tx.ExecContext(ctx, `INSERT INTO entries
			(kind, entry_key, version, updated_at, payload)
			VALUES (?, ?, ?, ?, ?)`,
			string(kind), key, next, ts, string(payload),
		)
		if err != nil {
			if s.isDuplicate(err) {
				return 0, fmt.Errorf("%w: %s/%s was created concurrently", ErrConflict, kind, key)
			}
			return 0, err
		}
	} else {
		res, err := tx.ExecContext(ctx, `UPDATE entries
			SET version = ?, updated_at = ?, payload = ?
			WHERE kind = ? AND entry_key = ? AND version = ?`,
			next, ts, string(payload), string(kind), key, current,
		)
		if err != nil {
			return 0, err
		}
		if n, err := res.RowsAffected(); err == nil && n != 1 {
			return 0, fmt.Errorf("%w: %s/%s changed during save", ErrConflict, kind, key)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	s.log.Debug("entry saved", zap.String("kind", string(kind)), zap.String("key", key), zap.Int64("version", next))
	return next, nil
}

// Load reads one entry.
func (s *SQL) Load(ctx context.Context, kind Kind, key string) (Entry, error) {
	if err := checkArgs(kind, key); err != nil {
		return Entry{}, err
	}
	row := s.db.QueryRowContext(ctx,
		"SELECT entry_key, version, updated_at, payload FROM entries WHERE kind = ? AND entry_key = ?",
		string(kind), key,
	)
	e, err := scanEntry(kind, row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, notFound(kind, key)
	}
	return e, err
}

// List reads every entry of a kind ordered by key.
func (s *SQL) List(ctx context.Context, kind Kind) ([]Entry, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT entry_key, version, updated_at, payload FROM entries WHERE kind = ? ORDER BY entry_key",
		string(kind),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(kind, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes one entry.
func (s *SQL) Delete(ctx context.Context, kind Kind, key string) error {
	if err := checkArgs(kind, key); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM entries WHERE kind = ? AND entry_key = ?", string(kind), key)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(kind, key)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(kind Kind, r rowScanner) (Entry, error) {
	e := Entry{Kind: kind}
	var updated, payload string
	if err := r.Scan(&e.Key, &e.Version, &updated, &payload); err != nil {
		return Entry{}, err
	}
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	e.Payload = []byte(payload)
	return e, nil
}
