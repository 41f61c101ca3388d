package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	_ "modernc.org/sqlite"
)

// SQLite is a Store backed by a single-file SQLite database via
// modernc.org/sqlite (pure Go, no cgo). All entries live in one
// kv(k BLOB PRIMARY KEY, v BLOB) table; prefix listing is a range scan
// over the encoded keys.
type SQLite struct {
	db   *sql.DB
	opts *Options
}

const sqliteSchema = `CREATE TABLE IF NOT EXISTS kv (
	k BLOB PRIMARY KEY,
	v BLOB NOT NULL
) WITHOUT ROWID`

// NewSQLite opens (creating if needed) a SQLite-backed Store at path.
// Pass ":memory:" for an ephemeral database.
func NewSQLite(path string, opts *Options) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("kv: sqlite path is required")
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	if path == ":memory:" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("kv: open sqlite at %q: %w", path, err)
	}
	// A single connection sidesteps SQLITE_BUSY between writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("kv: init sqlite schema: %w", err)
	}
	return &SQLite{db: db, opts: opts}, nil
}

func (s *SQLite) Get(ctx context.Context, key Key) ([]byte, error) {
	k := s.opts.encode(key)
	var val []byte
	err := s.db.QueryRowContext(ctx, `SELECT v FROM kv WHERE k = ?`, k).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv: sqlite get: %w", err)
	}
	return val, nil
}

func (s *SQLite) Set(ctx context.Context, key Key, value []byte) error {
	k := s.opts.encode(key)
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO kv (k, v) VALUES (?, ?)`, k, value)
	if err != nil {
		return fmt.Errorf("kv: sqlite set: %w", err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, key Key) error {
	k := s.opts.encode(key)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, k); err != nil {
		return fmt.Errorf("kv: sqlite delete: %w", err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context, prefix Key) iter.Seq2[Entry, error] {
	p := s.opts.listPrefix(prefix)

	return func(yield func(Entry, error) bool) {
		var (
			rows *sql.Rows
			err  error
		)
		if len(p) == 0 {
			rows, err = s.db.QueryContext(ctx, `SELECT k, v FROM kv ORDER BY k`)
		} else if hi, ok := prefixEnd(p); ok {
			rows, err = s.db.QueryContext(ctx,
				`SELECT k, v FROM kv WHERE k >= ? AND k < ? ORDER BY k`, p, hi)
		} else {
			rows, err = s.db.QueryContext(ctx,
				`SELECT k, v FROM kv WHERE k >= ? ORDER BY k`, p)
		}
		if err != nil {
			yield(Entry{}, fmt.Errorf("kv: sqlite list: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var k, v []byte
			if err := rows.Scan(&k, &v); err != nil {
				if !yield(Entry{}, fmt.Errorf("kv: sqlite list scan: %w", err)) {
					return
				}
				continue
			}
			if !yield(Entry{Key: s.opts.decode(k), Value: v}, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Entry{}, fmt.Errorf("kv: sqlite list: %w", err))
		}
	}
}

func (s *SQLite) BatchSet(ctx context.Context, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("kv: sqlite batch set: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO kv (k, v) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("kv: sqlite batch set: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, s.opts.encode(e.Key), e.Value); err != nil {
			return fmt.Errorf("kv: sqlite batch set %v: %w", e.Key, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) BatchDelete(ctx context.Context, keys []Key) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("kv: sqlite batch delete: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM kv WHERE k = ?`)
	if err != nil {
		return fmt.Errorf("kv: sqlite batch delete: %w", err)
	}
	defer stmt.Close()

	for _, key := range keys {
		if _, err := stmt.ExecContext(ctx, s.opts.encode(key)); err != nil {
			return fmt.Errorf("kv: sqlite batch delete %v: %w", key, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// prefixEnd returns the smallest byte string greater than every string
// with the given prefix, for use as an exclusive range upper bound.
// Reports false when no such bound exists (all bytes are 0xFF).
func prefixEnd(p []byte) ([]byte, bool) {
	end := make([]byte, len(p))
	copy(end, p)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return end[:i+1], true
		}
	}
	return nil, false
}
