// Package sqlite implements db.Store on SQLite via the pure-Go modernc
// driver. It is the transactional backend: unique constraints guard tag
// scopes and COLLATE NOCASE serves case-insensitive candidate filtering.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqlite3 "modernc.org/sqlite"

	"github.com/kailas-cloud/quizdex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// SQLite extended result codes for constraint violations.
const (
	codeConstraintPrimaryKey = 1555
	codeConstraintUnique     = 2067
)

// Store implements db.Store over a SQLite database file.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database with WAL mode and foreign keys
// enabled, and initializes the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	sdb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := sdb.ExecContext(ctx, pragma); err != nil {
			sdb.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := initSchema(ctx, sdb); err != nil {
		sdb.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: sdb}, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginTx starts a write transaction.
func (s *Store) BeginTx(ctx context.Context) (db.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &db.Error{Op: db.OpBeginTx, Err: err}
	}
	return &Tx{tx: tx}, nil
}

// Tx wraps *sql.Tx as a db.Tx.
type Tx struct {
	tx *sql.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit() error { return t.tx.Commit() }

// Rollback aborts the transaction.
func (t *Tx) Rollback() error { return t.tx.Rollback() }

// execer resolves the statement target: the given transaction when present,
// the bare connection otherwise.
func (s *Store) execer(tx db.Tx) (executor, error) {
	if tx == nil {
		return s.db, nil
	}
	st, ok := tx.(*Tx)
	if !ok {
		return nil, fmt.Errorf("transaction does not belong to this store")
	}
	return st.tx, nil
}

type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// rejection.
func isUniqueViolation(err error) bool {
	var se *sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == codeConstraintUnique || se.Code() == codeConstraintPrimaryKey
}

func initSchema(ctx context.Context, sdb *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS tags (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	visibility TEXT NOT NULL,
	owner_id TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	UNIQUE(name, visibility, owner_id)
);

CREATE TABLE IF NOT EXISTS questions (
	id TEXT PRIMARY KEY,
	text TEXT NOT NULL,
	answer TEXT NOT NULL,
	distractors TEXT NOT NULL DEFAULT '[]',
	fingerprint INTEGER NOT NULL,
	bucket INTEGER NOT NULL,
	tag_id TEXT NOT NULL,
	owner_id TEXT NOT NULL,
	visibility TEXT NOT NULL,
	created_at TEXT NOT NULL,
	FOREIGN KEY(tag_id) REFERENCES tags(id)
);

CREATE INDEX IF NOT EXISTS idx_questions_candidates
	ON questions(owner_id, tag_id, bucket);

CREATE TABLE IF NOT EXISTS question_labels (
	question_id TEXT NOT NULL,
	label TEXT NOT NULL,
	UNIQUE(question_id, label),
	FOREIGN KEY(question_id) REFERENCES questions(id) ON DELETE CASCADE
);
`
	if _, err := sdb.ExecContext(ctx, schema); err != nil {
		return err
	}
	return nil
}
