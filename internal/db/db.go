// Package db defines the storage contract shared by all backends. Backends
// differ in capability: some provide transactions, some can pre-filter
// candidate rows by text. Capability gaps are reported through the sentinel
// errors in errors.go so callers can degrade their strategy instead of
// failing.
package db

import (
	"context"
	"time"
)

// TagRow is the persisted shape of a tag.
type TagRow struct {
	ID         string
	Name       string
	Visibility string
	OwnerID    string // empty for global tags
	CreatedAt  time.Time
}

// TagKey identifies a tag within its uniqueness scope.
type TagKey struct {
	Name       string
	Visibility string
	OwnerID    string
}

// QuestionRow is the persisted shape of a question. Fingerprint and bucket
// are stored with the row, never recomputed at query time.
type QuestionRow struct {
	ID          string
	Text        string
	Answer      string
	Distractors []string
	Fingerprint uint64
	Bucket      int
	TagID       string
	OwnerID     string
	Visibility  string
	CreatedAt   time.Time
}

// CandidateFilter bounds a duplicate-check read to one (owner, tag, bucket)
// cell. When MatchText is non-empty the backend narrows further to rows whose
// text equals it case-insensitively or whose fingerprint equals Fingerprint;
// backends without that capability return ErrFilterNotSupported.
type CandidateFilter struct {
	OwnerID     string
	TagID       string
	Bucket      int
	MatchText   string
	Fingerprint uint64
}

// Store is the storage facade combining all sub-interfaces.
type Store interface {
	Pinger
	TagStore
	QuestionStore
	TxBeginner
	Close() error
}

// Pinger checks storage connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TagStore provides tag persistence. InsertTag returns ErrUniqueViolation
// when another tag already occupies the (name, visibility, owner) scope.
type TagStore interface {
	InsertTag(ctx context.Context, row TagRow) error
	FindTag(ctx context.Context, key TagKey) (TagRow, error)
}

// QuestionStore provides question persistence. Writes accept an optional
// transaction handle obtained from TxBeginner; a nil handle writes directly.
type QuestionStore interface {
	InsertQuestions(ctx context.Context, tx Tx, rows []QuestionRow) error
	InsertLabels(ctx context.Context, tx Tx, questionID string, labels []string) error
	Candidates(ctx context.Context, f CandidateFilter) ([]QuestionRow, error)
	CountQuestions(ctx context.Context, ownerID string) (int, error)
}

// TxBeginner starts a transaction. Backends without transaction support
// return ErrTxNotSupported.
type TxBeginner interface {
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx is an open transaction handle.
type Tx interface {
	Commit() error
	Rollback() error
}
