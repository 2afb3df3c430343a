package db

import "errors"

// Sentinel errors for storage operations.
var (
	ErrNotFound           = errors.New("db: row not found")
	ErrUniqueViolation    = errors.New("db: unique constraint violated")
	ErrFilterNotSupported = errors.New("db: text filter not supported")
	ErrTxNotSupported     = errors.New("db: transactions not supported")
)

// Op constants name storage operations for error context.
const (
	OpPing            = "ping"
	OpBeginTx         = "begin_tx"
	OpInsertTag       = "insert_tag"
	OpFindTag         = "find_tag"
	OpInsertQuestions = "insert_questions"
	OpInsertLabels    = "insert_labels"
	OpCandidates      = "candidates"
	OpCountQuestions  = "count_questions"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
