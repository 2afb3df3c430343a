// Package memory implements db.Store on process-local maps. It backs tests
// and throwaway environments: writes are immediate (no transactions), but
// text-filtered candidate reads are supported.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/kailas-cloud/quizdex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Store implements db.Store in memory. Safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	tags      map[string]db.TagRow // by id
	tagScopes map[db.TagKey]string // scope key -> id
	questions []db.QuestionRow     // insertion order
	labels    map[string][]string  // question id -> labels
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		tags:      make(map[string]db.TagRow),
		tagScopes: make(map[db.TagKey]string),
		labels:    make(map[string][]string),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// BeginTx reports that the backend has no transactions.
func (s *Store) BeginTx(context.Context) (db.Tx, error) {
	return nil, db.ErrTxNotSupported
}

// InsertTag inserts a tag, enforcing scope uniqueness.
func (s *Store) InsertTag(_ context.Context, row db.TagRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := db.TagKey{Name: row.Name, Visibility: row.Visibility, OwnerID: row.OwnerID}
	if _, taken := s.tagScopes[key]; taken {
		return db.ErrUniqueViolation
	}
	s.tags[row.ID] = row
	s.tagScopes[key] = row.ID
	return nil
}

// FindTag looks up a tag by scope key.
func (s *Store) FindTag(_ context.Context, key db.TagKey) (db.TagRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.tagScopes[key]
	if !ok {
		return db.TagRow{}, db.ErrNotFound
	}
	return s.tags[id], nil
}

// InsertQuestions appends question rows. The transaction handle must be nil.
func (s *Store) InsertQuestions(_ context.Context, tx db.Tx, rows []db.QuestionRow) error {
	if tx != nil {
		return &db.Error{Op: db.OpInsertQuestions, Err: db.ErrTxNotSupported}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = append(s.questions, rows...)
	return nil
}

// InsertLabels attaches labels to a question. The transaction handle must be
// nil.
func (s *Store) InsertLabels(_ context.Context, tx db.Tx, questionID string, labels []string) error {
	if tx != nil {
		return &db.Error{Op: db.OpInsertLabels, Err: db.ErrTxNotSupported}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels[questionID] = append(s.labels[questionID], labels...)
	return nil
}

// Candidates returns rows in one (owner, tag, bucket) cell, in insertion
// order. Text filtering is supported via case-insensitive comparison.
func (s *Store) Candidates(_ context.Context, f db.CandidateFilter) ([]db.QuestionRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []db.QuestionRow
	for _, row := range s.questions {
		if row.OwnerID != f.OwnerID || row.TagID != f.TagID || row.Bucket != f.Bucket {
			continue
		}
		if f.MatchText != "" &&
			!strings.EqualFold(row.Text, f.MatchText) && row.Fingerprint != f.Fingerprint {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// CountQuestions returns the number of questions owned by ownerID.
func (s *Store) CountQuestions(_ context.Context, ownerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, row := range s.questions {
		if row.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

// Labels returns the labels attached to a question (test helper).
func (s *Store) Labels(questionID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.labels[questionID]...)
}
