package question

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/quizdex/internal/db"
	"github.com/kailas-cloud/quizdex/internal/domain"
	domq "github.com/kailas-cloud/quizdex/internal/domain/question"
)

// store is the consumer interface for questions (ISP).
type store interface {
	BeginTx(ctx context.Context) (db.Tx, error)
	InsertQuestions(ctx context.Context, tx db.Tx, rows []db.QuestionRow) error
	InsertLabels(ctx context.Context, tx db.Tx, questionID string, labels []string) error
	Candidates(ctx context.Context, f db.CandidateFilter) ([]db.QuestionRow, error)
	CountQuestions(ctx context.Context, ownerID string) (int, error)
}

// Repo implements usecase/ingest.QuestionRepository.
type Repo struct {
	store store
}

// New creates a question repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Candidates returns persisted questions in the query's (owner, tag, bucket)
// cell. Returns domain.ErrTextFilterUnsupported when the backend cannot
// honor the query's text filter; the caller retries without it.
func (r *Repo) Candidates(ctx context.Context, q domq.CandidateQuery) ([]domq.Question, error) {
	rows, err := r.store.Candidates(ctx, db.CandidateFilter{
		OwnerID:     q.OwnerID,
		TagID:       q.TagID,
		Bucket:      q.Bucket,
		MatchText:   q.Text,
		Fingerprint: q.Fingerprint,
	})
	if err != nil {
		if errors.Is(err, db.ErrFilterNotSupported) {
			return nil, domain.ErrTextFilterUnsupported
		}
		return nil, fmt.Errorf("candidates: %w", err)
	}

	out := make([]domq.Question, len(rows))
	for i, row := range rows {
		out[i] = rowToQuestion(row)
	}
	return out, nil
}

// CreateAll persists the staged questions and attaches their labels, inside
// one transaction when the backend supports them. Returns whether the write
// was atomic. The write phase runs to completion once entered: canceling the
// caller's context no longer aborts it.
func (r *Repo) CreateAll(ctx context.Context, qs []domq.Question) (bool, error) {
	if len(qs) == 0 {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	atomic := true
	tx, err := r.store.BeginTx(ctx)
	switch {
	case errors.Is(err, db.ErrTxNotSupported):
		tx, atomic = nil, false
	case err != nil:
		return false, fmt.Errorf("begin: %w", err)
	}

	wctx := context.WithoutCancel(ctx)

	rows := make([]db.QuestionRow, len(qs))
	for i := range qs {
		rows[i] = questionToRow(&qs[i])
	}

	if err := r.store.InsertQuestions(wctx, tx, rows); err != nil {
		rollback(tx)
		return false, fmt.Errorf("insert questions: %w", err)
	}
	for i := range qs {
		labels := qs[i].Labels()
		if len(labels) == 0 {
			continue
		}
		if err := r.store.InsertLabels(wctx, tx, qs[i].ID(), labels); err != nil {
			rollback(tx)
			return false, fmt.Errorf("insert labels for %s: %w", qs[i].ID(), err)
		}
	}

	if tx != nil {
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("commit: %w", err)
		}
	}
	return atomic, nil
}

// CountByOwner returns the number of persisted questions for an owner.
func (r *Repo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	n, err := r.store.CountQuestions(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}

func rollback(tx db.Tx) {
	if tx != nil {
		_ = tx.Rollback()
	}
}
