package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/quizdex/internal/db"
)

// InsertQuestions inserts question rows, inside tx when it is non-nil.
func (s *Store) InsertQuestions(ctx context.Context, tx db.Tx, rows []db.QuestionRow) error {
	exec, err := s.execer(tx)
	if err != nil {
		return &db.Error{Op: db.OpInsertQuestions, Err: err}
	}

	for _, row := range rows {
		distractors, err := json.Marshal(row.Distractors)
		if err != nil {
			return &db.Error{Op: db.OpInsertQuestions, Err: fmt.Errorf("marshal distractors: %w", err)}
		}
		_, err = exec.ExecContext(ctx,
			`INSERT INTO questions
			 (id, text, answer, distractors, fingerprint, bucket, tag_id, owner_id, visibility, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			row.ID, row.Text, row.Answer, string(distractors),
			int64(row.Fingerprint), row.Bucket,
			row.TagID, row.OwnerID, row.Visibility,
			row.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return db.ErrUniqueViolation
			}
			return &db.Error{Op: db.OpInsertQuestions, Err: err}
		}
	}
	return nil
}

// InsertLabels attaches free-form labels to a question, inside tx when it is
// non-nil.
func (s *Store) InsertLabels(ctx context.Context, tx db.Tx, questionID string, labels []string) error {
	exec, err := s.execer(tx)
	if err != nil {
		return &db.Error{Op: db.OpInsertLabels, Err: err}
	}

	for _, label := range labels {
		_, err := exec.ExecContext(ctx,
			`INSERT OR IGNORE INTO question_labels (question_id, label) VALUES (?, ?)`,
			questionID, label,
		)
		if err != nil {
			return &db.Error{Op: db.OpInsertLabels, Err: err}
		}
	}
	return nil
}

// Candidates returns the rows in one (owner, tag, bucket) cell. With a
// MatchText filter it narrows to rows matching the text case-insensitively
// or sharing the fingerprint.
func (s *Store) Candidates(ctx context.Context, f db.CandidateFilter) ([]db.QuestionRow, error) {
	query := `SELECT id, text, answer, distractors, fingerprint, bucket,
	          tag_id, owner_id, visibility, created_at
	          FROM questions WHERE owner_id = ? AND tag_id = ? AND bucket = ?`
	args := []any{f.OwnerID, f.TagID, f.Bucket}

	if f.MatchText != "" {
		query += ` AND (text = ? COLLATE NOCASE OR fingerprint = ?)`
		args = append(args, f.MatchText, int64(f.Fingerprint))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpCandidates, Err: err}
	}
	defer rows.Close()

	var out []db.QuestionRow
	for rows.Next() {
		var row db.QuestionRow
		var distractors, createdAt string
		var fingerprint int64
		if err := rows.Scan(
			&row.ID, &row.Text, &row.Answer, &distractors, &fingerprint, &row.Bucket,
			&row.TagID, &row.OwnerID, &row.Visibility, &createdAt,
		); err != nil {
			return nil, &db.Error{Op: db.OpCandidates, Err: err}
		}
		if err := json.Unmarshal([]byte(distractors), &row.Distractors); err != nil {
			return nil, &db.Error{Op: db.OpCandidates, Err: fmt.Errorf("unmarshal distractors: %w", err)}
		}
		row.Fingerprint = uint64(fingerprint)
		row.CreatedAt = parseTime(createdAt)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpCandidates, Err: err}
	}
	return out, nil
}

// CountQuestions returns the number of questions owned by ownerID.
func (s *Store) CountQuestions(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM questions WHERE owner_id = ?`, ownerID,
	).Scan(&n)
	if err != nil {
		return 0, &db.Error{Op: db.OpCountQuestions, Err: err}
	}
	return n, nil
}
