package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/quizdex/internal/db"
)

// InsertQuestions writes question hashes and their bucket/owner index
// entries in a single pipelined round-trip. The transaction handle must be
// nil: this backend has no transactions.
func (s *Store) InsertQuestions(ctx context.Context, tx db.Tx, rows []db.QuestionRow) error {
	if tx != nil {
		return &db.Error{Op: db.OpInsertQuestions, Err: db.ErrTxNotSupported}
	}
	if len(rows) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, 0, 3*len(rows))
	for _, row := range rows {
		distractors, err := json.Marshal(row.Distractors)
		if err != nil {
			return &db.Error{Op: db.OpInsertQuestions, Err: fmt.Errorf("marshal distractors: %w", err)}
		}
		cmds = append(cmds,
			s.b().Hset().Key(s.questionKey(row.ID)).FieldValue().
				FieldValue("text", row.Text).
				FieldValue("answer", row.Answer).
				FieldValue("distractors", string(distractors)).
				FieldValue("fingerprint", strconv.FormatUint(row.Fingerprint, 10)).
				FieldValue("bucket", strconv.Itoa(row.Bucket)).
				FieldValue("tag_id", row.TagID).
				FieldValue("owner_id", row.OwnerID).
				FieldValue("visibility", row.Visibility).
				FieldValue("created_at", row.CreatedAt.UTC().Format(time.RFC3339Nano)).
				Build(),
			s.b().Sadd().Key(s.bucketKey(row.OwnerID, row.TagID, row.Bucket)).Member(row.ID).Build(),
			s.b().Sadd().Key(s.ownerKey(row.OwnerID)).Member(row.ID).Build(),
		)
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpInsertQuestions, Err: fmt.Errorf("command %d: %w", i, err)}
		}
	}
	return nil
}

// InsertLabels attaches labels to a question. The transaction handle must be
// nil.
func (s *Store) InsertLabels(ctx context.Context, tx db.Tx, questionID string, labels []string) error {
	if tx != nil {
		return &db.Error{Op: db.OpInsertLabels, Err: db.ErrTxNotSupported}
	}
	if len(labels) == 0 {
		return nil
	}

	cmd := s.b().Sadd().Key(s.questionKey(questionID) + ":labels").Member(labels...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpInsertLabels, Err: err}
	}
	return nil
}

// Candidates loads the rows in one (owner, tag, bucket) cell. A MatchText
// filter is refused with db.ErrFilterNotSupported: Redis cannot compare
// hash fields case-insensitively server-side, so callers compare in memory.
func (s *Store) Candidates(ctx context.Context, f db.CandidateFilter) ([]db.QuestionRow, error) {
	if f.MatchText != "" {
		return nil, db.ErrFilterNotSupported
	}

	ids, err := s.do(ctx, s.b().Smembers().Key(s.bucketKey(f.OwnerID, f.TagID, f.Bucket)).Build()).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpCandidates, Err: err}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(ids))
	for i, id := range ids {
		cmds[i] = s.b().Hgetall().Key(s.questionKey(id)).Build()
	}

	out := make([]db.QuestionRow, 0, len(ids))
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		fields, err := res.AsStrMap()
		if err != nil {
			return nil, &db.Error{Op: db.OpCandidates, Err: fmt.Errorf("key %s: %w", ids[i], err)}
		}
		if len(fields) == 0 {
			continue
		}
		row, err := rowFromFields(ids[i], fields)
		if err != nil {
			return nil, &db.Error{Op: db.OpCandidates, Err: err}
		}
		out = append(out, row)
	}
	return out, nil
}

// CountQuestions returns the cardinality of the per-owner index set.
func (s *Store) CountQuestions(ctx context.Context, ownerID string) (int, error) {
	n, err := s.do(ctx, s.b().Scard().Key(s.ownerKey(ownerID)).Build()).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpCountQuestions, Err: err}
	}
	return int(n), nil
}

func rowFromFields(id string, fields map[string]string) (db.QuestionRow, error) {
	fp, err := strconv.ParseUint(fields["fingerprint"], 10, 64)
	if err != nil {
		return db.QuestionRow{}, fmt.Errorf("parse fingerprint %q: %w", fields["fingerprint"], err)
	}
	bucket, err := strconv.Atoi(fields["bucket"])
	if err != nil {
		return db.QuestionRow{}, fmt.Errorf("parse bucket %q: %w", fields["bucket"], err)
	}
	var distractors []string
	if raw := fields["distractors"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &distractors); err != nil {
			return db.QuestionRow{}, fmt.Errorf("unmarshal distractors: %w", err)
		}
	}

	return db.QuestionRow{
		ID:          id,
		Text:        fields["text"],
		Answer:      fields["answer"],
		Distractors: distractors,
		Fingerprint: fp,
		Bucket:      bucket,
		TagID:       fields["tag_id"],
		OwnerID:     fields["owner_id"],
		Visibility:  fields["visibility"],
		CreatedAt:   parseTime(fields["created_at"]),
	}, nil
}

func (s *Store) questionKey(id string) string {
	return s.prefix + "q:" + id
}

func (s *Store) bucketKey(ownerID, tagID string, bucket int) string {
	return s.prefix + "q:ix:" + ownerID + ":" + tagID + ":" + strconv.Itoa(bucket)
}

func (s *Store) ownerKey(ownerID string) string {
	return s.prefix + "q:owner:" + ownerID
}
