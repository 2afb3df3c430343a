package question

import (
	"github.com/kailas-cloud/quizdex/internal/db"
	"github.com/kailas-cloud/quizdex/internal/domain"
	domq "github.com/kailas-cloud/quizdex/internal/domain/question"
)

func rowToQuestion(row db.QuestionRow) domq.Question {
	return domq.Reconstruct(
		row.ID, row.Text, row.Answer, row.Distractors, nil,
		row.Fingerprint, row.Bucket,
		row.TagID, row.OwnerID, domain.Visibility(row.Visibility), row.CreatedAt,
	)
}

func questionToRow(q *domq.Question) db.QuestionRow {
	return db.QuestionRow{
		ID:          q.ID(),
		Text:        q.Text(),
		Answer:      q.Answer(),
		Distractors: q.Distractors(),
		Fingerprint: q.Fingerprint(),
		Bucket:      q.Bucket(),
		TagID:       q.TagID(),
		OwnerID:     q.OwnerID(),
		Visibility:  string(q.Visibility()),
		CreatedAt:   q.CreatedAt(),
	}
}
