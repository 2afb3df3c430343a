package ingest

import (
	"context"

	"github.com/kailas-cloud/quizdex/internal/domain"
	domq "github.com/kailas-cloud/quizdex/internal/domain/question"
	domtag "github.com/kailas-cloud/quizdex/internal/domain/tag"
)

// Fingerprinter derives similarity fingerprints and retrieval buckets.
type Fingerprinter interface {
	Fingerprint(texts ...string) uint64
	Bucket(fp uint64) int
}

// TagResolver resolves a category name to a tag, creating it on a miss.
type TagResolver interface {
	ResolveOrCreate(ctx context.Context, name string, visibility domain.Visibility, ownerID string) (domtag.Tag, error)
}

// QuestionRepository reads duplicate candidates and persists staged
// questions.
type QuestionRepository interface {
	// Candidates returns persisted questions in the query's
	// (owner, tag, bucket) cell; domain.ErrTextFilterUnsupported when the
	// backend cannot honor the text filter.
	Candidates(ctx context.Context, q domq.CandidateQuery) ([]domq.Question, error)
	// CreateAll persists the staged questions, atomically when the backend
	// supports transactions. Returns whether the write was atomic.
	CreateAll(ctx context.Context, qs []domq.Question) (atomic bool, err error)
}

// AuditSink accepts fire-and-forget audit events.
type AuditSink interface {
	Record(ctx context.Context, action, actor, subject string)
}
