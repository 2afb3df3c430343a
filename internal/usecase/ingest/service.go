package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/quizdex/internal/domain"
	dsting "github.com/kailas-cloud/quizdex/internal/domain/ingest"
	domq "github.com/kailas-cloud/quizdex/internal/domain/question"
	"github.com/kailas-cloud/quizdex/internal/logger"
	"github.com/kailas-cloud/quizdex/internal/metrics"
)

// Default batch caps by caller privilege tier.
const (
	DefaultMaxBatchSize           = 50
	DefaultMaxBatchSizePrivileged = 500
)

// auditActionCreated is emitted once per persisted question.
const auditActionCreated = "question.created"

// Service is the bulk ingestion pipeline. One call classifies each submitted
// record as created, duplicate, or failed, then persists all accepted
// records in a single commit phase. Records are processed strictly in input
// order: later records' duplicate checks must see earlier records of the
// same call. The service itself holds no per-call state and is safe for
// concurrent use.
type Service struct {
	fp                 Fingerprinter
	tags               TagResolver
	questions          QuestionRepository
	audit              AuditSink
	maxBatch           int
	maxBatchPrivileged int
}

// New creates an ingestion service.
func New(fp Fingerprinter, tags TagResolver, questions QuestionRepository, audit AuditSink) *Service {
	return &Service{
		fp:                 fp,
		tags:               tags,
		questions:          questions,
		audit:              audit,
		maxBatch:           DefaultMaxBatchSize,
		maxBatchPrivileged: DefaultMaxBatchSizePrivileged,
	}
}

// WithBatchCaps configures the per-tier batch size limits.
func (s *Service) WithBatchCaps(base, privileged int) *Service {
	if base > 0 {
		s.maxBatch = base
	}
	if privileged > 0 {
		s.maxBatchPrivileged = privileged
	}
	return s
}

// Ingest processes a batch of candidate records for one owner. A per-record
// failure never aborts the batch; the caller receives either a complete
// Outcome or a single call-level error (malformed request shape, canceled
// context, or a commit-phase failure). Non-privileged callers are force-
// downgraded to private visibility regardless of what they requested.
func (s *Service) Ingest(
	ctx context.Context, items []dsting.Item,
	visibility domain.Visibility, ownerID string, privileged bool,
) (dsting.Outcome, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	limit := s.maxBatch
	if privileged {
		limit = s.maxBatchPrivileged
	}
	if len(items) > limit {
		return dsting.Outcome{}, fmt.Errorf("batch of %d exceeds limit %d: %w", len(items), limit, domain.ErrValidation)
	}
	if ownerID == "" {
		return dsting.Outcome{}, fmt.Errorf("owner is required: %w", domain.ErrValidation)
	}
	if !privileged {
		visibility = domain.VisibilityPrivate
	}
	if !visibility.Valid() {
		return dsting.Outcome{}, fmt.Errorf("unknown visibility %q: %w", visibility, domain.ErrValidation)
	}

	results := make([]dsting.Result, len(items))
	staged := make([]domq.Question, 0, len(items))
	seen := make(batchIndex)

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return dsting.Outcome{}, fmt.Errorf("ingest canceled: %w", err)
		}
		res, q := s.processItem(ctx, i, item, visibility, ownerID, seen)
		results[i] = res
		if q != nil {
			staged = append(staged, *q)
			seen.add(q.TagID(), q.Text())
		}
	}

	if len(staged) > 0 {
		if err := ctx.Err(); err != nil {
			return dsting.Outcome{}, fmt.Errorf("ingest canceled: %w", err)
		}
		atomic, err := s.questions.CreateAll(ctx, staged)
		if err != nil {
			metrics.IngestBatchesTotal.WithLabelValues("error").Inc()
			return dsting.Outcome{}, fmt.Errorf("persist accepted records: %w: %w", domain.ErrInternal, err)
		}
		if !atomic {
			log.Warn("store lacks transactions, batch was not written atomically",
				zap.Int("staged", len(staged)))
		}
		for i := range staged {
			s.audit.Record(ctx, auditActionCreated, ownerID, staged[i].ID())
		}
	}

	outcome := dsting.BuildOutcome(results)
	s.observe(outcome, time.Since(start))
	log.Info("batch ingested",
		zap.Int("total", outcome.Total()),
		zap.Int("created", outcome.Created()),
		zap.Int("duplicates", outcome.Duplicates()),
		zap.Int("failed", outcome.Failed()),
	)
	return outcome, nil
}

// processItem runs one record through its state machine: validate, resolve
// tag, fingerprint, duplicate-check. Returns the record's result and, for
// accepted records, the staged question.
func (s *Service) processItem(
	ctx context.Context, idx int, item dsting.Item,
	visibility domain.Visibility, ownerID string, seen batchIndex,
) (dsting.Result, *domq.Question) {
	q, err := domq.New(item.Text, item.Answer, item.Distractors, item.Labels)
	if err != nil {
		return dsting.NewFailed(idx, item.Text, err), nil
	}

	// Question text alone feeds the ingest-time fingerprint, biasing
	// detection toward rephrased questions rather than answer wording.
	fp := s.fp.Fingerprint(item.Text)
	bucket := s.fp.Bucket(fp)

	t, err := s.tags.ResolveOrCreate(ctx, item.Category, visibility, ownerID)
	if err != nil {
		return dsting.NewFailed(idx, item.Text, fmt.Errorf("resolve category: %w", err)), nil
	}

	if seen.has(t.ID(), item.Text) {
		return dsting.NewDuplicate(idx, item.Text), nil
	}

	dup, err := s.hasPersistedDuplicate(ctx, ownerID, t.ID(), bucket, item.Text, fp)
	if err != nil {
		return dsting.NewFailed(idx, item.Text, err), nil
	}
	if dup {
		return dsting.NewDuplicate(idx, item.Text), nil
	}

	q.SetFingerprint(fp, bucket)
	q.AttachTag(t.ID())
	q.Assign(ownerID, visibility)
	return dsting.NewCreated(idx, item.Text), &q
}

// hasPersistedDuplicate checks the store's (owner, tag, bucket) cell for an
// exact case-insensitive text match or fingerprint equality. When the
// backend cannot pre-filter by text, it degrades to loading the cell
// unfiltered and comparing in memory; only that specific capability gap
// triggers the fallback.
func (s *Service) hasPersistedDuplicate(
	ctx context.Context, ownerID, tagID string, bucket int, text string, fp uint64,
) (bool, error) {
	query := domq.CandidateQuery{
		OwnerID:     ownerID,
		TagID:       tagID,
		Bucket:      bucket,
		Text:        text,
		Fingerprint: fp,
	}

	candidates, err := s.questions.Candidates(ctx, query)
	if errors.Is(err, domain.ErrTextFilterUnsupported) {
		metrics.CandidateFallbacksTotal.Inc()
		query.Text = ""
		candidates, err = s.questions.Candidates(ctx, query)
	}
	if err != nil {
		return false, fmt.Errorf("candidate lookup: %w", err)
	}

	for i := range candidates {
		if candidates[i].Fingerprint() == fp || strings.EqualFold(candidates[i].Text(), text) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) observe(o dsting.Outcome, elapsed time.Duration) {
	metrics.IngestBatchesTotal.WithLabelValues("ok").Inc()
	metrics.IngestDuration.Observe(elapsed.Seconds())
	metrics.IngestRecordsTotal.WithLabelValues(string(dsting.StatusCreated)).Add(float64(o.Created()))
	metrics.IngestRecordsTotal.WithLabelValues(string(dsting.StatusDuplicate)).Add(float64(o.Duplicates()))
	metrics.IngestRecordsTotal.WithLabelValues(string(dsting.StatusFailed)).Add(float64(o.Failed()))
}
