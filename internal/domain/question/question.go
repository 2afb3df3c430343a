package question

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/quizdex/internal/domain"
)

// Size caps for a submitted question.
const (
	MaxTextSize    = 8192
	MaxAnswerSize  = 2048
	MaxDistractors = 16
	MaxLabels      = 10
	MaxLabelLength = 60
)

// Question is a quiz item. The fingerprint/bucket pair is computed from the
// question text at ingest time and persisted alongside the row; it must be
// recomputed whenever the fingerprinted text changes.
type Question struct {
	id          string
	text        string
	answer      string
	distractors []string
	labels      []string
	fingerprint uint64
	bucket      int
	tagID       string
	ownerID     string
	visibility  domain.Visibility
	createdAt   time.Time
}

// New validates and creates a Question. Text is kept as submitted; the
// fingerprint engine owns normalization.
func New(text, answer string, distractors, labels []string) (Question, error) {
	if strings.TrimSpace(text) == "" {
		return Question{}, fmt.Errorf("question text is empty: %w", domain.ErrValidation)
	}
	if len(text) > MaxTextSize {
		return Question{}, fmt.Errorf("question text exceeds %d bytes: %w", MaxTextSize, domain.ErrValidation)
	}
	if strings.TrimSpace(answer) == "" {
		return Question{}, fmt.Errorf("answer is empty: %w", domain.ErrValidation)
	}
	if len(answer) > MaxAnswerSize {
		return Question{}, fmt.Errorf("answer exceeds %d bytes: %w", MaxAnswerSize, domain.ErrValidation)
	}
	if len(distractors) > MaxDistractors {
		return Question{}, fmt.Errorf("more than %d distractors: %w", MaxDistractors, domain.ErrValidation)
	}
	cleaned := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" {
			continue
		}
		if len(l) > MaxLabelLength {
			return Question{}, fmt.Errorf("label exceeds %d bytes: %w", MaxLabelLength, domain.ErrValidation)
		}
		cleaned = append(cleaned, l)
	}
	if len(cleaned) > MaxLabels {
		return Question{}, fmt.Errorf("more than %d labels: %w", MaxLabels, domain.ErrValidation)
	}

	return Question{
		id:          uuid.NewString(),
		text:        text,
		answer:      answer,
		distractors: append([]string(nil), distractors...),
		labels:      cleaned,
		createdAt:   time.Now().UTC(),
	}, nil
}

// Reconstruct creates a Question without validation (storage hydration).
func Reconstruct(
	id, text, answer string, distractors, labels []string,
	fingerprint uint64, bucket int,
	tagID, ownerID string, visibility domain.Visibility, createdAt time.Time,
) Question {
	return Question{
		id: id, text: text, answer: answer,
		distractors: distractors, labels: labels,
		fingerprint: fingerprint, bucket: bucket,
		tagID: tagID, ownerID: ownerID, visibility: visibility, createdAt: createdAt,
	}
}

// ID returns the question identifier.
func (q *Question) ID() string { return q.id }

// Text returns the question text as submitted.
func (q *Question) Text() string { return q.text }

// Answer returns the canonical answer.
func (q *Question) Answer() string { return q.answer }

// Distractors returns the wrong-answer options.
func (q *Question) Distractors() []string { return q.distractors }

// Labels returns the free-form labels.
func (q *Question) Labels() []string { return q.labels }

// Fingerprint returns the similarity fingerprint.
func (q *Question) Fingerprint() uint64 { return q.fingerprint }

// Bucket returns the candidate-retrieval bucket.
func (q *Question) Bucket() int { return q.bucket }

// TagID returns the attached category tag.
func (q *Question) TagID() string { return q.tagID }

// OwnerID returns the owning user.
func (q *Question) OwnerID() string { return q.ownerID }

// Visibility returns the question scope.
func (q *Question) Visibility() domain.Visibility { return q.visibility }

// CreatedAt returns the creation time.
func (q *Question) CreatedAt() time.Time { return q.createdAt }

// SetFingerprint stores the computed fingerprint/bucket pair.
func (q *Question) SetFingerprint(fp uint64, bucket int) {
	q.fingerprint = fp
	q.bucket = bucket
}

// AttachTag binds the question to a resolved category tag.
func (q *Question) AttachTag(tagID string) { q.tagID = tagID }

// Assign sets ownership and visibility.
func (q *Question) Assign(ownerID string, visibility domain.Visibility) {
	q.ownerID = ownerID
	q.visibility = visibility
}

// CandidateQuery narrows duplicate-check retrieval to one (owner, tag, bucket)
// cell. A non-empty Text asks the backend to pre-filter to rows matching the
// text case-insensitively or sharing Fingerprint; backends that cannot do so
// report it and the caller compares in memory instead.
type CandidateQuery struct {
	OwnerID     string
	TagID       string
	Bucket      int
	Text        string
	Fingerprint uint64
}
