package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/quizdex/internal/domain"
	dsting "github.com/kailas-cloud/quizdex/internal/domain/ingest"
	domq "github.com/kailas-cloud/quizdex/internal/domain/question"
	domtag "github.com/kailas-cloud/quizdex/internal/domain/tag"
	"github.com/kailas-cloud/quizdex/internal/fingerprint"
)

type fakeResolver struct {
	tags  map[string]domtag.Tag
	calls []string
	err   error
}

func (r *fakeResolver) ResolveOrCreate(
	_ context.Context, name string, visibility domain.Visibility, ownerID string,
) (domtag.Tag, error) {
	r.calls = append(r.calls, name)
	if r.err != nil {
		return domtag.Tag{}, r.err
	}
	key := domtag.Normalize(name)
	if key == "" {
		return domtag.Tag{}, fmt.Errorf("tag name is empty: %w", domain.ErrValidation)
	}
	if r.tags == nil {
		r.tags = make(map[string]domtag.Tag)
	}
	t, ok := r.tags[key]
	if !ok {
		t = domtag.Reconstruct("tag-"+key, key, visibility, ownerID, testTime())
		r.tags[key] = t
	}
	return t, nil
}

type fakeQuestionRepo struct {
	persisted       []domq.Question
	atomic          bool
	noTextFilter    bool
	candidatesErr   error
	createErr       error
	createCalls     int
	candidateCalls  []domq.CandidateQuery
	fallbackQueries int
}

func (r *fakeQuestionRepo) Candidates(_ context.Context, q domq.CandidateQuery) ([]domq.Question, error) {
	r.candidateCalls = append(r.candidateCalls, q)
	if r.candidatesErr != nil {
		return nil, r.candidatesErr
	}
	if q.Text != "" && r.noTextFilter {
		return nil, domain.ErrTextFilterUnsupported
	}
	if q.Text == "" {
		r.fallbackQueries++
	}
	var out []domq.Question
	for i := range r.persisted {
		c := &r.persisted[i]
		if c.OwnerID() != q.OwnerID || c.TagID() != q.TagID || c.Bucket() != q.Bucket {
			continue
		}
		if q.Text != "" && !strings.EqualFold(c.Text(), q.Text) && c.Fingerprint() != q.Fingerprint {
			continue
		}
		out = append(out, r.persisted[i])
	}
	return out, nil
}

func (r *fakeQuestionRepo) CreateAll(_ context.Context, qs []domq.Question) (bool, error) {
	r.createCalls++
	if r.createErr != nil {
		return false, r.createErr
	}
	r.persisted = append(r.persisted, qs...)
	return r.atomic, nil
}

type auditEvent struct {
	action  string
	actor   string
	subject string
}

type fakeAudit struct {
	events []auditEvent
}

func (a *fakeAudit) Record(_ context.Context, action, actor, subject string) {
	a.events = append(a.events, auditEvent{action: action, actor: actor, subject: subject})
}

func testTime() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

type fixture struct {
	svc   *Service
	repo  *fakeQuestionRepo
	tags  *fakeResolver
	audit *fakeAudit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := &fakeQuestionRepo{atomic: true}
	tags := &fakeResolver{}
	audit := &fakeAudit{}
	engine := fingerprint.New(fingerprint.DefaultShingleSize, fingerprint.DefaultBucketBits)
	return &fixture{
		svc:   New(engine, tags, repo, audit),
		repo:  repo,
		tags:  tags,
		audit: audit,
	}
}

func item(category, text string) dsting.Item {
	return dsting.Item{Category: category, Text: text, Answer: "42"}
}

func TestIngest_CreatesDistinctRecords(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Ingest(context.Background(), []dsting.Item{
		item("science", "What is the boiling point of water at sea level?"),
		item("science", "Which planet is known as the red planet?"),
		item("history", "Who was the first president of the united states?"),
	}, domain.VisibilityPrivate, "user-1", false)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if out.Created() != 3 || out.Duplicates() != 0 || out.Failed() != 0 {
		t.Fatalf("got created=%d dup=%d failed=%d, want 3/0/0",
			out.Created(), out.Duplicates(), out.Failed())
	}
	if len(f.repo.persisted) != 3 {
		t.Fatalf("persisted %d questions, want 3", len(f.repo.persisted))
	}
	for i := range f.repo.persisted {
		q := &f.repo.persisted[i]
		if q.OwnerID() != "user-1" {
			t.Errorf("question %d owner = %q, want user-1", i, q.OwnerID())
		}
		if q.Fingerprint() == 0 {
			t.Errorf("question %d has zero fingerprint", i)
		}
		if q.TagID() == "" {
			t.Errorf("question %d has no tag", i)
		}
	}
	if len(f.audit.events) != 3 {
		t.Fatalf("audit events = %d, want 3", len(f.audit.events))
	}
	if f.audit.events[0].action != "question.created" || f.audit.events[0].actor != "user-1" {
		t.Errorf("unexpected audit event %+v", f.audit.events[0])
	}
}

func TestIngest_SuppressesInBatchDuplicate(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Ingest(context.Background(), []dsting.Item{
		item("science", "What is the speed of light in vacuum?"),
		item("science", "what is the speed of light in vacuum?"),
	}, domain.VisibilityPrivate, "user-1", false)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if out.Created() != 1 || out.Duplicates() != 1 {
		t.Fatalf("got created=%d dup=%d, want 1/1", out.Created(), out.Duplicates())
	}
	if out.Results()[0].Status() != dsting.StatusCreated {
		t.Errorf("first record status = %q, want created", out.Results()[0].Status())
	}
	if out.Results()[1].Status() != dsting.StatusDuplicate {
		t.Errorf("second record status = %q, want duplicate", out.Results()[1].Status())
	}
	if len(f.repo.persisted) != 1 {
		t.Fatalf("persisted %d questions, want 1", len(f.repo.persisted))
	}
}

func TestIngest_SameTextDifferentCategoryIsNotDuplicate(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Ingest(context.Background(), []dsting.Item{
		item("science", "Who discovered penicillin in 1928?"),
		item("history", "Who discovered penicillin in 1928?"),
	}, domain.VisibilityPrivate, "user-1", false)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if out.Created() != 2 || out.Duplicates() != 0 {
		t.Fatalf("got created=%d dup=%d, want 2/0", out.Created(), out.Duplicates())
	}
}

func TestIngest_SuppressesPersistedDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Ingest(ctx, []dsting.Item{
		item("science", "How many bones are in the adult human body?"),
	}, domain.VisibilityPrivate, "user-1", false)
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}
	if first.Created() != 1 {
		t.Fatalf("first batch created = %d, want 1", first.Created())
	}

	// Same question with different casing arrives in a later call.
	second, err := f.svc.Ingest(ctx, []dsting.Item{
		item("science", "HOW MANY BONES ARE IN THE ADULT HUMAN BODY?"),
	}, domain.VisibilityPrivate, "user-1", false)
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}

	if second.Duplicates() != 1 || second.Created() != 0 {
		t.Fatalf("got created=%d dup=%d, want 0/1", second.Created(), second.Duplicates())
	}
	if len(f.repo.persisted) != 1 {
		t.Fatalf("persisted %d questions, want 1", len(f.repo.persisted))
	}
	if got := second.DuplicateTexts(); len(got) != 1 || got[0] != "HOW MANY BONES ARE IN THE ADULT HUMAN BODY?" {
		t.Errorf("DuplicateTexts = %v", got)
	}
}

func TestIngest_TextFilterFallback(t *testing.T) {
	f := newFixture(t)
	f.repo.noTextFilter = true
	ctx := context.Background()

	if _, err := f.svc.Ingest(ctx, []dsting.Item{
		item("science", "What gas do plants absorb during photosynthesis?"),
	}, domain.VisibilityPrivate, "user-1", false); err != nil {
		t.Fatalf("first Ingest: %v", err)
	}

	out, err := f.svc.Ingest(ctx, []dsting.Item{
		item("science", "what gas do plants absorb during photosynthesis?"),
	}, domain.VisibilityPrivate, "user-1", false)
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}

	if out.Duplicates() != 1 {
		t.Fatalf("duplicates = %d, want 1 via unfiltered fallback", out.Duplicates())
	}
	if f.repo.fallbackQueries == 0 {
		t.Error("expected at least one unfiltered candidate query")
	}
}

func TestIngest_FailedRecordDoesNotAbortBatch(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Ingest(context.Background(), []dsting.Item{
		item("geography", "What is the capital of australia?"),
		item("", "Which river is the longest in the world?"),
		item("geography", "Which desert is the largest hot desert on earth?"),
	}, domain.VisibilityPrivate, "user-1", false)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if out.Created() != 2 || out.Failed() != 1 {
		t.Fatalf("got created=%d failed=%d, want 2/1", out.Created(), out.Failed())
	}
	failures := out.Failures()
	if len(failures) != 1 || failures[0].Index() != 1 {
		t.Fatalf("failures = %+v, want single failure at index 1", failures)
	}
	if !errors.Is(failures[0].Err(), domain.ErrValidation) {
		t.Errorf("failure cause = %v, want ErrValidation", failures[0].Err())
	}
	if len(f.repo.persisted) != 2 {
		t.Fatalf("persisted %d questions, want 2", len(f.repo.persisted))
	}
}

func TestIngest_InvalidRecordFailsValidation(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Ingest(context.Background(), []dsting.Item{
		{Category: "science", Text: "   ", Answer: "42"},
		{Category: "science", Text: "Valid question about the mantle?", Answer: ""},
	}, domain.VisibilityPrivate, "user-1", false)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if out.Failed() != 2 {
		t.Fatalf("failed = %d, want 2", out.Failed())
	}
	for _, r := range out.Failures() {
		if !errors.Is(r.Err(), domain.ErrValidation) {
			t.Errorf("record %d cause = %v, want ErrValidation", r.Index(), r.Err())
		}
	}
	if f.repo.createCalls != 0 {
		t.Errorf("CreateAll called %d times for an all-failed batch", f.repo.createCalls)
	}
}

func TestIngest_NonPrivilegedDowngradedToPrivate(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Ingest(context.Background(), []dsting.Item{
		item("trivia", "Which instrument has 88 keys?"),
	}, domain.VisibilityGlobal, "user-1", false)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if out.Created() != 1 {
		t.Fatalf("created = %d, want 1", out.Created())
	}
	if got := f.repo.persisted[0].Visibility(); got != domain.VisibilityPrivate {
		t.Errorf("visibility = %q, want private downgrade", got)
	}
	if got := f.tags.tags["trivia"].Visibility(); got != domain.VisibilityPrivate {
		t.Errorf("tag visibility = %q, want private downgrade", got)
	}
}

func TestIngest_PrivilegedKeepsGlobalVisibility(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Ingest(context.Background(), []dsting.Item{
		item("trivia", "How many strings does a standard violin have?"),
	}, domain.VisibilityGlobal, "admin-1", true)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if got := f.repo.persisted[0].Visibility(); got != domain.VisibilityGlobal {
		t.Errorf("visibility = %q, want global", got)
	}
}

func TestIngest_BatchCapByTier(t *testing.T) {
	f := newFixture(t)
	f.svc.WithBatchCaps(2, 4)

	big := make([]dsting.Item, 3)
	for i := range big {
		big[i] = item("bulk", fmt.Sprintf("Question number %d about something?", i))
	}

	_, err := f.svc.Ingest(context.Background(), big, domain.VisibilityPrivate, "user-1", false)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("non-privileged over-cap err = %v, want ErrValidation", err)
	}
	if f.repo.createCalls != 0 {
		t.Fatal("over-cap batch must not reach the store")
	}

	out, err := f.svc.Ingest(context.Background(), big, domain.VisibilityPrivate, "user-1", true)
	if err != nil {
		t.Fatalf("privileged Ingest: %v", err)
	}
	if out.Created() != 3 {
		t.Errorf("privileged created = %d, want 3", out.Created())
	}
}

func TestIngest_RequiresOwner(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Ingest(context.Background(), []dsting.Item{
		item("science", "Does this matter?"),
	}, domain.VisibilityPrivate, "", false)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestIngest_EmptyBatch(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Ingest(context.Background(), nil, domain.VisibilityPrivate, "user-1", false)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if out.Total() != 0 {
		t.Errorf("total = %d, want 0", out.Total())
	}
	if f.repo.createCalls != 0 {
		t.Error("empty batch must not reach the store")
	}
}

func TestIngest_CommitFailureIsCallLevelError(t *testing.T) {
	f := newFixture(t)
	f.repo.createErr = errors.New("disk full")

	_, err := f.svc.Ingest(context.Background(), []dsting.Item{
		item("science", "What is the chemical symbol for gold?"),
	}, domain.VisibilityPrivate, "user-1", false)

	if !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("err = %v, want ErrInternal", err)
	}
	if len(f.audit.events) != 0 {
		t.Error("no audit events expected after a failed commit")
	}
}

func TestIngest_ResolverFailureFailsRecordOnly(t *testing.T) {
	f := newFixture(t)
	f.tags.err = fmt.Errorf("store down: %w", domain.ErrInternal)

	out, err := f.svc.Ingest(context.Background(), []dsting.Item{
		item("science", "Which element has atomic number 1?"),
	}, domain.VisibilityPrivate, "user-1", false)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if out.Failed() != 1 {
		t.Fatalf("failed = %d, want 1", out.Failed())
	}
	if !errors.Is(out.Failures()[0].Err(), domain.ErrInternal) {
		t.Errorf("failure cause = %v, want ErrInternal", out.Failures()[0].Err())
	}
}

func TestIngest_CanceledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Ingest(ctx, []dsting.Item{
		item("science", "Will this ever run?"),
	}, domain.VisibilityPrivate, "user-1", false)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if f.repo.createCalls != 0 {
		t.Error("canceled batch must not reach the store")
	}
}

func TestIngest_OutcomeCountersAddUp(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Ingest(context.Background(), []dsting.Item{
		item("mixed", "First unique question about oceans?"),
		item("mixed", "first unique question about oceans?"),
		item("", "Question with a missing category?"),
		item("mixed", "Second unique question about mountains?"),
	}, domain.VisibilityPrivate, "user-1", false)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if got := out.Created() + out.Duplicates() + out.Failed(); got != out.Total() {
		t.Fatalf("created+duplicates+failed = %d, total = %d", got, out.Total())
	}
	if out.Total() != 4 || out.Created() != 2 || out.Duplicates() != 1 || out.Failed() != 1 {
		t.Fatalf("got %d/%d/%d/%d, want total=4 created=2 dup=1 failed=1",
			out.Total(), out.Created(), out.Duplicates(), out.Failed())
	}
}
