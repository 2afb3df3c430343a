package tag

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/quizdex/internal/domain"
	domtag "github.com/kailas-cloud/quizdex/internal/domain/tag"
	"github.com/kailas-cloud/quizdex/internal/metrics"
)

// Compile-time check: Service implements Resolver.
var _ Resolver = (*Service)(nil)

// Service resolves category names to tags with get-or-create semantics.
// Resolving never mutates an existing tag, and a creation race between
// concurrent callers is absorbed internally: the loser re-reads the winner's
// row instead of surfacing the conflict.
//
// Authorization is the caller's concern: callers without the global-tag
// privilege must downgrade the requested visibility before calling.
type Service struct {
	repo Repository
}

// New creates a tag resolution service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// ResolveOrCreate returns the tag for (name, visibility, owner), creating it
// when absent. It never returns domain.ErrNotFound: the result is either a
// tag or a Validation/Problem error.
func (s *Service) ResolveOrCreate(
	ctx context.Context, name string, visibility domain.Visibility, ownerID string,
) (domtag.Tag, error) {
	t, err := domtag.New(name, visibility, ownerID)
	if err != nil {
		return domtag.Tag{}, err
	}

	existing, err := s.repo.Find(ctx, t.Name(), t.Visibility(), t.OwnerID())
	if err == nil {
		metrics.TagResolutionsTotal.WithLabelValues("hit").Inc()
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domtag.Tag{}, fmt.Errorf("resolve tag %q: %w: %w", t.Name(), domain.ErrInternal, err)
	}

	err = s.repo.Create(ctx, t)
	if err == nil {
		metrics.TagResolutionsTotal.WithLabelValues("created").Inc()
		return t, nil
	}
	if !errors.Is(err, domain.ErrAlreadyExists) {
		return domtag.Tag{}, fmt.Errorf("create tag %q: %w: %w", t.Name(), domain.ErrInternal, err)
	}

	// Lost a creation race: exactly one re-read, never a second insert.
	// A miss here is a genuine bug, not a benign race.
	winner, err := s.repo.Find(ctx, t.Name(), t.Visibility(), t.OwnerID())
	if err != nil {
		return domtag.Tag{}, fmt.Errorf(
			"tag %q vanished after create conflict: %w: %w", t.Name(), domain.ErrInternal, err,
		)
	}
	metrics.TagResolutionsTotal.WithLabelValues("recovered").Inc()
	return winner, nil
}
