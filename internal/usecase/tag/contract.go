package tag

import (
	"context"

	"github.com/kailas-cloud/quizdex/internal/domain"
	domtag "github.com/kailas-cloud/quizdex/internal/domain/tag"
)

// Repository persists tags within their uniqueness scope.
type Repository interface {
	// Find returns the tag occupying (name, visibility, owner-if-private),
	// or domain.ErrNotFound.
	Find(ctx context.Context, name string, visibility domain.Visibility, ownerID string) (domtag.Tag, error)
	// Create persists a new tag, or domain.ErrAlreadyExists when the scope
	// is already taken.
	Create(ctx context.Context, t domtag.Tag) error
}

// Resolver resolves a category name to a durable tag, creating it on a miss.
type Resolver interface {
	ResolveOrCreate(ctx context.Context, name string, visibility domain.Visibility, ownerID string) (domtag.Tag, error)
}
