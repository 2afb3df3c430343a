package tag

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/quizdex/internal/db"
	"github.com/kailas-cloud/quizdex/internal/domain"
	domtag "github.com/kailas-cloud/quizdex/internal/domain/tag"
)

// store is the consumer interface for tags (ISP).
type store interface {
	InsertTag(ctx context.Context, row db.TagRow) error
	FindTag(ctx context.Context, key db.TagKey) (db.TagRow, error)
}

// Repo implements usecase/tag.Repository.
type Repo struct {
	store store
}

// New creates a tag repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Find returns the tag occupying the (name, visibility, owner) scope.
// Returns domain.ErrNotFound on a miss.
func (r *Repo) Find(ctx context.Context, name string, visibility domain.Visibility, ownerID string) (domtag.Tag, error) {
	if visibility == domain.VisibilityGlobal {
		ownerID = ""
	}
	row, err := r.store.FindTag(ctx, db.TagKey{
		Name:       name,
		Visibility: string(visibility),
		OwnerID:    ownerID,
	})
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return domtag.Tag{}, domain.ErrNotFound
		}
		return domtag.Tag{}, fmt.Errorf("find tag %q: %w", name, err)
	}
	return rowToTag(row), nil
}

// Create persists a new tag. Returns domain.ErrAlreadyExists when another
// tag already occupies the scope.
func (r *Repo) Create(ctx context.Context, t domtag.Tag) error {
	if err := r.store.InsertTag(ctx, tagToRow(t)); err != nil {
		if errors.Is(err, db.ErrUniqueViolation) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert tag %q: %w", t.Name(), err)
	}
	return nil
}

func rowToTag(row db.TagRow) domtag.Tag {
	return domtag.Reconstruct(row.ID, row.Name, domain.Visibility(row.Visibility), row.OwnerID, row.CreatedAt)
}

func tagToRow(t domtag.Tag) db.TagRow {
	return db.TagRow{
		ID:         t.ID(),
		Name:       t.Name(),
		Visibility: string(t.Visibility()),
		OwnerID:    t.OwnerID(),
		CreatedAt:  t.CreatedAt(),
	}
}
