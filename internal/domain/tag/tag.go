package tag

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/quizdex/internal/domain"
)

// MaxNameLength is the maximum normalized tag name length in bytes.
const MaxNameLength = 120

// Tag is a named category with a private/global visibility partition
// (immutable value object). Within one scope, (name, owner-if-private) is
// unique; private tags owned by different users may share a name.
type Tag struct {
	id         string
	name       string
	visibility domain.Visibility
	ownerID    string
	createdAt  time.Time
}

// Normalize trims and lowercases a tag name.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// New validates and creates a Tag. The name is normalized; global tags carry
// no owner, private tags require one.
func New(name string, visibility domain.Visibility, ownerID string) (Tag, error) {
	n := Normalize(name)
	if n == "" {
		return Tag{}, fmt.Errorf("tag name is empty: %w", domain.ErrValidation)
	}
	if len(n) > MaxNameLength {
		return Tag{}, fmt.Errorf("tag name exceeds %d bytes: %w", MaxNameLength, domain.ErrValidation)
	}
	if !visibility.Valid() {
		return Tag{}, fmt.Errorf("unknown visibility %q: %w", visibility, domain.ErrValidation)
	}
	switch visibility {
	case domain.VisibilityGlobal:
		ownerID = ""
	case domain.VisibilityPrivate:
		if ownerID == "" {
			return Tag{}, fmt.Errorf("private tag requires an owner: %w", domain.ErrValidation)
		}
	}

	return Tag{
		id:         uuid.NewString(),
		name:       n,
		visibility: visibility,
		ownerID:    ownerID,
		createdAt:  time.Now().UTC(),
	}, nil
}

// Reconstruct creates a Tag without validation (storage hydration).
func Reconstruct(id, name string, visibility domain.Visibility, ownerID string, createdAt time.Time) Tag {
	return Tag{id: id, name: name, visibility: visibility, ownerID: ownerID, createdAt: createdAt}
}

// ID returns the tag identifier.
func (t Tag) ID() string { return t.id }

// Name returns the normalized tag name.
func (t Tag) Name() string { return t.name }

// Visibility returns the tag scope.
func (t Tag) Visibility() domain.Visibility { return t.visibility }

// OwnerID returns the owning user for private tags, empty for global ones.
func (t Tag) OwnerID() string { return t.ownerID }

// CreatedAt returns the creation time.
func (t Tag) CreatedAt() time.Time { return t.createdAt }
