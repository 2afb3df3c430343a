package domain

import "fmt"

// Visibility partitions tags and questions into per-owner and shared scopes.
type Visibility string

// Visibility values.
const (
	VisibilityPrivate Visibility = "private"
	VisibilityGlobal  Visibility = "global"
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	return v == VisibilityPrivate || v == VisibilityGlobal
}

// ParseVisibility converts a string into a Visibility.
func ParseVisibility(s string) (Visibility, error) {
	v := Visibility(s)
	if !v.Valid() {
		return "", fmt.Errorf("unknown visibility %q: %w", s, ErrValidation)
	}
	return v, nil
}
