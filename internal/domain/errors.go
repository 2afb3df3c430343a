package domain

import "errors"

var (
	// ErrValidation signals malformed caller input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInternal signals a storage or infrastructure failure.
	ErrInternal = errors.New("internal storage problem")
	// ErrTextFilterUnsupported signals that the backend cannot pre-filter
	// candidates by case-insensitive text match.
	ErrTextFilterUnsupported = errors.New("text filter not supported by backend")
)
