package services

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the core services. Handlers map these to HTTP
// statuses; everything else is treated as an internal error.
var (
	// ErrNotFound covers both a missing record and a record owned by another
	// user. The two cases are deliberately indistinguishable so the API does
	// not leak which record IDs exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput marks a validation failure detected before any write.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStoreUnavailable marks a persistence-layer failure. Multi-write
	// operations roll back fully before returning it.
	ErrStoreUnavailable = errors.New("store unavailable")
)

func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

func storeError(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
