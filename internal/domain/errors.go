package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput signals a malformed request: bad document, query, pagination or identity.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidIdentity signals a user identity that is not a canonical UUID
	// or cannot be used as a storage path component.
	ErrInvalidIdentity = errors.New("invalid user identity")
	// ErrStorage signals an I/O, permission or corruption failure of a user's index.
	ErrStorage = errors.New("storage fault")
	// ErrClosed signals that the index manager has been shut down.
	ErrClosed = errors.New("index manager closed")
	// ErrDataDirLocked signals that another process owns the data directory.
	ErrDataDirLocked = errors.New("data directory locked by another process")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)

// Invalid wraps err as an ErrInvalidInput with a field-level description.
func Invalid(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidInput) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}
