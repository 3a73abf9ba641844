// Package tenant defines the user identity that scopes every index operation.
package tenant

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/shaond/tax2go-search/internal/domain"
)

// canonicalLen is the length of the hyphenated 8-4-4-4-12 UUID form.
const canonicalLen = 36

// ID is a validated user identity. The zero value is not a valid identity.
type ID struct {
	u uuid.UUID
}

// Parse validates a user identity.
// Only the canonical hyphenated UUID form is accepted (no braces, no urn prefix),
// and the nil UUID is rejected.
func Parse(s string) (ID, error) {
	if len(s) != canonicalLen {
		return ID{}, fmt.Errorf("%w: expected canonical UUID", domain.ErrInvalidIdentity)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %w", domain.ErrInvalidIdentity, err)
	}
	if u == uuid.Nil {
		return ID{}, fmt.Errorf("%w: nil UUID", domain.ErrInvalidIdentity)
	}
	return ID{u: u}, nil
}

// MustParse is Parse for tests and constants. Panics on invalid input.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// New returns a random identity.
func New() ID {
	return ID{u: uuid.New()}
}

// String returns the lower-case canonical form, safe to use as a path component.
func (id ID) String() string {
	if id.IsZero() {
		return ""
	}
	return id.u.String()
}

// IsZero reports whether the identity is unset.
func (id ID) IsZero() bool { return id.u == uuid.Nil }
