package tax2go

import "github.com/shaond/tax2go-search/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidInput    = domain.ErrInvalidInput
	ErrInvalidIdentity = domain.ErrInvalidIdentity
	ErrStorage         = domain.ErrStorage
	ErrClosed          = domain.ErrClosed
	ErrDataDirLocked   = domain.ErrDataDirLocked
)
