package logger

import (
	"crypto/sha256"
	"encoding/hex"

	"go.uber.org/zap"

	"github.com/shaond/tax2go-search/internal/domain/tenant"
)

// userHashLen is the number of hex characters kept from the identity digest.
const userHashLen = 16

// Redactor turns a user identity into log fields.
// Shipped logs carry only a salted hash; the raw identity is added when includeRaw is set.
type Redactor struct {
	salt       []byte
	includeRaw bool
}

// NewRedactor creates a Redactor. An empty salt still hashes.
func NewRedactor(salt string, includeRaw bool) Redactor {
	return Redactor{salt: []byte(salt), includeRaw: includeRaw}
}

// Hash returns the stable pseudonym for an identity.
func (r Redactor) Hash(id tenant.ID) string {
	h := sha256.New()
	h.Write(r.salt)
	h.Write([]byte(id.String()))
	return hex.EncodeToString(h.Sum(nil))[:userHashLen]
}

// Fields returns the zap fields describing an identity.
func (r Redactor) Fields(id tenant.ID) []zap.Field {
	if r.includeRaw {
		return []zap.Field{zap.String("user_hash", r.Hash(id)), zap.String("user_id", id.String())}
	}
	return []zap.Field{zap.String("user_hash", r.Hash(id))}
}
