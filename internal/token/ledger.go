package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"courier/internal/store"
)

// Ledger tracks revoked reset tokens. Only digests cross the store boundary;
// the raw token never leaves this package.
type Ledger struct {
	store store.RevokedTokenStore
}

func NewLedger(s store.RevokedTokenStore) *Ledger {
	return &Ledger{store: s}
}

// IsRevoked reports whether the raw token has been revoked.
func (l *Ledger) IsRevoked(ctx context.Context, rawToken string) (bool, error) {
	return l.store.FindByHash(ctx, Digest(rawToken))
}

// Revoke records the token's digest. Revoking the same token twice is
// harmless.
func (l *Ledger) Revoke(ctx context.Context, rawToken string) error {
	return l.store.Insert(ctx, Digest(rawToken))
}

// Digest returns the SHA-256 hex digest of a raw token.
func Digest(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}
