package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// resetSecretBytes gives 256 bits of entropy per secret.
const resetSecretBytes = 32

// NewResetSecret mints a one-time password-reset secret and the digest the
// server stores. Only the digest is ever persisted; the plaintext goes to the
// account holder once and is then discarded.
func NewResetSecret() (secret, digest string, err error) {
	buf := make([]byte, resetSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	secret = hex.EncodeToString(buf)
	return secret, HashResetSecret(secret), nil
}

// HashResetSecret computes the stored digest for a presented secret. Unlike
// the password hasher this is deterministic and unsalted: lookup is by
// digest equality, and the secret already carries full entropy.
func HashResetSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// ResetExpiry returns the absolute expiry for a reset secret issued at now.
func ResetExpiry(now time.Time, ttl time.Duration) time.Time {
	return now.Add(ttl)
}
