package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrPasswordMismatch means the plaintext does not match the stored hash.
	ErrPasswordMismatch = errors.New("password mismatch")
	// ErrMalformedHash means the stored digest could not be parsed. Callers
	// must not treat this as a plain mismatch.
	ErrMalformedHash = errors.New("malformed password hash")
)

// HashPassword hashes a plaintext password with the configured cost. Every
// call salts freshly, so hashing the same input twice yields different
// digests.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value in constant
// time. Returns nil on match, ErrPasswordMismatch on mismatch and
// ErrMalformedHash when the stored value is not a valid bcrypt digest.
func ComparePassword(hashed, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return ErrMalformedHash
}
