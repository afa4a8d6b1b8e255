package auth

import (
	"time"

	"github.com/spec-kit/tour-booking-service/internal/domain"
)

// passwordChangedAtSkew back-dates the change watermark so a token minted in
// the same logical operation is never rejected as pre-dating the change.
// Token issue times carry whole-second precision, so the skew has to clear a
// full second; sub-second values still race.
const passwordChangedAtSkew = 2 * time.Second

// MinPasswordLength is enforced on signup and every password change.
const MinPasswordLength = 8

// PasswordsMatch is the password/confirmation predicate applied on signup and
// every password change.
func PasswordsMatch(password, confirm string) bool {
	return password != "" && password == confirm
}

// SetInitialPassword hashes the password for a brand-new credential. The
// change watermark stays unset: creation is not a change.
func SetInitialPassword(user *domain.User, plain string, cost int) error {
	hash, err := HashPassword(plain, cost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.PasswordChangedAt = nil
	return nil
}

// RotatePassword hashes a replacement password, back-dates the watermark and
// clears any outstanding reset state. The caller persists all four fields in
// a single write.
func RotatePassword(user *domain.User, plain string, cost int, now time.Time) error {
	hash, err := HashPassword(plain, cost)
	if err != nil {
		return err
	}
	changedAt := now.Add(-passwordChangedAtSkew)
	user.PasswordHash = hash
	user.PasswordChangedAt = &changedAt
	user.PasswordResetDigest = nil
	user.PasswordResetExpiresAt = nil
	return nil
}

// ChangedAfter reports whether the password was changed strictly after the
// given token issue time. This is the sole revocation mechanism for stateless
// tokens. Comparison happens on Unix seconds to match token timestamp
// granularity; nil watermark means never changed.
func ChangedAfter(changedAt *time.Time, issuedAt time.Time) bool {
	if changedAt == nil {
		return false
	}
	return changedAt.Unix() > issuedAt.Unix()
}
