package domain

import "time"

// Role is the authorization level attached to an account. The set is closed;
// storage and middleware reject anything outside it.
type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

// ValidRole reports whether r belongs to the closed role set.
func ValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

// User is the domain model for platform accounts. The credential fields
// (password hash, change watermark, reset digest/expiry, active flag) are
// mutated only through the auth subsystem's lifecycle hooks and written as a
// single atomic update.
type User struct {
	ID           string
	Name         string
	Email        string
	Photo        string
	Role         Role
	PasswordHash string
	// PasswordChangedAt is set only when the password is replaced after
	// account creation; nil means "never changed".
	PasswordChangedAt *time.Time
	// PasswordResetDigest holds the sha256 digest of an outstanding reset
	// secret. Present only between a reset request and its consumption or
	// expiry, always paired with PasswordResetExpiresAt.
	PasswordResetDigest    *string
	PasswordResetExpiresAt *time.Time
	Active                 bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
