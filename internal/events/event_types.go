package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserSignedUp           EventType = "user_signed_up"
	EventUserLoggedIn           EventType = "user_logged_in"
	EventPasswordChanged        EventType = "password_changed"
	EventPasswordResetRequested EventType = "password_reset_requested"
	EventPasswordResetCompleted EventType = "password_reset_completed"
	EventAccountDeactivated     EventType = "account_deactivated"
)

// Event represents an auth domain event emitted by services. Payloads never
// carry password material or reset secrets.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Email     string      `json:"email,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// PasswordResetRequestedPayload carries only the expiry of the outstanding
// reset window, never the secret or digest.
type PasswordResetRequestedPayload struct {
	ExpiresAt time.Time `json:"expires_at"`
}
