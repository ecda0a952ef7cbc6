package domain

import "time"

// IdentityRegisteredEvent is emitted when a new identity is created.
type IdentityRegisteredEvent struct {
	EventID      string
	IdentityID   string
	Email        string
	Roles        []string
	RegisteredAt time.Time
}

// LoginSucceededEvent is emitted after a successful authentication.
type LoginSucceededEvent struct {
	EventID    string
	IdentityID string
	LoginAt    time.Time
}

// AccountLockedEvent is emitted when repeated failures lock an account.
type AccountLockedEvent struct {
	EventID    string
	IdentityID string
	Attempts   int
	LockedAt   time.Time
	LockUntil  time.Time
}

// PasswordResetRequestedEvent carries the reset artifact for delivery.
// The raw token is included so a downstream mailer can embed it; it is
// never persisted or logged in this service.
type PasswordResetRequestedEvent struct {
	EventID     string
	IdentityID  string
	Email       string
	Token       string
	RequestedAt time.Time
	ExpiresAt   time.Time
}

// PasswordChangedEvent is emitted after a successful password reset.
type PasswordChangedEvent struct {
	EventID    string
	IdentityID string
	ChangedAt  time.Time
}
