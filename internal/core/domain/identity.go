package domain

import (
	"regexp"
	"strings"
	"time"
)

// Identity mirrors the persisted representation in the identities table.
// PasswordHash never leaves this package except through the repositories;
// API responses are built from PublicIdentity.
type Identity struct {
	ID            string
	Email         string
	FirstName     string
	LastName      string
	PasswordHash  string
	Roles         RoleSet
	IsVerified    bool
	IsActive      bool
	LoginAttempts int
	LockUntil     *time.Time
	LastLogin     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsLocked reports whether the account is locked at the given instant.
// Lock state is derived from LockUntil; there is no separate boolean.
func (i Identity) IsLocked(at time.Time) bool {
	return i.LockUntil != nil && i.LockUntil.After(at)
}

// Public projects the identity into its externally visible view.
// Sensitive fields are excluded structurally rather than redacted per call.
func (i Identity) Public() PublicIdentity {
	return PublicIdentity{
		ID:         i.ID,
		Email:      i.Email,
		FirstName:  i.FirstName,
		LastName:   i.LastName,
		Roles:      i.Roles.Strings(),
		IsVerified: i.IsVerified,
		IsActive:   i.IsActive,
		LastLogin:  i.LastLogin,
		CreatedAt:  i.CreatedAt,
		UpdatedAt:  i.UpdatedAt,
	}
}

// PublicIdentity is the serializable view of an identity. It has no field
// for the password hash or any token material.
type PublicIdentity struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Roles      []string   `json:"roles"`
	IsVerified bool       `json:"isVerified"`
	IsActive   bool       `json:"isActive"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// PasswordResetToken represents a single-use password reset token hash.
type PasswordResetToken struct {
	ID         string
	IdentityID string
	TokenHash  string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	UsedAt     *time.Time
}

// IsExpired reports whether the reset token can still be redeemed.
func (t PasswordResetToken) IsExpired(at time.Time) bool {
	return !t.ExpiresAt.After(at)
}

// Consume marks the reset token as used.
// Returns true when the token transitions from unused to used.
func (t *PasswordResetToken) Consume(at time.Time) bool {
	if t.UsedAt != nil {
		return false
	}
	timeCopy := at
	t.UsedAt = &timeCopy
	return true
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail lowercases and trims an email for use as the login key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether the (normalized) email matches the accepted shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
