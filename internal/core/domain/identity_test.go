package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestIsLocked(t *testing.T) {
	now := time.Now()
	future := now.Add(10 * time.Minute)
	past := now.Add(-10 * time.Minute)

	tests := []struct {
		name      string
		lockUntil *time.Time
		want      bool
	}{
		{"no lock", nil, false},
		{"lock in future", &future, true},
		{"lock expired", &past, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity := Identity{LockUntil: tt.lockUntil}
			if got := identity.IsLocked(now); got != tt.want {
				t.Errorf("IsLocked() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLockExpiryIsExclusive(t *testing.T) {
	now := time.Now()
	identity := Identity{LockUntil: &now}

	if identity.IsLocked(now) {
		t.Error("account should unlock exactly at the lock boundary")
	}
}

func TestPublicProjectionOmitsPasswordHash(t *testing.T) {
	lastLogin := time.Now().Add(-time.Hour)
	identity := Identity{
		ID:            "id-1",
		Email:         "user@example.com",
		FirstName:     "Ada",
		LastName:      "Lovelace",
		PasswordHash:  "$2a$10$secrethash",
		Roles:         RoleSet{RoleStudent, RoleTeacher},
		IsVerified:    true,
		IsActive:      true,
		LoginAttempts: 3,
		LastLogin:     &lastLogin,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	payload, err := json.Marshal(identity.Public())
	if err != nil {
		t.Fatalf("marshal public identity: %v", err)
	}

	body := string(payload)
	if strings.Contains(body, "secrethash") {
		t.Error("public projection leaked the password hash")
	}
	if strings.Contains(body, "loginAttempts") || strings.Contains(body, "lockUntil") {
		t.Error("public projection leaked lockout internals")
	}
	if !strings.Contains(body, `"email":"user@example.com"`) {
		t.Errorf("public projection missing email: %s", body)
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  User@Example.COM ", "user@example.com"},
		{"plain@example.com", "plain@example.com"},
	}

	for _, tt := range tests {
		if got := NormalizeEmail(tt.in); got != tt.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"a@b.co", "first.last@sub.example.org"}
	invalid := []string{"", "nodomain", "no@tld", "spaces in@example.com", "@example.com"}

	for _, email := range valid {
		if !ValidEmail(email) {
			t.Errorf("ValidEmail(%q) = false, want true", email)
		}
	}
	for _, email := range invalid {
		if ValidEmail(email) {
			t.Errorf("ValidEmail(%q) = true, want false", email)
		}
	}
}

func TestResetTokenConsumeIsSingleUse(t *testing.T) {
	token := PasswordResetToken{
		ID:        "t-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	now := time.Now()
	if !token.Consume(now) {
		t.Fatal("first consume should succeed")
	}
	if token.Consume(now) {
		t.Error("second consume should fail")
	}
	if token.UsedAt == nil || !token.UsedAt.Equal(now) {
		t.Error("UsedAt not recorded")
	}
}

func TestResetTokenExpiry(t *testing.T) {
	now := time.Now()
	token := PasswordResetToken{ExpiresAt: now}

	if !token.IsExpired(now) {
		t.Error("token should be expired exactly at ExpiresAt")
	}
	if token.IsExpired(now.Add(-time.Second)) {
		t.Error("token should not be expired before ExpiresAt")
	}
}
