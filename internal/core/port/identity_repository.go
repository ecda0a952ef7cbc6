package port

import (
	"context"
	"time"

	"github.com/campuspoint/auth-service/internal/core/domain"
)

// IdentityFilter narrows identity listings.
type IdentityFilter struct {
	Role     string
	IsActive *bool
	Limit    int
	Offset   int
}

// LockoutResult reports the counter state after a recorded failure.
type LockoutResult struct {
	Attempts  int
	LockUntil *time.Time
}

// IdentityRepository persists identity records. It is the single source of
// truth for credential and account state.
type IdentityRepository interface {
	Create(ctx context.Context, identity domain.Identity) error
	GetByID(ctx context.Context, id string) (*domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	List(ctx context.Context, filter IdentityFilter) ([]domain.Identity, error)
	Count(ctx context.Context, filter IdentityFilter) (int, error)

	// RecordLoginFailure atomically increments the failure counter and, when
	// the counter reaches threshold, sets the lock expiry in the same
	// statement. Concurrent failures therefore never under-count.
	RecordLoginFailure(ctx context.Context, id string, threshold int, lockUntil time.Time, at time.Time) (LockoutResult, error)

	// RecordLoginSuccess resets the failure counter, clears any lock, and
	// stamps the last login time.
	RecordLoginSuccess(ctx context.Context, id string, at time.Time) error

	UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error
	SetActive(ctx context.Context, id string, active bool) error
	SetVerified(ctx context.Context, id string, verified bool) error
}
