package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher wraps bcrypt with a configurable cost and an upper bound
// on concurrent hashing operations. Bcrypt is CPU heavy; the semaphore keeps
// a burst of registrations from starving the rest of the service.
type PasswordHasher struct {
	cost int
	sem  chan struct{}
}

func NewPasswordHasher(cost, maxConcurrent int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	return &PasswordHasher{
		cost: cost,
		sem:  make(chan struct{}, maxConcurrent),
	}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("hash password: empty password")
	}

	h.sem <- struct{}{}
	defer func() { <-h.sem }()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hash), nil
}

// Verify reports whether password matches hash. It never returns an error:
// a malformed or empty hash simply fails verification.
func (h *PasswordHasher) Verify(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
