package port

import (
	"context"

	"github.com/campuspoint/auth-service/internal/core/domain"
)

// ResetTokenRepository persists hashed password reset tokens.
type ResetTokenRepository interface {
	Create(ctx context.Context, token domain.PasswordResetToken) error
	GetByHash(ctx context.Context, hash string) (*domain.PasswordResetToken, error)
	Consume(ctx context.Context, id string) error
}
