package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuspoint/auth-service/internal/core/domain"
	"github.com/campuspoint/auth-service/internal/core/port"
	"github.com/campuspoint/auth-service/internal/infra/logger"
	"github.com/campuspoint/auth-service/internal/infra/security"
	"github.com/campuspoint/auth-service/internal/repository"
)

const resetTokenBytes = 32

// PasswordResetService implements the forgot/reset password flow.
// Only SHA-256 hashes of reset tokens are stored; the raw token exists in
// the returned event long enough to hand to the delivery channel.
type PasswordResetService struct {
	identities port.IdentityRepository
	resets     port.ResetTokenRepository
	hasher     *security.PasswordHasher
	validator  *security.PasswordValidator
	events     port.EventPublisher
	tokenTTL   time.Duration
	log        *zap.Logger
	now        func() time.Time
}

func NewPasswordResetService(
	identities port.IdentityRepository,
	resets port.ResetTokenRepository,
	hasher *security.PasswordHasher,
	validator *security.PasswordValidator,
	events port.EventPublisher,
	tokenTTL time.Duration,
	log *zap.Logger,
) *PasswordResetService {
	return &PasswordResetService{
		identities: identities,
		resets:     resets,
		hasher:     hasher,
		validator:  validator,
		events:     events,
		tokenTTL:   tokenTTL,
		log:        log,
		now:        time.Now,
	}
}

// RequestReset creates a reset token for the account behind email. Unknown
// emails return (nil, nil): the HTTP layer responds identically either way
// so the endpoint cannot be used to probe for registered addresses.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) (*domain.PasswordResetRequestedEvent, error) {
	email = domain.NormalizeEmail(email)
	if !domain.ValidEmail(email) {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}

	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Info("reset requested for unknown email",
				zap.String("email", logger.MaskEmail(email)),
			)
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	rawToken, err := security.GenerateSecureToken(resetTokenBytes)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expiresAt := now.Add(s.tokenTTL)

	if err := s.resets.Create(ctx, domain.PasswordResetToken{
		ID:         uuid.NewString(),
		IdentityID: identity.ID,
		TokenHash:  security.HashToken(rawToken),
		CreatedAt:  now,
		ExpiresAt:  expiresAt,
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.log.Info("password reset token issued",
		zap.String("identity_id", identity.ID),
		zap.String("email", logger.MaskEmail(email)),
		zap.Time("expires_at", expiresAt),
	)

	return &domain.PasswordResetRequestedEvent{
		EventID:     uuid.NewString(),
		IdentityID:  identity.ID,
		Email:       identity.Email,
		Token:       rawToken,
		RequestedAt: now,
		ExpiresAt:   expiresAt,
	}, nil
}

// Dispatch publishes the reset event. Called by the HTTP layer after the
// response has been written so delivery latency never blocks the client.
func (s *PasswordResetService) Dispatch(ctx context.Context, event domain.PasswordResetRequestedEvent) {
	if err := s.events.PublishPasswordResetRequested(ctx, event); err != nil {
		s.log.Error("publish reset event failed",
			zap.String("identity_id", event.IdentityID),
			zap.Error(err),
		)
	}
}

// ConfirmReset redeems a reset token and installs a new password. The token
// must belong to the account behind email, be unexpired, and be unused.
func (s *PasswordResetService) ConfirmReset(ctx context.Context, email, rawToken, newPassword string) error {
	email = domain.NormalizeEmail(email)
	if !domain.ValidEmail(email) {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if rawToken == "" {
		return fmt.Errorf("%w: reset token is required", ErrValidation)
	}
	if err := s.validator.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	token, err := s.resets.GetByHash(ctx, security.HashToken(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	now := s.now()
	if token.IdentityID != identity.ID || token.UsedAt != nil || token.IsExpired(now) {
		return ErrInvalidToken
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	// Consuming first makes the token single use even when two confirms
	// race; the loser gets ErrNotFound from the guarded update.
	if err := s.resets.Consume(ctx, token.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := s.identities.UpdatePassword(ctx, identity.ID, hash, now); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := s.events.PublishPasswordChanged(ctx, domain.PasswordChangedEvent{
		EventID:    uuid.NewString(),
		IdentityID: identity.ID,
		ChangedAt:  now,
	}); err != nil {
		s.log.Warn("publish password changed event failed", zap.Error(err))
	}

	s.log.Info("password reset completed",
		zap.String("identity_id", identity.ID),
		zap.String("email", logger.MaskEmail(email)),
	)

	return nil
}
