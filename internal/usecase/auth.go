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

// TokenPair is the result of a successful authentication.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// LockoutPolicy tunes the failed-login lockout behavior.
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

// AuthService implements login, token refresh, and access token verification.
type AuthService struct {
	identities port.IdentityRepository
	hasher     *security.PasswordHasher
	tokens     *security.TokenManager
	events     port.EventPublisher
	lockout    LockoutPolicy
	log        *zap.Logger
	now        func() time.Time
}

func NewAuthService(
	identities port.IdentityRepository,
	hasher *security.PasswordHasher,
	tokens *security.TokenManager,
	events port.EventPublisher,
	lockout LockoutPolicy,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		identities: identities,
		hasher:     hasher,
		tokens:     tokens,
		events:     events,
		lockout:    lockout,
		log:        log,
		now:        time.Now,
	}
}

// Login authenticates an email and password pair.
//
// The lock check runs before password verification so a locked account
// reports ErrAccountLocked even when the supplied password is correct.
// Unknown emails and wrong passwords both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Identity, *TokenPair, error) {
	email = domain.NormalizeEmail(email)

	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	now := s.now()

	if identity.IsLocked(now) {
		s.log.Warn("login rejected, account locked",
			zap.String("identity_id", identity.ID),
			zap.Timep("lock_until", identity.LockUntil),
		)
		return nil, nil, ErrAccountLocked
	}

	if !s.hasher.Verify(password, identity.PasswordHash) {
		return nil, nil, s.recordFailure(ctx, identity, now)
	}

	if err := s.identities.RecordLoginSuccess(ctx, identity.ID, now); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	identity.LoginAttempts = 0
	identity.LockUntil = nil
	identity.LastLogin = &now

	pair, err := s.issueTokens(identity)
	if err != nil {
		return nil, nil, err
	}

	if err := s.events.PublishLoginSucceeded(ctx, domain.LoginSucceededEvent{
		EventID:    uuid.NewString(),
		IdentityID: identity.ID,
		LoginAt:    now,
	}); err != nil {
		s.log.Warn("publish login event failed", zap.Error(err))
	}

	s.log.Info("login succeeded",
		zap.String("identity_id", identity.ID),
		zap.String("email", logger.MaskEmail(identity.Email)),
	)

	return identity, pair, nil
}

// recordFailure counts a failed attempt and reports whether it locked the
// account. The repository applies threshold and lock in one statement, so
// concurrent failures each observe an accurate counter.
func (s *AuthService) recordFailure(ctx context.Context, identity *domain.Identity, now time.Time) error {
	lockUntil := now.Add(s.lockout.Duration)

	result, err := s.identities.RecordLoginFailure(ctx, identity.ID, s.lockout.Threshold, lockUntil, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if result.LockUntil != nil && result.LockUntil.After(now) {
		s.log.Warn("account locked after repeated failures",
			zap.String("identity_id", identity.ID),
			zap.Int("attempts", result.Attempts),
			zap.Time("lock_until", *result.LockUntil),
		)

		if err := s.events.PublishAccountLocked(ctx, domain.AccountLockedEvent{
			EventID:    uuid.NewString(),
			IdentityID: identity.ID,
			Attempts:   result.Attempts,
			LockedAt:   now,
			LockUntil:  *result.LockUntil,
		}); err != nil {
			s.log.Warn("publish lock event failed", zap.Error(err))
		}
	}

	return ErrInvalidCredentials
}

// Refresh validates a refresh token and issues a fresh access token. Roles
// are re-read from the store so revoked or granted roles take effect on the
// next refresh rather than at the old token's expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, int64, error) {
	if refreshToken == "" {
		return "", 0, ErrMissingToken
	}

	identityID, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return "", 0, ErrInvalidToken
	}

	identity, err := s.identities.GetByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", 0, ErrUserNotFound
		}
		return "", 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	accessToken, err := s.tokens.IssueAccessToken(identity.ID, identity.Roles.Strings())
	if err != nil {
		return "", 0, fmt.Errorf("issue access token: %w", err)
	}

	return accessToken, int64(s.tokens.AccessTokenTTL().Seconds()), nil
}

// ParseAccessToken verifies a bearer token for the access guard.
func (s *AuthService) ParseAccessToken(tokenString string) (*security.AccessClaims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims, err := s.tokens.ParseAccessToken(tokenString)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, ErrInvalidToken
		}
	}

	return claims, nil
}

// GetIdentity loads an identity by ID for authenticated flows.
func (s *AuthService) GetIdentity(ctx context.Context, id string) (*domain.Identity, error) {
	identity, err := s.identities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return identity, nil
}

func (s *AuthService) issueTokens(identity *domain.Identity) (*TokenPair, error) {
	accessToken, err := s.tokens.IssueAccessToken(identity.ID, identity.Roles.Strings())
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, err := s.tokens.IssueRefreshToken(identity.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.AccessTokenTTL().Seconds()),
	}, nil
}
