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

// RegistrationPolicy tunes account admission.
type RegistrationPolicy struct {
	// AllowPrivilegedSelfRegistration permits platform_admin and sub_admin
	// in the requested role list. When false those roles are silently
	// replaced with the default role.
	AllowPrivilegedSelfRegistration bool
}

// RegistrationInput carries the raw registration request.
type RegistrationInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Roles     []string
}

// RegistrationService creates new identities.
type RegistrationService struct {
	identities port.IdentityRepository
	hasher     *security.PasswordHasher
	tokens     *security.TokenManager
	validator  *security.PasswordValidator
	events     port.EventPublisher
	policy     RegistrationPolicy
	log        *zap.Logger
	now        func() time.Time
}

func NewRegistrationService(
	identities port.IdentityRepository,
	hasher *security.PasswordHasher,
	tokens *security.TokenManager,
	validator *security.PasswordValidator,
	events port.EventPublisher,
	policy RegistrationPolicy,
	log *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		identities: identities,
		hasher:     hasher,
		tokens:     tokens,
		validator:  validator,
		events:     events,
		policy:     policy,
		log:        log,
		now:        time.Now,
	}
}

// Register validates input, hashes the password, and stores a new identity.
// The new account starts unverified and active, and receives a token pair so
// the client can proceed without a second login round trip.
func (s *RegistrationService) Register(ctx context.Context, input RegistrationInput) (*domain.Identity, *TokenPair, error) {
	email := domain.NormalizeEmail(input.Email)
	if !domain.ValidEmail(email) {
		return nil, nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if input.FirstName == "" || input.LastName == "" {
		return nil, nil, fmt.Errorf("%w: first and last name are required", ErrValidation)
	}
	if err := s.validator.Validate(input.Password); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	roles, err := domain.ParseRoleSet(input.Roles)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if roles.HasPrivileged() && !s.policy.AllowPrivilegedSelfRegistration {
		s.log.Warn("privileged self-registration downgraded",
			zap.String("email", logger.MaskEmail(email)),
			zap.Strings("requested_roles", roles.Strings()),
		)
		roles = domain.DefaultRoleSet()
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	identity := domain.Identity{
		ID:           uuid.NewString(),
		Email:        email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: hash,
		Roles:        roles,
		IsVerified:   false,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, ErrDuplicateEmail
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	accessToken, err := s.tokens.IssueAccessToken(identity.ID, roles.Strings())
	if err != nil {
		return nil, nil, fmt.Errorf("issue access token: %w", err)
	}
	refreshToken, err := s.tokens.IssueRefreshToken(identity.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("issue refresh token: %w", err)
	}

	if err := s.events.PublishIdentityRegistered(ctx, domain.IdentityRegisteredEvent{
		EventID:      uuid.NewString(),
		IdentityID:   identity.ID,
		Email:        identity.Email,
		Roles:        roles.Strings(),
		RegisteredAt: now,
	}); err != nil {
		s.log.Warn("publish registration event failed", zap.Error(err))
	}

	s.log.Info("identity registered",
		zap.String("identity_id", identity.ID),
		zap.String("email", logger.MaskEmail(identity.Email)),
		zap.Strings("roles", roles.Strings()),
	)

	return &identity, &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.AccessTokenTTL().Seconds()),
	}, nil
}
