package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/campuspoint/auth-service/internal/core/domain"
	"github.com/campuspoint/auth-service/internal/core/port"
	"github.com/campuspoint/auth-service/internal/repository"
)

// IdentityService serves identity lookups and administrative state changes.
type IdentityService struct {
	identities port.IdentityRepository
	log        *zap.Logger
}

func NewIdentityService(identities port.IdentityRepository, log *zap.Logger) *IdentityService {
	return &IdentityService{identities: identities, log: log}
}

func (s *IdentityService) Get(ctx context.Context, id string) (*domain.Identity, error) {
	identity, err := s.identities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return identity, nil
}

// ListPage holds one page of identities plus the unpaged total.
type ListPage struct {
	Identities []domain.Identity
	Total      int
}

func (s *IdentityService) List(ctx context.Context, filter port.IdentityFilter) (*ListPage, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	identities, err := s.identities.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	total, err := s.identities.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &ListPage{Identities: identities, Total: total}, nil
}

func (s *IdentityService) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.identities.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.log.Info("identity active flag updated",
		zap.String("identity_id", id),
		zap.Bool("active", active),
	)
	return nil
}

func (s *IdentityService) SetVerified(ctx context.Context, id string, verified bool) error {
	if err := s.identities.SetVerified(ctx, id, verified); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.log.Info("identity verified flag updated",
		zap.String("identity_id", id),
		zap.Bool("verified", verified),
	)
	return nil
}
