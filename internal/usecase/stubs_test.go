package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/campuspoint/auth-service/internal/core/domain"
	"github.com/campuspoint/auth-service/internal/core/port"
	"github.com/campuspoint/auth-service/internal/repository"
)

// stubIdentityRepo is an in-memory port.IdentityRepository for service tests.
type stubIdentityRepo struct {
	mu         sync.Mutex
	byID       map[string]*domain.Identity
	failCreate error
}

var _ port.IdentityRepository = (*stubIdentityRepo)(nil)

func newStubIdentityRepo(identities ...domain.Identity) *stubIdentityRepo {
	repo := &stubIdentityRepo{byID: make(map[string]*domain.Identity)}
	for i := range identities {
		identity := identities[i]
		repo.byID[identity.ID] = &identity
	}
	return repo
}

func (r *stubIdentityRepo) Create(_ context.Context, identity domain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failCreate != nil {
		return r.failCreate
	}
	for _, existing := range r.byID {
		if existing.Email == identity.Email {
			return repository.ErrDuplicate
		}
	}
	r.byID[identity.ID] = &identity
	return nil
}

func (r *stubIdentityRepo) GetByID(_ context.Context, id string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *identity
	return &clone, nil
}

func (r *stubIdentityRepo) GetByEmail(_ context.Context, email string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, identity := range r.byID {
		if identity.Email == email {
			clone := *identity
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubIdentityRepo) List(_ context.Context, filter port.IdentityFilter) ([]domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Identity
	for _, identity := range r.byID {
		if filter.Role != "" && !identity.Roles.Contains(domain.Role(filter.Role)) {
			continue
		}
		if filter.IsActive != nil && identity.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, *identity)
	}
	return out, nil
}

func (r *stubIdentityRepo) Count(ctx context.Context, filter port.IdentityFilter) (int, error) {
	identities, err := r.List(ctx, filter)
	return len(identities), err
}

func (r *stubIdentityRepo) RecordLoginFailure(_ context.Context, id string, threshold int, lockUntil time.Time, _ time.Time) (port.LockoutResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.byID[id]
	if !ok {
		return port.LockoutResult{}, repository.ErrNotFound
	}

	identity.LoginAttempts++
	if identity.LoginAttempts >= threshold {
		lock := lockUntil
		identity.LockUntil = &lock
	}

	return port.LockoutResult{
		Attempts:  identity.LoginAttempts,
		LockUntil: identity.LockUntil,
	}, nil
}

func (r *stubIdentityRepo) RecordLoginSuccess(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	identity.LoginAttempts = 0
	identity.LockUntil = nil
	last := at
	identity.LastLogin = &last
	return nil
}

func (r *stubIdentityRepo) UpdatePassword(_ context.Context, id string, passwordHash string, changedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	identity.PasswordHash = passwordHash
	identity.LoginAttempts = 0
	identity.LockUntil = nil
	identity.UpdatedAt = changedAt
	return nil
}

func (r *stubIdentityRepo) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	identity.IsActive = active
	return nil
}

func (r *stubIdentityRepo) SetVerified(_ context.Context, id string, verified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	identity.IsVerified = verified
	return nil
}

// stubResetRepo is an in-memory port.ResetTokenRepository.
type stubResetRepo struct {
	mu     sync.Mutex
	byHash map[string]*domain.PasswordResetToken
}

var _ port.ResetTokenRepository = (*stubResetRepo)(nil)

func newStubResetRepo() *stubResetRepo {
	return &stubResetRepo{byHash: make(map[string]*domain.PasswordResetToken)}
}

func (r *stubResetRepo) Create(_ context.Context, token domain.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byHash[token.TokenHash] = &token
	return nil
}

func (r *stubResetRepo) GetByHash(_ context.Context, hash string) (*domain.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.byHash[hash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *token
	return &clone, nil
}

func (r *stubResetRepo) Consume(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, token := range r.byHash {
		if token.ID == id {
			if token.UsedAt != nil {
				return repository.ErrNotFound
			}
			now := time.Now()
			token.UsedAt = &now
			return nil
		}
	}
	return repository.ErrNotFound
}

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu         sync.Mutex
	registered []domain.IdentityRegisteredEvent
	logins     []domain.LoginSucceededEvent
	locks      []domain.AccountLockedEvent
	resets     []domain.PasswordResetRequestedEvent
	changes    []domain.PasswordChangedEvent
}

var _ port.EventPublisher = (*recordingPublisher)(nil)

func (p *recordingPublisher) PublishIdentityRegistered(_ context.Context, event domain.IdentityRegisteredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registered = append(p.registered, event)
	return nil
}

func (p *recordingPublisher) PublishLoginSucceeded(_ context.Context, event domain.LoginSucceededEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logins = append(p.logins, event)
	return nil
}

func (p *recordingPublisher) PublishAccountLocked(_ context.Context, event domain.AccountLockedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.locks = append(p.locks, event)
	return nil
}

func (p *recordingPublisher) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resets = append(p.resets, event)
	return nil
}

func (p *recordingPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, event)
	return nil
}
