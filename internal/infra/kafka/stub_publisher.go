package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/campuspoint/auth-service/internal/core/domain"
	"github.com/campuspoint/auth-service/internal/core/port"
	"github.com/campuspoint/auth-service/internal/infra/logger"
)

// StubPublisher logs events instead of publishing them. Used when no
// Kafka brokers are configured, typically local development.
type StubPublisher struct {
	log *zap.Logger
}

var _ port.EventPublisher = (*StubPublisher)(nil)

func NewStubPublisher(log *zap.Logger) *StubPublisher {
	return &StubPublisher{log: log}
}

func (s *StubPublisher) PublishIdentityRegistered(_ context.Context, event domain.IdentityRegisteredEvent) error {
	s.log.Info("event: identity registered",
		zap.String("identity_id", event.IdentityID),
		zap.String("email", logger.MaskEmail(event.Email)),
	)
	return nil
}

func (s *StubPublisher) PublishLoginSucceeded(_ context.Context, event domain.LoginSucceededEvent) error {
	s.log.Info("event: login succeeded",
		zap.String("identity_id", event.IdentityID),
	)
	return nil
}

func (s *StubPublisher) PublishAccountLocked(_ context.Context, event domain.AccountLockedEvent) error {
	s.log.Warn("event: account locked",
		zap.String("identity_id", event.IdentityID),
		zap.Int("attempts", event.Attempts),
		zap.Time("lock_until", event.LockUntil),
	)
	return nil
}

func (s *StubPublisher) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	s.log.Info("event: password reset requested",
		zap.String("identity_id", event.IdentityID),
		zap.String("email", logger.MaskEmail(event.Email)),
	)
	return nil
}

func (s *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	s.log.Info("event: password changed",
		zap.String("identity_id", event.IdentityID),
	)
	return nil
}
