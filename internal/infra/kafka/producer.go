package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuspoint/auth-service/internal/core/domain"
	"github.com/campuspoint/auth-service/internal/core/port"
	"github.com/campuspoint/auth-service/internal/infra/config"
)

// Producer publishes domain events through an async Sarama producer.
// Delivery failures are logged, never surfaced to the request path.
type Producer struct {
	producer    sarama.AsyncProducer
	topicPrefix string
	log         *zap.Logger
}

var _ port.EventPublisher = (*Producer)(nil)

func NewProducer(cfg config.KafkaSettings, log *zap.Logger) (*Producer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.RequiredAcks = sarama.WaitForLocal
	saramaCfg.Producer.Compression = sarama.CompressionSnappy
	saramaCfg.Producer.Flush.Frequency = 500 * time.Millisecond
	saramaCfg.Producer.Return.Errors = true
	saramaCfg.Producer.Return.Successes = false

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	p := &Producer{
		producer:    producer,
		topicPrefix: cfg.TopicPrefix,
		log:         log,
	}

	go p.drainErrors()

	log.Info("kafka producer started",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic_prefix", cfg.TopicPrefix),
	)

	return p, nil
}

func (p *Producer) drainErrors() {
	for err := range p.producer.Errors() {
		p.log.Error("kafka publish failed",
			zap.String("topic", err.Msg.Topic),
			zap.Error(err.Err),
		)
	}
}

func (p *Producer) publish(topic, identityID string, payload interface{}) error {
	envelope := EventEnvelope{
		EventID:    uuid.NewString(),
		EventType:  topic,
		IdentityID: identityID,
		Timestamp:  time.Now().UTC(),
		Version:    envelopeVersion,
		Payload:    payload,
	}

	value, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	p.producer.Input() <- &sarama.ProducerMessage{
		Topic: p.topicPrefix + "." + topic,
		Key:   sarama.StringEncoder(identityID),
		Value: sarama.ByteEncoder(value),
	}

	return nil
}

func (p *Producer) PublishIdentityRegistered(_ context.Context, event domain.IdentityRegisteredEvent) error {
	return p.publish(TopicIdentityRegistered, event.IdentityID, event)
}

func (p *Producer) PublishLoginSucceeded(_ context.Context, event domain.LoginSucceededEvent) error {
	return p.publish(TopicLoginSucceeded, event.IdentityID, event)
}

func (p *Producer) PublishAccountLocked(_ context.Context, event domain.AccountLockedEvent) error {
	return p.publish(TopicAccountLocked, event.IdentityID, event)
}

func (p *Producer) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	return p.publish(TopicPasswordResetRequested, event.IdentityID, event)
}

func (p *Producer) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	return p.publish(TopicPasswordChanged, event.IdentityID, event)
}

func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	p.log.Info("kafka producer closed")
	return nil
}
