package kafka

import "time"

// Topic names carry the configured prefix, "auth" by default.
const (
	TopicIdentityRegistered     = "identity.registered"
	TopicLoginSucceeded         = "login.succeeded"
	TopicAccountLocked          = "account.locked"
	TopicPasswordResetRequested = "password.reset.requested"
	TopicPasswordChanged        = "password.changed"
)

// EventEnvelope is the wire format shared by every published event.
type EventEnvelope struct {
	EventID    string            `json:"event_id"`
	EventType  string            `json:"event_type"`
	IdentityID string            `json:"identity_id"`
	Timestamp  time.Time         `json:"timestamp"`
	Version    string            `json:"version"`
	Payload    interface{}       `json:"payload"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

const envelopeVersion = "1.0"
