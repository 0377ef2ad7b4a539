package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType identifies an auth-relevant occurrence worth an audit record.
type EventType string

const (
	EventUserRegistered EventType = "user.registered"
	EventLoginSucceeded EventType = "login.succeeded"
	EventLoginFailed    EventType = "login.failed"
	EventLockout        EventType = "login.lockout"
	EventLogout         EventType = "session.logout"
	EventTokenRefreshed EventType = "token.refreshed"
	EventTokenRevoked   EventType = "token.revoked"
)

// Event is a single audit record published to the event stream.
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Type      EventType         `json:"type"`
	Subject   string            `json:"subject"` // user id or login identifier
	Email     string            `json:"email,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewEvent builds an audit event with a fresh id and timestamp.
func NewEvent(eventType EventType, subject, email string) *Event {
	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Subject:   subject,
		Email:     email,
		CreatedAt: time.Now(),
	}
}

// WithMetadata attaches a key/value pair to the event.
func (e *Event) WithMetadata(key, value string) *Event {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// ToJSON serializes the event for the wire.
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PartitionKey routes all events for one subject to the same partition so
// consumers see them in order.
func (e *Event) PartitionKey() string {
	if e.Subject != "" {
		return e.Subject
	}
	return e.ID.String()
}
