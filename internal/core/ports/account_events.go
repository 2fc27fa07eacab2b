package ports

import (
	"context"
	"time"
)

// AccountEventType names an account lifecycle event.
type AccountEventType string

const (
	EventUserRegistered AccountEventType = "user.registered"
	EventUserLoggedIn   AccountEventType = "user.logged_in"
)

// AccountEvent is emitted after a successful registration or login.
type AccountEvent struct {
	Type       AccountEventType `json:"type"`
	UserID     string           `json:"user_id"`
	Username   string           `json:"username"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// EventSink accepts events for asynchronous delivery. Enqueue must not block.
type EventSink interface {
	Enqueue(event AccountEvent)
}

// EventPublisher delivers a single event to its destination.
type EventPublisher interface {
	Publish(ctx context.Context, event AccountEvent) error
}
