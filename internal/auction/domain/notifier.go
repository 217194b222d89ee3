package domain

//go:generate mockgen -source=notifier.go -destination=mock_notifier.go -package=domain

import (
	"context"

	"github.com/google/uuid"
)

// Notifier delivers a single event to a user. Implementations may block,
// the dispatcher calls them outside of any transaction.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, eventType EventType, payload Event) error
}

// EventPublisher hands committed events over to asynchronous delivery.
// Publish must not block on delivery.
type EventPublisher interface {
	Publish(events Events)
}

// DiscardPublisher drops every event
type DiscardPublisher struct{}

func (DiscardPublisher) Publish(Events) {}
