package service

import (
	"context"

	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/queue"
)

// EventPublisher receives account events.  *queue.Publisher satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.AccountEvent) error
}

// NopPublisher drops every event.  Used when EVENTS_ENABLED is false.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.AccountEvent) error { return nil }
