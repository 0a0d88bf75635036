package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	eventChannelPrefix = "ps:events:" // ps:events:{event}

	EventStatusCreated = "status_created"
	EventStaleProjects = "stale_projects"
)

// Event is the envelope published on Redis pub/sub.
type Event struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	Published time.Time `json:"published"`
}

// EventPublisher fans domain events out to Redis subscribers.
type EventPublisher struct {
	client *redis.Client
}

func NewEventPublisher(client *redis.Client) *EventPublisher {
	return &EventPublisher{client: client}
}

// Channel returns the pub/sub channel for an event type.
func Channel(eventType string) string {
	return eventChannelPrefix + eventType
}

func (p *EventPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	data, err := json.Marshal(Event{Type: eventType, Payload: payload, Published: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, Channel(eventType), data).Err(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", eventType, err)
	}
	return nil
}
