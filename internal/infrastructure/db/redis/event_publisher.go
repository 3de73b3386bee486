package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/msvcdojo/accounts-service/internal/core/domain"
)

// DefaultStream is used when no stream name is configured.
const DefaultStream = "account.events"

type streamEvent struct {
	Type      string        `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	Data      streamAccount `json:"data"`
}

type streamAccount struct {
	ID       int64   `json:"id"`
	Username string  `json:"username,omitempty"`
	Role     *string `json:"role"`
}

// StreamPublisher appends account events to a Redis stream. Each entry has a
// single "event" field holding the JSON envelope.
type StreamPublisher struct {
	client *redis.Client
	stream string
}

func NewStreamPublisher(client *redis.Client, stream string) *StreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &StreamPublisher{client: client, stream: stream}
}

func (p *StreamPublisher) Publish(ctx context.Context, event domain.AccountEvent) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{"event": payload},
	}
	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("publish %s to %s: %w", event.Type, p.stream, err)
	}
	return nil
}

func encodeEvent(event domain.AccountEvent) ([]byte, error) {
	ts := event.OccurredAt
	if ts.IsZero() {
		ts = time.Now()
	}
	payload, err := json.Marshal(streamEvent{
		Type:      string(event.Type),
		Timestamp: ts.UTC(),
		Data: streamAccount{
			ID:       event.AccountID,
			Username: event.Username,
			Role:     event.Role,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	return payload, nil
}
