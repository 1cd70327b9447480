package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"shelf-go/internal/metrics"
	"shelf-go/internal/shelftypes"
)

// FriendEventPublisher serializes friend events onto one topic, keyed by recipient.
type FriendEventPublisher struct {
	producer MessageProducer
	topic    string
}

func NewFriendEventPublisher(producer MessageProducer, topic string) *FriendEventPublisher {
	return &FriendEventPublisher{producer: producer, topic: topic}
}

// PublishFriendEvent sends event and records the outcome.
func (p *FriendEventPublisher) PublishFriendEvent(ctx context.Context, event shelftypes.FriendEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal friend event: %w", err)
	}
	if err := p.producer.SendMessage(ctx, p.topic, []byte(event.Key()), payload); err != nil {
		metrics.RecordFriendEvent(string(event.Type), "failed")
		return err
	}
	metrics.RecordFriendEvent(string(event.Type), "sent")
	return nil
}
