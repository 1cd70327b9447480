package kafkahandlers

import (
	"context"
	"encoding/json"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"shelf-go/internal/shelftypes"
)

// NotificationSink accepts a notification for a connected principal.
type NotificationSink interface {
	Deliver(userID uint, notification shelftypes.Notification)
}

// FriendEventConsumerLogic turns consumed friend events into WebSocket notifications.
type FriendEventConsumerLogic struct {
	sink   NotificationSink
	logger *zap.Logger
}

func NewFriendEventConsumerLogic(sink NotificationSink, logger *zap.Logger) *FriendEventConsumerLogic {
	return &FriendEventConsumerLogic{sink: sink, logger: logger.Named("friend_events")}
}

// HandleFriendEvent is the kafka.MessageHandler for the friend events topic.
// Undecodable or unroutable messages are skipped so they do not block the partition.
func (h *FriendEventConsumerLogic) HandleFriendEvent(ctx context.Context, msg *kafka.Message) error {
	var event shelftypes.FriendEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Warn("skipping undecodable friend event",
			zap.ByteString("key", msg.Key),
			zap.Error(err))
		return nil
	}
	if event.RecipientID == 0 || event.Type == "" {
		h.logger.Warn("skipping friend event without recipient or type", zap.ByteString("value", msg.Value))
		return nil
	}

	h.sink.Deliver(event.RecipientID, shelftypes.NotificationFromEvent(event))
	h.logger.Debug("friend event dispatched",
		zap.String("type", string(event.Type)),
		zap.Uint("recipient_id", event.RecipientID))
	return nil
}
