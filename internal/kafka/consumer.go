package kafka

import (
	"context"
	"fmt"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"shelf-go/internal/config"
)

// MessageHandler processes one consumed message. Returning nil commits its offset.
type MessageHandler func(ctx context.Context, msg *kafka.Message) error

// MessageConsumer consumes topics as part of a consumer group.
type MessageConsumer interface {
	Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error
	Close()
}

// confluentKafkaConsumer implements MessageConsumer with confluent-kafka-go.
type confluentKafkaConsumer struct {
	consumer *kafka.Consumer
	cfg      config.KafkaConfig
	groupID  string
	logger   *zap.Logger
}

// NewConfluentKafkaConsumer prepares a consumer. The underlying client is
// created by Consume once the group id is known.
func NewConfluentKafkaConsumer(cfg config.KafkaConfig, logger *zap.Logger) MessageConsumer {
	return &confluentKafkaConsumer{cfg: cfg, logger: logger.Named("kafka_consumer")}
}

// Consume blocks until ctx is done or a fatal Kafka error occurs. Offsets
// are committed manually after handler succeeds.
func (c *confluentKafkaConsumer) Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error {
	if len(topics) == 0 {
		return fmt.Errorf("kafka consumer: no topics specified")
	}
	c.groupID = groupID
	log := c.logger.With(zap.String("group_id", groupID))

	configMap := &kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(c.cfg.Brokers, ","),
		"group.id":           groupID,
		"auto.offset.reset":  "latest", // notifications older than the consumer are not worth replaying
		"enable.auto.commit": "false",
		"security.protocol":  c.cfg.Protocol,
	}
	if c.cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", c.cfg.ClientID)
	}

	consumer, err := kafka.NewConsumer(configMap)
	if err != nil {
		return fmt.Errorf("failed to create Kafka consumer for group %s: %w", groupID, err)
	}
	c.consumer = consumer

	if err := c.consumer.SubscribeTopics(topics, nil); err != nil {
		_ = c.consumer.Close()
		c.consumer = nil
		return fmt.Errorf("failed to subscribe to topics %v for group %s: %w", topics, groupID, err)
	}

	log.Info("kafka consumer started", zap.Strings("topics", topics))

	for {
		select {
		case <-ctx.Done():
			log.Info("kafka consumer loop finished")
			return nil
		default:
		}

		ev := c.consumer.Poll(1000)
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			if err := handler(ctx, e); err != nil {
				log.Error("failed to process message",
					zap.String("topic", *e.TopicPartition.Topic),
					zap.String("offset", e.TopicPartition.Offset.String()),
					zap.Error(err))
				continue
			}
			if _, err := c.consumer.CommitMessage(e); err != nil {
				log.Warn("failed to commit offset",
					zap.String("topic", *e.TopicPartition.Topic),
					zap.String("offset", e.TopicPartition.Offset.String()),
					zap.Error(err))
			}
		case kafka.Error:
			log.Error("kafka consumer error",
				zap.Error(e),
				zap.Bool("fatal", e.IsFatal()),
				zap.Bool("retriable", e.IsRetriable()))
			if e.IsFatal() {
				return e
			}
		case kafka.AssignedPartitions:
			log.Info("partitions assigned", zap.Int("count", len(e.Partitions)))
			c.consumer.Assign(e.Partitions)
		case kafka.RevokedPartitions:
			log.Info("partitions revoked", zap.Int("count", len(e.Partitions)))
			c.consumer.Unassign()
		}
	}
}

// Close closes the underlying client, if Consume created one.
func (c *confluentKafkaConsumer) Close() {
	if c.consumer == nil {
		return
	}
	if err := c.consumer.Close(); err != nil {
		c.logger.Error("failed to close kafka consumer", zap.String("group_id", c.groupID), zap.Error(err))
	} else {
		c.logger.Info("kafka consumer closed", zap.String("group_id", c.groupID))
	}
	c.consumer = nil
}
