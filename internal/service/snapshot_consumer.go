package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-salesbot-be/internal/pkg/logger"
	"ai-salesbot-be/internal/repository/file"
	"ai-salesbot-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	snapshotWriteAttempts = 3
	snapshotRetryBackoff  = 200 * time.Millisecond
)

// SnapshotConsumer drains session snapshots off the message bus and writes
// them to disk, keeping file IO off the request path.
type SnapshotConsumer struct {
	subscriber   message.Subscriber
	snapshotRepo *file.SnapshotRepository
	topic        string
	logger       logger.ILogger
}

func NewSnapshotConsumer(subscriber message.Subscriber, snapshotRepo *file.SnapshotRepository, topic string, log logger.ILogger) *SnapshotConsumer {
	return &SnapshotConsumer{
		subscriber:   subscriber,
		snapshotRepo: snapshotRepo,
		topic:        topic,
		logger:       log,
	}
}

// Consume blocks until ctx is cancelled or the subscription channel closes.
// Every message is acked: a snapshot that cannot be written after retries is
// dropped rather than redelivered forever, the next turn republishes it.
func (c *SnapshotConsumer) Consume(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		return err
	}
	c.logger.Info("snapshot-consumer", "listening for session snapshots", map[string]interface{}{
		"topic": c.topic,
	})
	for msg := range messages {
		c.handle(msg)
		msg.Ack()
	}
	return nil
}

func (c *SnapshotConsumer) handle(msg *message.Message) {
	var sess store.Session
	if err := json.Unmarshal(msg.Payload, &sess); err != nil {
		c.logger.Error("snapshot-consumer", "invalid snapshot payload", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}
	var err error
	for attempt := 1; attempt <= snapshotWriteAttempts; attempt++ {
		if err = c.snapshotRepo.Save(&sess); err == nil {
			return
		}
		time.Sleep(snapshotRetryBackoff * time.Duration(attempt))
	}
	c.logger.Error("snapshot-consumer", "snapshot write failed", map[string]interface{}{
		"session_id": sess.ID,
		"attempts":   snapshotWriteAttempts,
		"error":      err.Error(),
	})
}
