package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
)

// RunAuditLog writes one structured log line per catalog event received on
// messages. It returns once the channel is closed.
func RunAuditLog(messages <-chan *message.Message, logger *slog.Logger) {
	for msg := range messages {
		var event struct {
			Type string         `json:"type"`
			Data PaperEventData `json:"data"`
		}
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			logger.Warn("Discarding malformed event", "message_id", msg.UUID, "error", err)
			msg.Ack()
			continue
		}

		logger.Info("Catalog event",
			"event_id", msg.UUID,
			"event_type", event.Type,
			"paper_id", event.Data.PaperID,
			"admin_id", event.Data.AdminID,
		)
		msg.Ack()
	}
}

// StartAuditLog subscribes to topic and runs RunAuditLog in the background
func StartAuditLog(ctx context.Context, subscriber message.Subscriber, topic string, logger *slog.Logger) error {
	if topic == "" {
		topic = DefaultTopic
	}
	messages, err := subscriber.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe audit log to %s: %w", topic, err)
	}
	go RunAuditLog(messages, logger.With("component", "audit_log"))
	return nil
}
