package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Backends accepted by NewEventPublisher
const (
	BackendKafka     = "kafka"
	BackendGoChannel = "gochannel"
	BackendNone      = "none"
)

// PublisherConfig selects and configures the event backend
type PublisherConfig struct {
	Backend string
	Brokers []string
	Topic   string
}

// WatermillEventPublisher marshals events to JSON and hands them to a
// watermill publisher
type WatermillEventPublisher struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
}

func NewWatermillEventPublisher(publisher message.Publisher, topic string, logger *slog.Logger) *WatermillEventPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &WatermillEventPublisher{
		publisher: publisher,
		topic:     topic,
		logger:    logger,
	}
}

// NewEventPublisher builds the publisher for the configured backend
func NewEventPublisher(cfg PublisherConfig, logger *slog.Logger) (EventPublisher, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch strings.ToLower(cfg.Backend) {
	case BackendKafka:
		if len(cfg.Brokers) == 0 {
			return nil, fmt.Errorf("kafka backend requires at least one broker")
		}
		publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
			Brokers:   cfg.Brokers,
			Marshaler: kafka.DefaultMarshaler{},
		}, wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
		}
		return NewWatermillEventPublisher(publisher, cfg.Topic, logger), nil

	case BackendGoChannel, "":
		// In-process delivery feeds the audit log
		pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, wmLogger)
		if err := StartAuditLog(context.Background(), pubSub, cfg.Topic, logger); err != nil {
			pubSub.Close()
			return nil, err
		}
		return NewWatermillEventPublisher(pubSub, cfg.Topic, logger), nil

	case BackendNone:
		return NoopEventPublisher{}, nil

	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

func (p *WatermillEventPublisher) Publish(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", event.Type)
	msg.Metadata.Set("source", event.Source)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.Type, err)
	}

	p.logger.DebugContext(ctx, "Event published", "event_id", event.ID, "event_type", event.Type, "topic", p.topic)
	return nil
}

func (p *WatermillEventPublisher) Close() error {
	return p.publisher.Close()
}

// NoopEventPublisher drops every event
type NoopEventPublisher struct{}

func (NoopEventPublisher) Publish(context.Context, *Event) error { return nil }
func (NoopEventPublisher) Close() error                          { return nil }
