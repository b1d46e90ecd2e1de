package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/valepallet/vpallet/internal/application/port"
	"github.com/valepallet/vpallet/internal/domain/event"
)

// DefaultTopic receives every forwarded voucher event
const DefaultTopic = "vpallet.events"

// Config selects the broker. An empty RedisAddr keeps events in process.
type Config struct {
	RedisAddr string
	Topic     string
}

// EventPublisher publishes domain events as JSON watermill messages
type EventPublisher struct {
	pub    message.Publisher
	topic  string
	closer func() error
	logger *zap.Logger
}

// NewPublisher builds the broker publisher described by cfg. With Redis the
// connection is checked before returning.
func NewPublisher(ctx context.Context, cfg Config, logger *zap.Logger) (*EventPublisher, error) {
	wlogger := NewZapLoggerAdapter(logger.Named("watermill"))
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	if cfg.RedisAddr == "" {
		ch := gochannel.NewGoChannel(gochannel.Config{}, wlogger)
		return NewEventPublisher(ch, topic, logger), nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
	}

	pub, err := redisstream.NewPublisher(redisstream.PublisherConfig{Client: rdb}, wlogger)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to create redis stream publisher: %w", err)
	}

	p := NewEventPublisher(pub, topic, logger)
	p.closer = func() error {
		pubErr := pub.Close()
		if err := rdb.Close(); err != nil {
			return err
		}
		return pubErr
	}
	logger.Info("Publishing events to redis stream",
		zap.String("addr", cfg.RedisAddr),
		zap.String("topic", topic))
	return p, nil
}

// NewEventPublisher wraps an existing watermill publisher
func NewEventPublisher(pub message.Publisher, topic string, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{pub: pub, topic: topic, closer: pub.Close, logger: logger}
}

// Publish marshals evt and sends it to the configured topic
func (p *EventPublisher) Publish(ctx context.Context, evt *event.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	id := evt.ID
	if id == "" {
		id = watermill.NewUUID()
	}
	msg := message.NewMessage(id, payload)
	msg.Metadata.Set("type", evt.Type.String())
	msg.Metadata.Set("voucher_id", evt.VoucherID)
	msg.Metadata.Set("tenant_id", evt.TenantID)
	msg.SetContext(ctx)

	if err := p.pub.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", evt.Type, err)
	}

	p.logger.Debug("Event published",
		zap.String("topic", p.topic),
		zap.String("event_type", evt.Type.String()),
		zap.String("event_id", id))
	return nil
}

// Topic returns the destination topic
func (p *EventPublisher) Topic() string {
	return p.topic
}

// Close releases the publisher and, for Redis, the client
func (p *EventPublisher) Close() error {
	return p.closer()
}

var _ port.EventPublisher = (*EventPublisher)(nil)
