package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/valepallet/vpallet/internal/application/dispatcher"
	"github.com/valepallet/vpallet/internal/domain/event"
)

func TestEventPublisher_PublishesJSON(t *testing.T) {
	ch := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer ch.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	messages, err := ch.Subscribe(ctx, DefaultTopic)
	require.NoError(t, err)

	pub := NewEventPublisher(ch, DefaultTopic, zap.NewNop())
	evt := event.NewEvent(event.TypeVoucherExited, "v-1", "t-1",
		time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC),
		map[string]interface{}{"pbr": 10, "chep": 5}).WithActor("u-1")

	go func() {
		assert.NoError(t, pub.Publish(context.Background(), evt))
	}()

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, evt.ID, msg.UUID)
		assert.Equal(t, "voucher.exited", msg.Metadata.Get("type"))
		assert.Equal(t, "v-1", msg.Metadata.Get("voucher_id"))

		var got event.Event
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, "u-1", got.Actor)
		assert.Equal(t, int64(10), got.GetPayloadInt("pbr"))
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}

type failingPublisher struct{}

func (failingPublisher) Publish(string, ...*message.Message) error { return errors.New("broker down") }
func (failingPublisher) Close() error                              { return nil }

func TestRegister_ForwarderErrorsAreReported(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	d := dispatcher.NewDispatcher()
	Register(d, NewEventPublisher(failingPublisher{}, DefaultTopic, zap.NewNop()), zap.New(core))

	handlers := d.ListHandlers(event.TypeVoucherIssued)
	require.Len(t, handlers, 2)
	assert.Equal(t, "audit_log", handlers[0].Name)
	assert.Equal(t, "broker_forwarder", handlers[1].Name)

	err := d.Dispatch(context.Background(), event.NewEvent(event.TypeVoucherIssued, "v-1", "t-1", time.Now(), nil))
	assert.ErrorContains(t, err, "broker down")
	assert.Equal(t, 1, logs.FilterMessage("Voucher event").Len(), "audit log runs before the forwarder")
}

func TestRegister_WithoutBroker(t *testing.T) {
	d := dispatcher.NewDispatcher()
	Register(d, nil, zap.NewNop())
	assert.Len(t, d.ListHandlers(event.TypeVoucherCancelled), 1)
}

func TestNewPublisher_InProcess(t *testing.T) {
	p, err := NewPublisher(context.Background(), Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, DefaultTopic, p.Topic())
	require.NoError(t, p.Publish(context.Background(), event.NewEvent(event.TypeVoucherIssued, "v", "t", time.Now(), nil)))
	assert.NoError(t, p.Close())
}

func TestZapLoggerAdapter(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	adapter := NewZapLoggerAdapter(zap.New(core)).With(watermill.LogFields{"topic": "vpallet.events"})

	adapter.Info("published", watermill.LogFields{"uuid": "m-1"})
	adapter.Error("failed", errors.New("boom"), nil)
	adapter.Trace("trace", nil)

	require.Equal(t, 3, logs.Len())
	first := logs.All()[0]
	assert.Equal(t, "vpallet.events", first.ContextMap()["topic"])
	assert.Equal(t, "m-1", first.ContextMap()["uuid"])
	assert.Equal(t, "boom", logs.All()[1].ContextMap()["error"])
}
