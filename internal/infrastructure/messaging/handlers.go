package messaging

import (
	"context"

	"go.uber.org/zap"

	"github.com/valepallet/vpallet/internal/application/dispatcher"
	"github.com/valepallet/vpallet/internal/application/port"
	"github.com/valepallet/vpallet/internal/domain/event"
	"github.com/valepallet/vpallet/pkg/utils"
)

// AuditLogHandler writes one structured log line per voucher event
func AuditLogHandler(logger *zap.Logger) dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		utils.LoggerFrom(ctx, logger).Info("Voucher event",
			zap.String("event_type", evt.Type.String()),
			zap.String("event_id", evt.ID),
			zap.String("voucher_id", evt.VoucherID),
			zap.String("tenant_id", evt.TenantID),
			zap.String("actor", evt.Actor),
			zap.Any("payload", evt.Payload))
		return nil
	}
}

// ForwardHandler hands every event to the broker publisher
func ForwardHandler(pub port.EventPublisher) dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		return pub.Publish(ctx, evt)
	}
}

// Register subscribes the audit log and, when pub is set, the broker forwarder to every event
func Register(d dispatcher.Dispatcher, pub port.EventPublisher, logger *zap.Logger) {
	d.Subscribe(dispatcher.AllEvents, "audit_log", AuditLogHandler(logger))
	if pub != nil {
		d.Subscribe(dispatcher.AllEvents, "broker_forwarder", ForwardHandler(pub))
	}
}
