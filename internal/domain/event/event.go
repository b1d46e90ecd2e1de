package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is a fact about a voucher, emitted after the change is committed
type Event struct {
	ID        string                 `json:"id"`
	Type      Type                   `json:"type"`
	VoucherID string                 `json:"voucher_id"`
	TenantID  string                 `json:"tenant_id"`
	Actor     string                 `json:"actor,omitempty"`
	Payload   map[string]interface{} `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewEvent creates an event with a fresh ID
func NewEvent(eventType Type, voucherID, tenantID string, at time.Time, payload map[string]interface{}) *Event {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		VoucherID: voucherID,
		TenantID:  tenantID,
		Payload:   payload,
		Timestamp: at,
	}
}

// WithActor returns a copy attributed to the given user
func (e *Event) WithActor(actor string) *Event {
	cp := *e
	cp.Actor = actor
	return &cp
}

// WithPayload returns a copy with an added payload key
func (e *Event) WithPayload(key string, value interface{}) *Event {
	payload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		payload[k] = v
	}
	payload[key] = value

	cp := *e
	cp.Payload = payload
	return &cp
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if s, ok := e.Payload[key].(string); ok {
		return s
	}
	return ""
}

// GetPayloadInt retrieves an integer value from the payload, accepting JSON numbers
func (e *Event) GetPayloadInt(key string) int64 {
	switch v := e.Payload[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}
