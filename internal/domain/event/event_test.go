package event

import (
	"testing"
	"time"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"issued", TypeVoucherIssued, true},
		{"exited", TypeVoucherExited, true},
		{"returned", TypeVoucherReturned, true},
		{"cancelled", TypeVoucherCancelled, true},
		{"movement", TypeMovementRegistered, true},
		{"unknown", Type("voucher.lost"), false},
		{"empty", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	e1 := NewEvent(TypeVoucherIssued, "v-1", "t-1", at, nil)
	e2 := NewEvent(TypeVoucherIssued, "v-1", "t-1", at, nil)

	if e1.ID == "" || e1.ID == e2.ID {
		t.Errorf("expected distinct non-empty IDs, got %q and %q", e1.ID, e2.ID)
	}
	if e1.Payload == nil {
		t.Error("payload should never be nil")
	}
	if !e1.Timestamp.Equal(at) {
		t.Errorf("Timestamp = %v, want %v", e1.Timestamp, at)
	}
}

func TestEvent_CopiesDoNotShareState(t *testing.T) {
	original := NewEvent(TypeVoucherExited, "v-1", "t-1", time.Now(), map[string]interface{}{"status": "SAIDA"})

	withPBR := original.WithPayload("pbr", 10)
	withActor := original.WithActor("u-1")

	if _, ok := original.Payload["pbr"]; ok {
		t.Error("WithPayload mutated the original payload")
	}
	if original.Actor != "" {
		t.Error("WithActor mutated the original event")
	}
	if withPBR.GetPayloadInt("pbr") != 10 {
		t.Errorf("GetPayloadInt() = %d, want 10", withPBR.GetPayloadInt("pbr"))
	}
	if withActor.GetPayloadString("status") != "SAIDA" {
		t.Errorf("GetPayloadString() = %q", withActor.GetPayloadString("status"))
	}
	if withPBR.GetPayloadString("missing") != "" || withPBR.GetPayloadInt("status") != 0 {
		t.Error("missing or mistyped keys should yield zero values")
	}
}
