package port

import (
	"context"
	"time"

	"github.com/valepallet/vpallet/internal/domain/entity"
	"github.com/valepallet/vpallet/internal/domain/event"
)

// QREncoder renders QR content as a PNG image. Encoding is deterministic.
type QREncoder interface {
	Encode(content string) ([]byte, error)
}

// TokenGenerator draws voucher security tokens
type TokenGenerator interface {
	NewToken() (string, error)
}

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

// Now calls f
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns the wall clock
var SystemClock Clock = ClockFunc(time.Now)

// EventPublisher forwards domain events to a message broker
type EventPublisher interface {
	Publish(ctx context.Context, evt *event.Event) error
	Close() error
}

// TokenIssuer signs and verifies bearer tokens carrying a principal
type TokenIssuer interface {
	Issue(p entity.Principal) (token string, expiresAt time.Time, err error)
	Parse(token string) (entity.Principal, error)
}

// PasswordHasher hashes and checks operator passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
