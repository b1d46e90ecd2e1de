package dispatcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/valepallet/vpallet/internal/domain/event"
)

type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

type ctxKey struct{}

func newIssued() *event.Event {
	return event.NewEvent(event.TypeVoucherIssued, "v-1", "t-1", time.Now(), nil)
}

func TestSubscribe_DefaultNames(t *testing.T) {
	d := NewDispatcher()
	noop := func(ctx context.Context, evt *event.Event) error { return nil }

	d.Subscribe(event.TypeVoucherIssued, "", noop)
	d.Subscribe(event.TypeVoucherIssued, "audit", noop)

	handlers := d.ListHandlers(event.TypeVoucherIssued)
	if len(handlers) != 2 {
		t.Fatalf("expected 2 handlers, got %d", len(handlers))
	}
	if handlers[0].Name != "handler-0" || handlers[1].Name != "audit" {
		t.Errorf("unexpected names: %q, %q", handlers[0].Name, handlers[1].Name)
	}
	if handlers[0].Handler != nil {
		t.Error("ListHandlers should not expose handler functions")
	}
}

func TestUnsubscribe(t *testing.T) {
	d := NewDispatcher()
	var called atomic.Int32
	d.Subscribe(event.TypeVoucherIssued, "counter", func(ctx context.Context, evt *event.Event) error {
		called.Add(1)
		return nil
	})

	d.Unsubscribe(event.TypeVoucherIssued, "counter")

	if err := d.Dispatch(context.Background(), newIssued()); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if called.Load() != 0 {
		t.Error("unsubscribed handler was called")
	}
}

func TestDispatch(t *testing.T) {
	t.Run("runs type handlers before wildcard handlers", func(t *testing.T) {
		d := NewDispatcher()
		var order []string

		d.Subscribe(AllEvents, "all", func(ctx context.Context, evt *event.Event) error {
			order = append(order, "all")
			return nil
		})
		d.Subscribe(event.TypeVoucherIssued, "issued", func(ctx context.Context, evt *event.Event) error {
			order = append(order, "issued")
			return nil
		})
		d.Subscribe(event.TypeVoucherExited, "exited", func(ctx context.Context, evt *event.Event) error {
			order = append(order, "exited")
			return nil
		})

		if err := d.Dispatch(context.Background(), newIssued()); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
		if len(order) != 2 || order[0] != "issued" || order[1] != "all" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("stops at first error", func(t *testing.T) {
		d := NewDispatcher()
		expected := errors.New("handler error")
		called := false

		d.Subscribe(event.TypeVoucherIssued, "failing", func(ctx context.Context, evt *event.Event) error {
			return expected
		})
		d.Subscribe(event.TypeVoucherIssued, "second", func(ctx context.Context, evt *event.Event) error {
			called = true
			return nil
		})

		err := d.Dispatch(context.Background(), newIssued())
		if !errors.Is(err, expected) {
			t.Errorf("expected error to wrap %v, got %v", expected, err)
		}
		if called {
			t.Error("second handler should not run after an error")
		}
	})

	t.Run("recovers from handler panic", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		d.Subscribe(event.TypeVoucherIssued, "panics", func(ctx context.Context, evt *event.Event) error {
			panic("boom")
		})

		if err := d.Dispatch(context.Background(), newIssued()); err == nil {
			t.Fatal("expected error from panic recovery")
		}
		if logger.ErrorCount() == 0 {
			t.Error("expected the failure to be logged")
		}
	})

	t.Run("closed dispatcher rejects events", func(t *testing.T) {
		d := NewDispatcher()
		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
		if err := d.Dispatch(context.Background(), newIssued()); !errors.Is(err, ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
		if err := d.Close(); err == nil {
			t.Error("second Close should fail")
		}
	})
}

func TestDispatchAsync_SurvivesCancelledRequest(t *testing.T) {
	d := NewDispatcher()
	var (
		mu       sync.Mutex
		ctxErr   error
		ctxValue interface{}
	)

	d.Subscribe(AllEvents, "capture", func(ctx context.Context, evt *event.Event) error {
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		defer mu.Unlock()
		ctxErr = ctx.Err()
		ctxValue = ctx.Value(ctxKey{})
		return nil
	})

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "req-1"))
	d.DispatchAsync(ctx, newIssued())
	cancel()

	if err := d.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if ctxErr != nil {
		t.Errorf("handler saw cancelled context: %v", ctxErr)
	}
	if ctxValue != "req-1" {
		t.Errorf("handler lost context value, got %v", ctxValue)
	}
}

func TestDispatchAsync_Concurrent(t *testing.T) {
	d := NewDispatcher()
	var count atomic.Int32
	d.Subscribe(event.TypeVoucherExited, "count", func(ctx context.Context, evt *event.Event) error {
		count.Add(1)
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.DispatchAsync(context.Background(), event.NewEvent(event.TypeVoucherExited, "v", "t", time.Now(), nil))
		}()
	}
	wg.Wait()

	if err := d.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if count.Load() != 50 {
		t.Errorf("expected 50 handler calls, got %d", count.Load())
	}
}
