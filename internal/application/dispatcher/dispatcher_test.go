package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/garyjia/doc-approval/internal/domain/event"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu      sync.Mutex
	infos   []string
	errors  []string
	entries []map[string]interface{}
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)

	entry := map[string]interface{}{"msg": msg}
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			entry[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
		}
	}
	m.entries = append(m.entries, entry)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)

	entry := map[string]interface{}{"msg": msg, "level": "error"}
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			entry[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
		}
	}
	m.entries = append(m.entries, entry)
}

func (m *mockLogger) InfoCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.infos)
}

func (m *mockLogger) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func (m *mockLogger) HasInfo(msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, info := range m.infos {
		if info == msg {
			return true
		}
	}
	return false
}

func newTestEvent(eventType event.Type) *event.Event {
	return event.NewEvent(eventType, "doc-1", "DOC/2025/001", "user-1", nil)
}

func TestNewDispatcher(t *testing.T) {
	t.Run("creates dispatcher without logger", func(t *testing.T) {
		if d := NewDispatcher(); d == nil {
			t.Fatal("expected non-nil dispatcher")
		}
	})

	t.Run("creates dispatcher with logger", func(t *testing.T) {
		if d := NewDispatcher(WithLogger(&mockLogger{})); d == nil {
			t.Fatal("expected non-nil dispatcher")
		}
	})
}

func TestSubscribe(t *testing.T) {
	t.Run("subscribes multiple handlers to same event type", func(t *testing.T) {
		d := NewDispatcher()
		var calls []string

		d.Subscribe(event.TypeDocumentSubmitted, func(ctx context.Context, evt *event.Event) error {
			calls = append(calls, "first")
			return nil
		})
		d.Subscribe(event.TypeDocumentSubmitted, func(ctx context.Context, evt *event.Event) error {
			calls = append(calls, "second")
			return nil
		})

		if err := d.Dispatch(context.Background(), newTestEvent(event.TypeDocumentSubmitted)); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
		if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
			t.Errorf("handlers called = %v, want [first second]", calls)
		}

		handlers := d.ListHandlers(event.TypeDocumentSubmitted)
		if len(handlers) != 2 || handlers[0].Name != "handler-0" || handlers[1].Name != "handler-1" {
			t.Errorf("unexpected handler names: %+v", handlers)
		}
	})

	t.Run("does not call handlers of other event types", func(t *testing.T) {
		d := NewDispatcher()
		called := false
		d.Subscribe(event.TypeDocumentApproved, func(ctx context.Context, evt *event.Event) error {
			called = true
			return nil
		})

		if err := d.Dispatch(context.Background(), newTestEvent(event.TypeDocumentRejected)); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
		if called {
			t.Error("handler for a different event type should not run")
		}
	})
}

func TestSubscribeMany(t *testing.T) {
	d := NewDispatcher()
	var seen []event.Type
	d.SubscribeMany([]event.Type{event.TypeDocumentApproved, event.TypeDocumentRejected}, "notifier", func(ctx context.Context, evt *event.Event) error {
		seen = append(seen, evt.Type)
		return nil
	})

	_ = d.Dispatch(context.Background(), newTestEvent(event.TypeDocumentApproved))
	_ = d.Dispatch(context.Background(), newTestEvent(event.TypeDocumentRejected))

	if len(seen) != 2 {
		t.Fatalf("expected 2 deliveries, got %v", seen)
	}
	if got := d.ListHandlers(event.TypeDocumentRejected); len(got) != 1 || got[0].Name != "notifier" {
		t.Errorf("unexpected handlers: %+v", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	d := NewDispatcher(WithLogger(&mockLogger{}))
	var calls []string
	d.SubscribeNamed(event.TypeStepApproved, "keep", func(ctx context.Context, evt *event.Event) error {
		calls = append(calls, "keep")
		return nil
	})
	d.SubscribeNamed(event.TypeStepApproved, "drop", func(ctx context.Context, evt *event.Event) error {
		calls = append(calls, "drop")
		return nil
	})

	d.Unsubscribe(event.TypeStepApproved, "drop")

	if err := d.Dispatch(context.Background(), newTestEvent(event.TypeStepApproved)); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if len(calls) != 1 || calls[0] != "keep" {
		t.Errorf("handlers called = %v, want [keep]", calls)
	}
}

func TestDispatch(t *testing.T) {
	t.Run("returns first error encountered", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		secondCalled := false
		boom := errors.New("boom")

		d.SubscribeNamed(event.TypeDocumentCreated, "failing", func(ctx context.Context, evt *event.Event) error {
			return boom
		})
		d.SubscribeNamed(event.TypeDocumentCreated, "after", func(ctx context.Context, evt *event.Event) error {
			secondCalled = true
			return nil
		})

		err := d.Dispatch(context.Background(), newTestEvent(event.TypeDocumentCreated))
		if !errors.Is(err, boom) {
			t.Fatalf("expected wrapped boom error, got %v", err)
		}
		if secondCalled {
			t.Error("handlers after a failure should not run")
		}
		if logger.ErrorCount() != 1 {
			t.Errorf("expected 1 error log, got %d", logger.ErrorCount())
		}
	})

	t.Run("recovers from handler panic", func(t *testing.T) {
		d := NewDispatcher(WithLogger(&mockLogger{}))
		d.Subscribe(event.TypeDocumentCreated, func(ctx context.Context, evt *event.Event) error {
			panic("handler exploded")
		})

		err := d.Dispatch(context.Background(), newTestEvent(event.TypeDocumentCreated))
		if err == nil {
			t.Fatal("expected error from panicking handler")
		}
	})

	t.Run("returns error when dispatcher is closed", func(t *testing.T) {
		d := NewDispatcher()
		_ = d.Close()

		if err := d.Dispatch(context.Background(), newTestEvent(event.TypeDocumentCreated)); err == nil {
			t.Error("expected error after close")
		}
	})
}

func TestDispatchAsync(t *testing.T) {
	t.Run("dispatches to handlers asynchronously", func(t *testing.T) {
		d := NewDispatcher()
		var count atomic.Int32

		for i := 0; i < 3; i++ {
			d.Subscribe(event.TypeStepRejected, func(ctx context.Context, evt *event.Event) error {
				count.Add(1)
				return nil
			})
		}

		d.DispatchAsync(context.Background(), newTestEvent(event.TypeStepRejected))
		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		if got := count.Load(); got != 3 {
			t.Errorf("expected 3 handler calls, got %d", got)
		}
	})

	t.Run("handlers ignore cancellation of the dispatching context", func(t *testing.T) {
		d := NewDispatcher()
		var ctxErr atomic.Value

		d.Subscribe(event.TypeDocumentApproved, func(ctx context.Context, evt *event.Event) error {
			time.Sleep(10 * time.Millisecond)
			ctxErr.Store(fmt.Sprint(ctx.Err()))
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		d.DispatchAsync(ctx, newTestEvent(event.TypeDocumentApproved))
		cancel()
		_ = d.Close()

		if got := ctxErr.Load(); got != "<nil>" {
			t.Errorf("handler context error = %v, want <nil>", got)
		}
	})

	t.Run("recovers from handler panic asynchronously", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		d.Subscribe(event.TypeDocumentRejected, func(ctx context.Context, evt *event.Event) error {
			panic("async explosion")
		})

		d.DispatchAsync(context.Background(), newTestEvent(event.TypeDocumentRejected))
		_ = d.Close()

		if logger.ErrorCount() == 0 {
			t.Error("expected panic to be logged")
		}
	})

	t.Run("does not dispatch when dispatcher is closed", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		called := false
		d.Subscribe(event.TypeDocumentCreated, func(ctx context.Context, evt *event.Event) error {
			called = true
			return nil
		})
		_ = d.Close()

		d.DispatchAsync(context.Background(), newTestEvent(event.TypeDocumentCreated))

		if called {
			t.Error("handler should not run after close")
		}
		if !logger.HasInfo("Dispatcher closed") {
			t.Error("expected close to be logged")
		}
	})
}

func TestClose(t *testing.T) {
	t.Run("returns error on double close", func(t *testing.T) {
		d := NewDispatcher()
		if err := d.Close(); err != nil {
			t.Fatalf("first close failed: %v", err)
		}
		if err := d.Close(); err == nil {
			t.Error("expected error on second close")
		}
	})
}

func TestConcurrency(t *testing.T) {
	d := NewDispatcher()
	var count atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d.SubscribeNamed(event.TypeStepApproved, fmt.Sprintf("h-%d", i), func(ctx context.Context, evt *event.Event) error {
				count.Add(1)
				return nil
			})
		}(i)
	}
	wg.Wait()

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.DispatchAsync(context.Background(), newTestEvent(event.TypeStepApproved))
		}()
	}
	wg.Wait()
	_ = d.Close()

	if got := count.Load(); got != 100 {
		t.Errorf("expected 100 handler calls, got %d", got)
	}
}
