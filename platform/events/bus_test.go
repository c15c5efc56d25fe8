package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

type testEvent struct {
	BaseEvent
}

func (testEvent) EventName() string { return "test.event" }

func TestPublishSyncRunsHandlersInOrder(t *testing.T) {
	bus := NewInMemoryBus(nil)
	var order []int
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		order = append(order, 1)
		return nil
	}))
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		order = append(order, 2)
		return nil
	}))

	if err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestPublishSyncCollectsErrorsAndPanics(t *testing.T) {
	bus := NewInMemoryBus(nil)
	boom := errors.New("boom")
	var after atomic.Bool
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error { return boom }))
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error { panic("bad handler") }))
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		after.Store(true)
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to contain boom, got %v", err)
	}
	if !after.Load() {
		t.Fatal("expected later handlers to run after a failure")
	}
}

func TestPublishIsAsyncAndWaitable(t *testing.T) {
	bus := NewInMemoryBus(nil)
	var calls atomic.Int32
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		calls.Add(1)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, testEvent{})
	cancel()
	bus.Wait()

	if calls.Load() != 1 {
		t.Fatalf("expected one call, got %d", calls.Load())
	}
}
