package events

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDispatcher_FailingHandlerDoesNotStopOthers(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := NewInMemoryDispatcher(zap.New(core))

	var calls int
	d.Subscribe(EventNoteAdded, func(context.Context, Event) error {
		calls++
		return errors.New("audit sink down")
	})
	d.Subscribe(EventNoteAdded, func(context.Context, Event) error {
		calls++
		return nil
	})
	d.Subscribe(EventTicketSent, func(context.Context, Event) error {
		t.Fatalf("handler for other type must not run")
		return nil
	})

	d.Publish(context.Background(), New(EventNoteAdded, "ticket-1", Actor{Source: SourceOperator}, nil))

	if calls != 2 {
		t.Fatalf("expected both handlers to run, got %d", calls)
	}
	if logs.FilterMessage("event handler failed").Len() != 1 {
		t.Fatalf("expected failure to be logged")
	}
}
