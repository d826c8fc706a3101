package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartsupport/helpdesk/internal/events"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()

	var created, assigned int
	dispatcher.Subscribe(events.EventTicketCreated, func(_ context.Context, _ events.Event) error {
		created++
		return nil
	})
	dispatcher.Subscribe(events.EventTicketCreated, func(_ context.Context, _ events.Event) error {
		created++
		return nil
	})
	dispatcher.Subscribe(events.EventTicketAssigned, func(_ context.Context, _ events.Event) error {
		assigned++
		return nil
	})

	err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketCreated, TicketID: "t1"})
	require.NoError(t, err)

	assert.Equal(t, 2, created)
	assert.Equal(t, 0, assigned)
}

func TestDispatcherHandlerErrorDoesNotStopDelivery(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()

	var reached bool
	dispatcher.Subscribe(events.EventCommentAdded, func(_ context.Context, _ events.Event) error {
		return errors.New("boom")
	})
	dispatcher.Subscribe(events.EventCommentAdded, func(_ context.Context, _ events.Event) error {
		reached = true
		return nil
	})

	err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventCommentAdded})
	require.NoError(t, err)
	assert.True(t, reached)
}
