package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/service"
)

func TestStartNotificationWorkerDrainsOnCancel(t *testing.T) {
	dispatcher := events.NewAsyncDispatcher(4, zap.NewNop(), nil)
	var delivered atomic.Int32
	dispatcher.Subscribe(events.EventTicketCreated, func(context.Context, events.Event) error {
		delivered.Add(1)
		return nil
	})
	notifications := service.NewNotificationService(dispatcher, nil, zap.NewNop(), config.NotificationConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	done := StartNotificationWorker(ctx, dispatcher, notifications)
	require.NoError(t, dispatcher.Publish(ctx, events.Event{Type: events.EventTicketCreated, TicketID: "t-1"}))
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	assert.Equal(t, int32(1), delivered.Load())
}

func TestStartNotificationWorkerWithoutDispatcher(t *testing.T) {
	done := StartNotificationWorker(context.Background(), nil, nil)

	_, open := <-done
	assert.False(t, open)
}
