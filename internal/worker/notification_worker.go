package worker

import (
	"context"

	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/service"
)

// StartNotificationWorker registers notification handlers and starts event
// delivery. The returned channel closes once the queue has drained after ctx
// is cancelled.
func StartNotificationWorker(ctx context.Context, dispatcher *events.AsyncDispatcher, notificationService *service.NotificationService) <-chan struct{} {
	done := make(chan struct{})
	if dispatcher == nil {
		close(done)
		return done
	}
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	go func() {
		defer close(done)
		dispatcher.Run(ctx)
	}()
	return done
}
