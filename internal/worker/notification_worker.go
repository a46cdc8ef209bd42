package worker

import (
	"github.com/spec-kit/miniticker/internal/service"
)

// StartNotificationWorker registers notification handlers and returns the
// function that removes them.
func StartNotificationWorker(notificationService *service.NotificationService) func() {
	if notificationService == nil {
		return func() {}
	}
	notificationService.RegisterHandlers()
	return notificationService.Unregister
}
