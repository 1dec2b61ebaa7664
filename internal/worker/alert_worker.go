package worker

import (
	"github.com/project-pulse/pulse/internal/service"
)

// StartAlertWorker registers admin alert handlers.
func StartAlertWorker(alertService *service.AlertService) {
	if alertService == nil {
		return
	}
	alertService.RegisterHandlers()
}
