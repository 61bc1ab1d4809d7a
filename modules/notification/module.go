package notification

import (
	"calchat/core/constants"
	"calchat/modules/notification/service"

	"github.com/hibiken/asynq"
)

// Init wires the enqueue side. The worker side registers via Mux.
func Init(client *asynq.Client) *service.NotificationService {
	return service.NewNotificationService(client)
}

// Mux returns the handler registry for the asynq worker server.
func Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(constants.TaskSlackNotify, service.HandleSlackNotify)
	return mux
}
