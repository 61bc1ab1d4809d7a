package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"calchat/core/config"
	"calchat/core/constants"
	"calchat/core/logger"
	"calchat/modules/notification/task"

	"github.com/hibiken/asynq"
)

type NotifierInterface interface {
	NotifyEventMutation(ctx context.Context, action, title string) error
}

// NotificationService enqueues Slack notifications. Delivery happens on the
// asynq worker so a slow Slack call never sits on the chat request path.
type NotificationService struct {
	client *asynq.Client
}

func NewNotificationService(client *asynq.Client) *NotificationService {
	return &NotificationService{client: client}
}

// NotifyEventMutation announces a committed calendar mutation. Action is one
// of "create", "update", "delete".
func (service *NotificationService) NotifyEventMutation(ctx context.Context, action, title string) error {
	cfg, ok := config.GetSafe()
	if !ok || cfg.Slack.BotToken == "" {
		logger.Debug("NotificationService:NotifyEventMutation:Skipped", "reason", "slack not configured")
		return nil
	}

	var text string
	switch action {
	case "update":
		text = fmt.Sprintf("Event Updated Successfully! (%s)", title)
	case "delete":
		text = fmt.Sprintf("Event Deleted Successfully! (%s)", title)
	default:
		text = fmt.Sprintf("Event Created Successfully! (%s)", title)
	}

	t, err := task.NewSlackNotifyTask(cfg.Slack.Channel, text)
	if err != nil {
		return err
	}

	info, err := service.client.EnqueueContext(ctx, t)
	if err != nil {
		logger.Error("NotificationService:NotifyEventMutation:Enqueue:Error", "error", err)
		return err
	}
	logger.Info("NotificationService:NotifyEventMutation:Enqueued", "task_id", info.ID, "queue", info.Queue)
	return nil
}

// HandleSlackNotify runs on the worker and posts to Slack chat.postMessage.
func HandleSlackNotify(ctx context.Context, t *asynq.Task) error {
	var payload task.SlackNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal slack payload: %w", err)
	}

	cfg, ok := config.GetSafe()
	if !ok {
		return fmt.Errorf("config not initialized")
	}

	body, err := json.Marshal(map[string]string{
		"channel": payload.Channel,
		"text":    payload.Text,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://slack.com/api/chat.postMessage", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.Slack.BotToken)

	client := &http.Client{Timeout: constants.DefaultTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode slack response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("slack post failed: %s", result.Error)
	}

	logger.Info("NotificationService:HandleSlackNotify:Sent", "channel", payload.Channel)
	return nil
}
