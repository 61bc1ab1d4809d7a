package task

import (
	"encoding/json"

	"calchat/core/constants"

	"github.com/hibiken/asynq"
)

type SlackNotifyPayload struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

func NewSlackNotifyTask(channel, text string) (*asynq.Task, error) {
	payload, err := json.Marshal(SlackNotifyPayload{Channel: channel, Text: text})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(constants.TaskSlackNotify, payload, asynq.MaxRetry(3)), nil
}
