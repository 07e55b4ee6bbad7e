package scheduler

import (
	"encoding/json"
	"fmt"
	"strings"

	"leadlift_backend/internal/email"

	"github.com/hibiken/asynq"
)

const TaskLeadAlert = "submissions.lead_alert"

type LeadAlertPayload struct {
	Recipient string          `json:"recipient"`
	Alert     email.LeadAlert `json:"alert"`
}

func NewLeadAlertTask(payload LeadAlertPayload) (*asynq.Task, error) {
	if strings.TrimSpace(payload.Recipient) == "" {
		return nil, fmt.Errorf("lead alert: recipient is required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadAlert, data), nil
}

func ParseLeadAlertPayload(task *asynq.Task) (LeadAlertPayload, error) {
	var payload LeadAlertPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadAlertPayload{}, err
	}
	return payload, nil
}
