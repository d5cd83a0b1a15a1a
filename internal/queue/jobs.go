package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// SendNotificationTask delivers one recorded workflow notification.
	SendNotificationTask = "notification:send"

	// RetentionSweepTask restores archived folders and documents whose
	// retention deadline has passed.
	RetentionSweepTask = "retention:sweep"
)

// NotificationPayload tells the worker which notification row to deliver and
// where to send it.
type NotificationPayload struct {
	NotificationID uint64 `json:"notification_id"`
	RecipientEmail string `json:"recipient_email"`
	Subject        string `json:"subject"`
	Message        string `json:"message"`
}

// EnqueueNotification enqueues a notification delivery job.
func EnqueueNotification(ctx context.Context, client *asynq.Client, payload NotificationPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(SendNotificationTask, data)
	if _, err := client.EnqueueContext(ctx, task, asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("enqueue notification task: %w", err)
	}
	return nil
}

// NewRetentionSweepTask builds the periodic retention sweep task.
func NewRetentionSweepTask() *asynq.Task {
	return asynq.NewTask(RetentionSweepTask, nil)
}
