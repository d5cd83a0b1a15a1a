package services

import (
	"context"
	"errors"
	"time"

	"github.com/ayoubbns/document-control-api/internal/models"
	"github.com/ayoubbns/document-control-api/internal/queue"
	"github.com/ayoubbns/document-control-api/internal/repository"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Notifier emits stage-transition messages. Implementations must never fail
// the calling operation: delivery is strictly best-effort.
type Notifier interface {
	Notify(workflowID, recipientID uint64, notificationType, subject, message string)
}

// NotificationService records every workflow notification and hands delivery
// to the queue worker. It is called after the owning transaction commits, so
// a failure here can only lose a message, never workflow state.
type NotificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	client        *asynq.Client
	logger        *zap.Logger
}

// NewNotificationService creates a new NotificationService. A nil asynq
// client records notifications without enqueueing delivery (used in tests).
func NewNotificationService(
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	client *asynq.Client,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		client:        client,
		logger:        logger,
	}
}

func (s *NotificationService) Notify(workflowID, recipientID uint64, notificationType, subject, message string) {
	recipient, err := s.users.FindByID(recipientID)
	if err != nil {
		s.logger.Warn("notification recipient lookup failed",
			zap.Uint64("workflow_id", workflowID),
			zap.Uint64("recipient_id", recipientID),
			zap.Error(err))
		return
	}

	record := &models.WorkflowNotification{
		WorkflowID:  workflowID,
		RecipientID: recipientID,
		Type:        notificationType,
		Subject:     subject,
		Message:     message,
		EmailStatus: models.NotificationQueued,
	}
	if err := s.notifications.Create(record); err != nil {
		s.logger.Error("failed to record notification",
			zap.Uint64("workflow_id", workflowID),
			zap.Error(err))
		return
	}

	if s.client == nil {
		return
	}

	payload := queue.NotificationPayload{
		NotificationID: record.ID,
		RecipientEmail: recipient.Email,
		Subject:        subject,
		Message:        message,
	}
	if err := queue.EnqueueNotification(context.Background(), s.client, payload); err != nil {
		s.logger.Error("failed to enqueue notification",
			zap.Uint64("notification_id", record.ID),
			zap.Error(err))
		if updateErr := s.notifications.UpdateStatus(record.ID, models.NotificationFailed, nil); updateErr != nil {
			s.logger.Error("failed to mark notification failed", zap.Error(updateErr))
		}
	}
}

// MarkDelivered is called by the worker after an SMTP attempt.
func (s *NotificationService) MarkDelivered(notificationID uint64, ok bool) error {
	if ok {
		now := time.Now()
		return s.notifications.UpdateStatus(notificationID, models.NotificationSent, &now)
	}
	return s.notifications.UpdateStatus(notificationID, models.NotificationFailed, nil)
}

// ListForWorkflow returns the notification history of a workflow.
func (s *NotificationService) ListForWorkflow(workflowID uint64) ([]models.WorkflowNotification, error) {
	return s.notifications.ListByWorkflow(workflowID)
}

// ListForRecipient returns a user's notifications, optionally unread only.
func (s *NotificationService) ListForRecipient(recipientID uint64, unreadOnly bool) ([]models.WorkflowNotification, error) {
	return s.notifications.ListByRecipient(recipientID, unreadOnly)
}

// MarkRead stamps a notification as read by its recipient.
func (s *NotificationService) MarkRead(id, recipientID uint64) error {
	if err := s.notifications.MarkRead(id, recipientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}
