package dto

import (
	"time"

	"github.com/ayoubbns/document-control-api/internal/models"
)

// NotificationDTO represents a workflow notification in API responses
type NotificationDTO struct {
	ID          uint64                    `json:"id"`
	WorkflowID  uint64                    `json:"workflow_id"`
	RecipientID uint64                    `json:"recipient_id"`
	Type        string                    `json:"type"`
	Subject     string                    `json:"subject"`
	Message     string                    `json:"message"`
	EmailStatus models.NotificationStatus `json:"email_status"`
	SentAt      *time.Time                `json:"sent_at"`
	ReadAt      *time.Time                `json:"read_at"`
	CreatedAt   time.Time                 `json:"created_at"`
}

// ToNotificationDTO converts a WorkflowNotification model to NotificationDTO
func ToNotificationDTO(n models.WorkflowNotification) NotificationDTO {
	return NotificationDTO{
		ID:          n.ID,
		WorkflowID:  n.WorkflowID,
		RecipientID: n.RecipientID,
		Type:        n.Type,
		Subject:     n.Subject,
		Message:     n.Message,
		EmailStatus: n.EmailStatus,
		SentAt:      n.SentAt,
		ReadAt:      n.ReadAt,
		CreatedAt:   n.CreatedAt,
	}
}
