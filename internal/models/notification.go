package models

import "time"

type NotificationStatus string

const (
	NotificationQueued NotificationStatus = "queued"
	NotificationSent   NotificationStatus = "sent"
	NotificationFailed NotificationStatus = "failed"
)

// Notification types emitted by the workflow state machine.
const (
	NotifyWorkflowAssigned  = "workflow_assigned"
	NotifyReviewReady       = "review_ready"
	NotifyReviewRejected    = "review_rejected"
	NotifyApprovalReady     = "approval_ready"
	NotifyPublishReady      = "publish_ready"
	NotifyDocumentPublished = "document_published"
)

// WorkflowNotification records every stage-transition message, whether or not
// delivery succeeded. Workflow correctness never depends on these rows.
type WorkflowNotification struct {
	ID          uint64             `gorm:"primarykey" json:"id"`
	WorkflowID  uint64             `gorm:"not null;index" json:"workflow_id"`
	RecipientID uint64             `gorm:"not null;index" json:"recipient_id"`
	Type        string             `gorm:"column:notification_type;type:varchar(50);not null" json:"notification_type"`
	Subject     string             `gorm:"type:varchar(255);not null" json:"subject"`
	Message     string             `gorm:"type:text" json:"message"`
	EmailStatus NotificationStatus `gorm:"type:varchar(20);not null;default:'queued'" json:"email_status"`
	SentAt      *time.Time         `json:"sent_at"`
	ReadAt      *time.Time         `json:"read_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Workflow  Workflow `gorm:"foreignKey:WorkflowID" json:"workflow,omitempty"`
	Recipient User     `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
}
