package repository

import (
	"time"

	"github.com/ayoubbns/document-control-api/internal/models"
	"gorm.io/gorm"
)

// GormNotificationRepository is a GORM implementation of NotificationRepository
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) Create(n *models.WorkflowNotification) error {
	return r.db.Create(n).Error
}

func (r *GormNotificationRepository) UpdateStatus(id uint64, status models.NotificationStatus, sentAt *time.Time) error {
	fields := map[string]interface{}{"email_status": status}
	if sentAt != nil {
		fields["sent_at"] = *sentAt
	}
	return r.db.Model(&models.WorkflowNotification{}).Where("id = ?", id).Updates(fields).Error
}

func (r *GormNotificationRepository) ListByWorkflow(workflowID uint64) ([]models.WorkflowNotification, error) {
	var notifications []models.WorkflowNotification
	err := r.db.
		Where("workflow_id = ?", workflowID).
		Preload("Recipient").
		Order("created_at DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *GormNotificationRepository) ListByRecipient(recipientID uint64, unreadOnly bool) ([]models.WorkflowNotification, error) {
	query := r.db.Where("recipient_id = ?", recipientID)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}
	var notifications []models.WorkflowNotification
	if err := query.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *GormNotificationRepository) MarkRead(id, recipientID uint64) error {
	return r.db.Model(&models.WorkflowNotification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("read_at", time.Now()).Error
}
