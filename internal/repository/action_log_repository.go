package repository

import (
	"github.com/ayoubbns/document-control-api/internal/models"
	"gorm.io/gorm"
)

// GormActionLogRepository is a GORM implementation of ActionLogRepository
type GormActionLogRepository struct {
	db *gorm.DB
}

// NewActionLogRepository creates a new ActionLogRepository
func NewActionLogRepository(db *gorm.DB) ActionLogRepository {
	return &GormActionLogRepository{db: db}
}

func (r *GormActionLogRepository) WithTx(tx *gorm.DB) ActionLogRepository {
	return &GormActionLogRepository{db: tx}
}

func (r *GormActionLogRepository) Create(entry *models.UserActionLog) error {
	return r.db.Create(entry).Error
}

func (r *GormActionLogRepository) ListByObject(objectType string, objectID uint64) ([]models.UserActionLog, error) {
	var entries []models.UserActionLog
	err := r.db.
		Where("object_type = ? AND object_id = ?", objectType, objectID).
		Preload("User").
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
