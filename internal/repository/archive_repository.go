package repository

import (
	"time"

	"github.com/ayoubbns/document-control-api/internal/models"
	"gorm.io/gorm"
)

// GormArchiveRepository is a GORM implementation of ArchiveRepository
type GormArchiveRepository struct {
	db *gorm.DB
}

// NewArchiveRepository creates a new ArchiveRepository
func NewArchiveRepository(db *gorm.DB) ArchiveRepository {
	return &GormArchiveRepository{db: db}
}

func (r *GormArchiveRepository) WithTx(tx *gorm.DB) ArchiveRepository {
	return &GormArchiveRepository{db: tx}
}

func (r *GormArchiveRepository) Create(entry *models.DocumentArchive) error {
	return r.db.Create(entry).Error
}

func (r *GormArchiveRepository) BulkCreate(entries []models.DocumentArchive) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.Create(&entries).Error
}

func (r *GormArchiveRepository) FindActiveByDocument(documentID uint64) (*models.DocumentArchive, error) {
	var entry models.DocumentArchive
	err := r.db.
		Where("document_id = ? AND status = ?", documentID, models.ArchiveStatusActive).
		Order("archived_at DESC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *GormArchiveRepository) CloseActive(documentIDs []uint64, status models.ArchiveStatus, restoredAt *time.Time) error {
	if len(documentIDs) == 0 {
		return nil
	}
	fields := map[string]interface{}{"status": status}
	if restoredAt != nil {
		fields["restored_at"] = *restoredAt
	}
	return r.db.Model(&models.DocumentArchive{}).
		Where("document_id IN ? AND status = ?", documentIDs, models.ArchiveStatusActive).
		Updates(fields).Error
}

func (r *GormArchiveRepository) ListByDocument(documentID uint64) ([]models.DocumentArchive, error) {
	var entries []models.DocumentArchive
	err := r.db.
		Where("document_id = ?", documentID).
		Order("archived_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
