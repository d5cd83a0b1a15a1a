package repository

import (
	"time"

	"github.com/ayoubbns/document-control-api/internal/models"
	"gorm.io/gorm"
)

// GormDocumentRepository is a GORM implementation of DocumentRepository
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &GormDocumentRepository{db: db}
}

func (r *GormDocumentRepository) WithTx(tx *gorm.DB) DocumentRepository {
	return &GormDocumentRepository{db: tx}
}

func (r *GormDocumentRepository) Create(doc *models.Document) error {
	return r.db.Create(doc).Error
}

func (r *GormDocumentRepository) FindByID(id uint64, preload ...string) (*models.Document, error) {
	var doc models.Document
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&doc, id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *GormDocumentRepository) Update(doc *models.Document) error {
	return r.db.Save(doc).Error
}

func (r *GormDocumentRepository) SetStatus(id uint64, status models.DocumentStatus) error {
	return r.db.Model(&models.Document{}).Where("id = ?", id).
		Update("doc_status", status).Error
}

func (r *GormDocumentRepository) MarkOriginal(id uint64) error {
	return r.db.Model(&models.Document{}).Where("id = ?", id).
		Update("doc_status_type", models.DocStatusTypeOriginal).Error
}

func (r *GormDocumentRepository) ListByFolders(folderIDs []uint64, archived bool) ([]models.Document, error) {
	if len(folderIDs) == 0 {
		return []models.Document{}, nil
	}
	var docs []models.Document
	err := r.db.Where("parent_folder_id IN ? AND is_archived = ?", folderIDs, archived).
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *GormDocumentRepository) BulkSetArchiveState(ids []uint64, fields map[string]interface{}) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&models.Document{}).Where("id IN ?", ids).Updates(fields).Error
}

func (r *GormDocumentRepository) ListExpiredRetention(now time.Time) ([]models.Document, error) {
	var docs []models.Document
	err := r.db.
		Where("is_archived = ? AND archived_until IS NOT NULL AND archived_until <= ?", true, now).
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// ListArchivedRoots returns archived documents whose immediate parent is not
// archived, so nested already-implied items do not flood the browse view.
func (r *GormDocumentRepository) ListArchivedRoots() ([]models.Document, error) {
	var docs []models.Document
	err := r.db.
		Joins("LEFT JOIN folders ON folders.id = documents.parent_folder_id").
		Where("documents.is_archived = ?", true).
		Where("documents.parent_folder_id IS NULL OR folders.is_archived = ?", false).
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}
