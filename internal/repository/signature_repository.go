package repository

import (
	"github.com/ayoubbns/document-control-api/internal/models"
	"gorm.io/gorm"
)

// GormSignatureRepository is a GORM implementation of SignatureRepository.
// The ledger is append-only: there are deliberately no update or delete
// methods.
type GormSignatureRepository struct {
	db *gorm.DB
}

// NewSignatureRepository creates a new SignatureRepository
func NewSignatureRepository(db *gorm.DB) SignatureRepository {
	return &GormSignatureRepository{db: db}
}

func (r *GormSignatureRepository) WithTx(tx *gorm.DB) SignatureRepository {
	return &GormSignatureRepository{db: tx}
}

func (r *GormSignatureRepository) Create(sig *models.ElectronicSignature) error {
	return r.db.Create(sig).Error
}

func (r *GormSignatureRepository) FindByID(id uint64, preload ...string) (*models.ElectronicSignature, error) {
	var sig models.ElectronicSignature
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&sig, id).Error; err != nil {
		return nil, err
	}
	return &sig, nil
}

func (r *GormSignatureRepository) ListByWorkflow(workflowID uint64) ([]models.ElectronicSignature, error) {
	var sigs []models.ElectronicSignature
	err := r.db.
		Where("workflow_id = ?", workflowID).
		Preload("SignedBy").
		Order("signed_at DESC").
		Find(&sigs).Error
	if err != nil {
		return nil, err
	}
	return sigs, nil
}

func (r *GormSignatureRepository) CountByWorkflow(workflowID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.ElectronicSignature{}).
		Where("workflow_id = ?", workflowID).
		Count(&count).Error
	return count, err
}
