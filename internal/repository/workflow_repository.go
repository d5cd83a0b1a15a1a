package repository

import (
	"github.com/ayoubbns/document-control-api/internal/database"
	"github.com/ayoubbns/document-control-api/internal/models"
	"gorm.io/gorm"
)

// GormWorkflowRepository is a GORM implementation of WorkflowRepository
type GormWorkflowRepository struct {
	db *gorm.DB
}

// NewWorkflowRepository creates a new WorkflowRepository
func NewWorkflowRepository(db *gorm.DB) WorkflowRepository {
	return &GormWorkflowRepository{db: db}
}

func (r *GormWorkflowRepository) WithTx(tx *gorm.DB) WorkflowRepository {
	return &GormWorkflowRepository{db: tx}
}

func (r *GormWorkflowRepository) Create(workflow *models.Workflow) error {
	return r.db.Create(workflow).Error
}

func (r *GormWorkflowRepository) FindByID(id uint64, preload ...string) (*models.Workflow, error) {
	var workflow models.Workflow
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&workflow, id).Error; err != nil {
		return nil, err
	}
	return &workflow, nil
}

func (r *GormWorkflowRepository) Update(workflow *models.Workflow) error {
	return r.db.Save(workflow).Error
}

func (r *GormWorkflowRepository) UpdateFields(id uint64, fields map[string]interface{}) error {
	return r.db.Model(&models.Workflow{}).Where("id = ?", id).Updates(fields).Error
}

func (r *GormWorkflowRepository) TransitionStatus(id uint64, from models.WorkflowStatus, fields map[string]interface{}) (bool, error) {
	result := r.db.Model(&models.Workflow{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GormWorkflowRepository) ListInvolving(userID uint64, page, pageSize int) ([]models.Workflow, int64, error) {
	query := r.db.Model(&models.Workflow{}).
		Where("author_id = ? OR reviewer_id = ? OR approver_id = ? OR publisher_id = ? OR created_by_id = ?",
			userID, userID, userID, userID, userID)
	return r.list(query, page, pageSize)
}

func (r *GormWorkflowRepository) ListAll(page, pageSize int) ([]models.Workflow, int64, error) {
	return r.list(r.db.Model(&models.Workflow{}), page, pageSize)
}

func (r *GormWorkflowRepository) list(query *gorm.DB, page, pageSize int) ([]models.Workflow, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var workflows []models.Workflow
	if err := query.Order("created_at DESC").
		Scopes(database.Paginate(page, pageSize)).
		Preload("Document").
		Preload("Author").
		Preload("Reviewer").
		Preload("Approver").
		Preload("Publisher").
		Find(&workflows).Error; err != nil {
		return nil, 0, err
	}
	return workflows, total, nil
}

// ListPendingAction returns workflows whose current stage awaits the user:
// drafts for the author, reviews for the reviewer, and so on.
func (r *GormWorkflowRepository) ListPendingAction(userID uint64) ([]models.Workflow, error) {
	var workflows []models.Workflow
	err := r.db.
		Where("(author_id = ? AND status = ?)", userID, models.WorkflowStatusDraft).
		Or("(reviewer_id = ? AND status = ?)", userID, models.WorkflowStatusInReview).
		Or("(approver_id = ? AND status = ?)", userID, models.WorkflowStatusPendingApproval).
		Or("(publisher_id = ? AND status = ?)", userID, models.WorkflowStatusApproved).
		Preload("Document").
		Order("created_at DESC").
		Find(&workflows).Error
	if err != nil {
		return nil, err
	}
	return workflows, nil
}

func (r *GormWorkflowRepository) CountByStatus() (map[models.WorkflowStatus]int64, error) {
	type row struct {
		Status models.WorkflowStatus
		Count  int64
	}
	var rows []row
	err := r.db.Model(&models.Workflow{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.WorkflowStatus]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}
