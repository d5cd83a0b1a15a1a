package repository

import (
	"github.com/ayoubbns/document-control-api/internal/database"
	"github.com/ayoubbns/document-control-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

func (r *GormTaskRepository) WithTx(tx *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: tx}
}

func (r *GormTaskRepository) Create(task *models.WorkflowTask) error {
	return r.db.Create(task).Error
}

func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.WorkflowTask, error) {
	var task models.WorkflowTask
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *GormTaskRepository) FindByStage(workflowID uint64, stage models.WorkflowStage) (*models.WorkflowTask, error) {
	var task models.WorkflowTask
	if err := r.db.Where("workflow_id = ? AND stage = ?", workflowID, stage).
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *GormTaskRepository) UpdateFields(id uint64, fields map[string]interface{}) error {
	return r.db.Model(&models.WorkflowTask{}).Where("id = ?", id).Updates(fields).Error
}

func (r *GormTaskRepository) UpdateStage(workflowID uint64, stage models.WorkflowStage, fields map[string]interface{}) error {
	return r.db.Model(&models.WorkflowTask{}).
		Where("workflow_id = ? AND stage = ?", workflowID, stage).
		Updates(fields).Error
}

// ReassignActive leaves completed/rejected tasks untouched to preserve the
// audit history of who actually did the work.
func (r *GormTaskRepository) ReassignActive(workflowID uint64, stage models.WorkflowStage, assigneeID uint64) error {
	return r.db.Model(&models.WorkflowTask{}).
		Where("workflow_id = ? AND stage = ?", workflowID, stage).
		Where("task_status NOT IN ?", []models.TaskStatus{models.TaskStatusCompleted, models.TaskStatusRejected}).
		Update("assignee_id", assigneeID).Error
}

func (r *GormTaskRepository) BulkUpdateStatus(ids []uint64, status models.TaskStatus, notes string) (int64, error) {
	fields := map[string]interface{}{"task_status": status}
	if notes != "" {
		fields["notes"] = notes
	}
	res := r.db.Model(&models.WorkflowTask{}).Where("id IN ?", ids).Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *GormTaskRepository) List(filter TaskFilter) ([]models.WorkflowTask, int64, error) {
	query := r.db.Model(&models.WorkflowTask{})

	if filter.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *filter.AssigneeID)
	}
	if filter.WorkflowID != nil {
		query = query.Where("workflow_id = ?", *filter.WorkflowID)
	}
	if filter.Stage != nil {
		query = query.Where("stage = ?", *filter.Stage)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("task_status IN ?", filter.Statuses)
	}
	if filter.VisibleOnly {
		query = query.Where("is_visible = ?", true)
	}
	if filter.DueBefore != nil {
		query = query.Where("due_date < ?", *filter.DueBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []models.WorkflowTask
	if err := query.Order("due_date ASC").
		Scopes(database.Paginate(filter.Page, filter.PageSize)).
		Preload("Workflow").
		Preload("Workflow.Document").
		Find(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}
