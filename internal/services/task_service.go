package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayoubbns/document-control-api/internal/models"
	"github.com/ayoubbns/document-control-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrTaskLocked      = errors.New("task is locked until earlier stages complete")
	ErrTaskAlreadyDone = errors.New("task is already completed or rejected")
	ErrNotTaskAssignee = errors.New("only the assigned user can act on this task")
	ErrNoTaskIDs       = errors.New("at least one task id is required")
)

// TaskService exposes the per-user view of workflow tasks. Tasks are created
// up front for all stages but stay invisible until their stage unlocks, so
// assignees only ever see work they can currently act on.
type TaskService struct {
	db     *gorm.DB
	tasks  repository.TaskRepository
	audit  repository.ActionLogRepository
	logger *zap.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(db *gorm.DB, tasks repository.TaskRepository, audit repository.ActionLogRepository, logger *zap.Logger) *TaskService {
	return &TaskService{db: db, tasks: tasks, audit: audit, logger: logger}
}

// Get returns a task, hiding locked tasks from non-elevated users entirely.
func (s *TaskService) Get(taskID uint64, actor *models.User) (*models.WorkflowTask, error) {
	task, err := s.tasks.FindByID(taskID, "Workflow", "Assignee", "CompletedBy")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if !actor.IsElevated() {
		if task.AssigneeID != actor.ID {
			return nil, ErrTaskNotFound
		}
		if !task.IsVisible {
			return nil, ErrTaskNotFound
		}
	}
	return task, nil
}

// Complete marks a task as done by its assignee. Guard order matters:
// terminal state first, then visibility, then actor identity.
func (s *TaskService) Complete(taskID uint64, actor *models.User, notes string) (*models.WorkflowTask, error) {
	task, err := s.loadActionable(taskID, actor)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	fields := map[string]interface{}{
		"task_status":     models.TaskStatusCompleted,
		"completed_at":    now,
		"completed_by_id": actor.ID,
	}
	if notes != "" {
		fields["notes"] = notes
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.tasks.WithTx(tx).UpdateFields(task.ID, fields); err != nil {
			return err
		}
		return s.logTaskAction(tx, actor.ID, "complete_task", task.ID, map[string]interface{}{
			"workflow_id": task.WorkflowID,
			"stage":       task.Stage,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task completed",
		zap.Uint64("task_id", task.ID),
		zap.Uint64("actor_id", actor.ID))

	return s.tasks.FindByID(task.ID, "Workflow", "CompletedBy")
}

// Reject marks a task as rejected with a mandatory reason. Admin-only;
// assignees reject documents through the workflow review step instead.
func (s *TaskService) Reject(taskID uint64, actor *models.User, reason, notes string) (*models.WorkflowTask, error) {
	if !actor.IsElevated() {
		return nil, ErrAdminOnly
	}
	if reason == "" {
		return nil, ErrReasonRequired
	}
	task, err := s.loadActionable(taskID, actor)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	fields := map[string]interface{}{
		"task_status":      models.TaskStatusRejected,
		"rejection_reason": reason,
		"completed_at":     now,
		"completed_by_id":  actor.ID,
	}
	if notes != "" {
		fields["notes"] = notes
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.tasks.WithTx(tx).UpdateFields(task.ID, fields); err != nil {
			return err
		}
		return s.logTaskAction(tx, actor.ID, "reject_task", task.ID, map[string]interface{}{
			"workflow_id": task.WorkflowID,
			"stage":       task.Stage,
			"reason":      reason,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task rejected",
		zap.Uint64("task_id", task.ID),
		zap.String("reason", reason))

	return s.tasks.FindByID(task.ID, "Workflow", "CompletedBy")
}

// Start moves a pending task to in_progress. Same guards as Complete.
func (s *TaskService) Start(taskID uint64, actor *models.User) (*models.WorkflowTask, error) {
	task, err := s.loadActionable(taskID, actor)
	if err != nil {
		return nil, err
	}
	if err := s.tasks.UpdateFields(task.ID, map[string]interface{}{
		"task_status": models.TaskStatusInProgress,
	}); err != nil {
		return nil, err
	}
	return s.tasks.FindByID(task.ID, "Workflow")
}

// BulkUpdate is the admin escape hatch: it overwrites task statuses without
// visibility or transition checks. It exists for data repair, not for the
// normal lifecycle.
func (s *TaskService) BulkUpdate(ids []uint64, status models.TaskStatus, notes string, actor *models.User) (int64, error) {
	if !actor.IsElevated() {
		return 0, ErrAdminOnly
	}
	if len(ids) == 0 {
		return 0, ErrNoTaskIDs
	}

	updated, err := s.tasks.BulkUpdateStatus(ids, status, notes)
	if err != nil {
		return 0, err
	}

	s.logger.Warn("bulk task status override",
		zap.Uint64("actor_id", actor.ID),
		zap.Int("requested", len(ids)),
		zap.Int64("updated", updated),
		zap.String("status", string(status)))

	return updated, nil
}

// MyTasks lists the actor's visible tasks with pagination.
func (s *TaskService) MyTasks(actor *models.User, page, pageSize int) ([]models.WorkflowTask, int64, error) {
	return s.tasks.List(repository.TaskFilter{
		AssigneeID:  &actor.ID,
		VisibleOnly: true,
		Page:        page,
		PageSize:    pageSize,
	})
}

// MyPending lists the actor's visible tasks still awaiting action.
func (s *TaskService) MyPending(actor *models.User, page, pageSize int) ([]models.WorkflowTask, int64, error) {
	return s.tasks.List(repository.TaskFilter{
		AssigneeID:  &actor.ID,
		VisibleOnly: true,
		Statuses:    []models.TaskStatus{models.TaskStatusPending, models.TaskStatusInProgress},
		Page:        page,
		PageSize:    pageSize,
	})
}

// Overdue lists the actor's visible open tasks past their due date.
func (s *TaskService) Overdue(actor *models.User, page, pageSize int) ([]models.WorkflowTask, int64, error) {
	now := time.Now()
	return s.tasks.List(repository.TaskFilter{
		AssigneeID:  &actor.ID,
		VisibleOnly: true,
		Statuses:    []models.TaskStatus{models.TaskStatusPending, models.TaskStatusInProgress},
		DueBefore:   &now,
		Page:        page,
		PageSize:    pageSize,
	})
}

// loadActionable fetches the task and applies the action guards in order:
// not found, already terminal, locked, wrong actor.
func (s *TaskService) loadActionable(taskID uint64, actor *models.User) (*models.WorkflowTask, error) {
	task, err := s.tasks.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if !task.IsOpen() {
		return nil, ErrTaskAlreadyDone
	}
	if !task.IsVisible {
		return nil, ErrTaskLocked
	}
	if task.AssigneeID != actor.ID && !actor.IsElevated() {
		return nil, ErrNotTaskAssignee
	}
	return task, nil
}

func (s *TaskService) logTaskAction(tx *gorm.DB, userID uint64, action string, taskID uint64, extra map[string]interface{}) error {
	info, err := json.Marshal(extra)
	if err != nil {
		return fmt.Errorf("failed to encode audit info: %w", err)
	}
	return s.audit.WithTx(tx).Create(&models.UserActionLog{
		UserID:     &userID,
		Action:     action,
		ObjectType: "workflow_task",
		ObjectID:   taskID,
		ExtraInfo:  string(info),
	})
}
