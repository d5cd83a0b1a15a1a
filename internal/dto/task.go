package dto

import (
	"time"

	"github.com/ayoubbns/document-control-api/internal/models"
)

// TaskDTO represents a workflow task in API responses
type TaskDTO struct {
	ID              uint64               `json:"id"`
	Name            string               `json:"name"`
	WorkflowID      uint64               `json:"workflow_id"`
	Stage           models.WorkflowStage `json:"stage"`
	AssigneeID      uint64               `json:"assignee_id"`
	Assignee        *UserDTO             `json:"assignee,omitempty"`
	Status          models.TaskStatus    `json:"status"`
	Priority        models.TaskPriority  `json:"priority"`
	DueDate         time.Time            `json:"due_date"`
	IsVisible       bool                 `json:"is_visible"`
	UnlockedAt      *time.Time           `json:"unlocked_at"`
	CompletedAt     *time.Time           `json:"completed_at"`
	CompletedBy     *UserDTO             `json:"completed_by,omitempty"`
	Notes           string               `json:"notes,omitempty"`
	RejectionReason string               `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO `json:"tasks"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalCount int64     `json:"total_count"`
	TotalPages int       `json:"total_pages"`
}

// ToTaskDTO converts a WorkflowTask model to TaskDTO
func ToTaskDTO(task models.WorkflowTask) TaskDTO {
	dto := TaskDTO{
		ID:              task.ID,
		Name:            task.Name,
		WorkflowID:      task.WorkflowID,
		Stage:           task.Stage,
		AssigneeID:      task.AssigneeID,
		Status:          task.Status,
		Priority:        task.Priority,
		DueDate:         task.DueDate,
		IsVisible:       task.IsVisible,
		UnlockedAt:      task.UnlockedAt,
		CompletedAt:     task.CompletedAt,
		Notes:           task.Notes,
		RejectionReason: task.RejectionReason,
		CreatedAt:       task.CreatedAt,
	}

	// Include relations if preloaded
	if task.Assignee.ID != 0 {
		assignee := ToUserDTO(task.Assignee)
		dto.Assignee = &assignee
	}
	if task.CompletedBy != nil {
		completedBy := ToUserDTO(*task.CompletedBy)
		dto.CompletedBy = &completedBy
	}

	return dto
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.WorkflowTask, page, pageSize int, totalCount int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	totalPages := int(totalCount) / pageSize
	if int(totalCount)%pageSize > 0 {
		totalPages++
	}

	return TaskListResponse{
		Tasks:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}
