package models

import (
	"time"

	"gorm.io/gorm"
)

type WorkflowStage string

const (
	StageDraft       WorkflowStage = "draft"
	StageReview      WorkflowStage = "review"
	StageApproval    WorkflowStage = "approval"
	StagePublication WorkflowStage = "publication"
)

// Stages lists the four stages in forward order.
var Stages = []WorkflowStage{StageDraft, StageReview, StageApproval, StagePublication}

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusRejected   TaskStatus = "rejected"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityNormal TaskPriority = "normal"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// WorkflowTask is the per-(workflow, stage) work item. IsVisible is the sole
// authorization gate for the assignee: invisible tasks are locked until the
// state machine unlocks them.
type WorkflowTask struct {
	ID         uint64        `gorm:"primarykey" json:"id"`
	Name       string        `gorm:"type:varchar(255);not null" json:"name"`
	WorkflowID uint64        `gorm:"not null;uniqueIndex:idx_workflow_stage" json:"workflow_id"`
	Stage      WorkflowStage `gorm:"type:varchar(20);not null;uniqueIndex:idx_workflow_stage" json:"stage"`
	AssigneeID uint64        `gorm:"not null;index:idx_assignee_status" json:"assignee_id"`
	Status     TaskStatus    `gorm:"column:task_status;type:varchar(20);not null;default:'pending';index:idx_assignee_status" json:"task_status"`
	DueDate    time.Time     `gorm:"not null;index" json:"due_date"`
	Priority   TaskPriority  `gorm:"type:varchar(20);not null;default:'normal'" json:"priority"`

	IsVisible   bool       `gorm:"not null;default:false;index" json:"is_visible"`
	UnlockedAt  *time.Time `json:"unlocked_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CompletedByID *uint64  `json:"completed_by_id"`

	Notes           string `gorm:"type:text" json:"notes"`
	RejectionReason string `gorm:"type:text" json:"rejection_reason"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Workflow    Workflow `gorm:"foreignKey:WorkflowID" json:"workflow,omitempty"`
	Assignee    User     `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	CompletedBy *User    `gorm:"foreignKey:CompletedByID" json:"completed_by,omitempty"`
}

// IsOpen reports whether the task can still be acted on.
func (t *WorkflowTask) IsOpen() bool {
	return t.Status != TaskStatusCompleted && t.Status != TaskStatusRejected
}
