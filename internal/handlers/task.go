package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ayoubbns/document-control-api/internal/dto"
	apierrors "github.com/ayoubbns/document-control-api/internal/errors"
	"github.com/ayoubbns/document-control-api/internal/middleware"
	"github.com/ayoubbns/document-control-api/internal/models"
	"github.com/ayoubbns/document-control-api/internal/services"
	"github.com/ayoubbns/document-control-api/internal/utils"
)

// TaskHandler coordinates workflow task HTTP handlers.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// Get returns one task.
func (h *TaskHandler) Get(c *gin.Context) {
	taskID, actor, ok := taskRequest(c)
	if !ok {
		return
	}

	task, err := h.taskService.Get(taskID, actor)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// Start moves a pending task to in_progress.
func (h *TaskHandler) Start(c *gin.Context) {
	taskID, actor, ok := taskRequest(c)
	if !ok {
		return
	}

	task, err := h.taskService.Start(taskID, actor)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// Complete marks a task as done by its assignee.
func (h *TaskHandler) Complete(c *gin.Context) {
	type CompleteRequest struct {
		Notes string `json:"notes"`
	}

	taskID, actor, ok := taskRequest(c)
	if !ok {
		return
	}

	var req CompleteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.BadRequest(c, "Invalid request body")
			return
		}
	}

	task, err := h.taskService.Complete(taskID, actor, req.Notes)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// Reject marks a task as rejected with a mandatory reason.
func (h *TaskHandler) Reject(c *gin.Context) {
	type RejectRequest struct {
		Reason string `json:"reason" binding:"required"`
		Notes  string `json:"notes"`
	}

	taskID, actor, ok := taskRequest(c)
	if !ok {
		return
	}

	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "A rejection reason is required")
		return
	}

	task, err := h.taskService.Reject(taskID, actor, req.Reason, req.Notes)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// BulkUpdate mass-overwrites task statuses. Admin-only.
func (h *TaskHandler) BulkUpdate(c *gin.Context) {
	type BulkUpdateRequest struct {
		TaskIDs []uint64          `json:"task_ids" binding:"required"`
		Status  models.TaskStatus `json:"status" binding:"required,oneof=pending in_progress completed rejected"`
		Notes   string            `json:"notes"`
	}

	var req BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	actor, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	updated, err := h.taskService.BulkUpdate(req.TaskIDs, req.Status, req.Notes, actor)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"updated": updated,
	})
}

// MyTasks lists the current user's visible tasks.
func (h *TaskHandler) MyTasks(c *gin.Context) {
	h.listTasks(c, h.taskService.MyTasks)
}

// MyPending lists the current user's visible open tasks.
func (h *TaskHandler) MyPending(c *gin.Context) {
	h.listTasks(c, h.taskService.MyPending)
}

// Overdue lists the current user's visible open tasks past their due date.
func (h *TaskHandler) Overdue(c *gin.Context) {
	h.listTasks(c, h.taskService.Overdue)
}

func (h *TaskHandler) listTasks(c *gin.Context, list func(*models.User, int, int) ([]models.WorkflowTask, int64, error)) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	tasks, total, err := list(actor, params.Page, params.Limit)
	if err != nil {
		apierrors.InternalError(c, "Failed to list tasks")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.Limit, total))
}

func taskRequest(c *gin.Context) (uint64, *models.User, bool) {
	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return 0, nil, false
	}
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return 0, nil, false
	}
	return taskID, actor, true
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrTaskAlreadyDone):
		apierrors.RespondWithError(c, http.StatusBadRequest,
			apierrors.NewAPIError(apierrors.ErrCodeAlreadyDone, err.Error()))
	case errors.Is(err, services.ErrTaskLocked):
		apierrors.Locked(c, err.Error())
	case errors.Is(err, services.ErrNotTaskAssignee),
		errors.Is(err, services.ErrAdminOnly):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrReasonRequired),
		errors.Is(err, services.ErrNoTaskIDs):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
