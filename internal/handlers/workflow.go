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

// WorkflowHandler coordinates workflow lifecycle HTTP handlers.
type WorkflowHandler struct {
	workflowService     *services.WorkflowService
	signatureService    *services.SignatureService
	notificationService *services.NotificationService
}

// NewWorkflowHandler creates a new WorkflowHandler.
func NewWorkflowHandler(
	workflowService *services.WorkflowService,
	signatureService *services.SignatureService,
	notificationService *services.NotificationService,
) *WorkflowHandler {
	return &WorkflowHandler{
		workflowService:     workflowService,
		signatureService:    signatureService,
		notificationService: notificationService,
	}
}

// Create creates a workflow with its stage tasks. Admin-only.
func (h *WorkflowHandler) Create(c *gin.Context) {
	type CreateRequest struct {
		Name        string  `json:"name" binding:"required,max=100"`
		Description string  `json:"description"`
		DocumentID  uint64  `json:"document_id" binding:"required"`
		AuthorID    *uint64 `json:"author_id"`
		ReviewerID  *uint64 `json:"reviewer_id"`
		ApproverID  *uint64 `json:"approver_id"`
		PublisherID *uint64 `json:"publisher_id"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	actor, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	workflow, err := h.workflowService.Create(services.CreateWorkflowInput{
		Name:        req.Name,
		Description: req.Description,
		DocumentID:  req.DocumentID,
		AuthorID:    req.AuthorID,
		ReviewerID:  req.ReviewerID,
		ApproverID:  req.ApproverID,
		PublisherID: req.PublisherID,
	}, actor)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToWorkflowDTO(*workflow))
}

// Get returns one workflow with its tasks and signatures.
func (h *WorkflowHandler) Get(c *gin.Context) {
	workflowID, actor, ok := workflowRequest(c)
	if !ok {
		return
	}

	workflow, err := h.workflowService.Get(workflowID, actor)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkflowDTO(*workflow))
}

// SubmitForReview advances a draft workflow into review.
func (h *WorkflowHandler) SubmitForReview(c *gin.Context) {
	workflowID, actor, ok := workflowRequest(c)
	if !ok {
		return
	}

	workflow, err := h.workflowService.SubmitForReview(workflowID, actor)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkflowDTO(*workflow))
}

// ValidateReview applies the reviewer's pass/reject verdict.
func (h *WorkflowHandler) ValidateReview(c *gin.Context) {
	type ValidateRequest struct {
		Action string `json:"action" binding:"required"`
		Reason string `json:"reason"`
		Notes  string `json:"notes"`
	}

	workflowID, actor, ok := workflowRequest(c)
	if !ok {
		return
	}

	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	workflow, err := h.workflowService.ValidateReview(workflowID, actor, req.Action, req.Reason, req.Notes)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkflowDTO(*workflow))
}

// ApproveAndSign approves the workflow and records the electronic signature.
func (h *WorkflowHandler) ApproveAndSign(c *gin.Context) {
	workflowID, actor, ok := workflowRequest(c)
	if !ok {
		return
	}

	workflow, signature, err := h.workflowService.ApproveAndSign(workflowID, actor, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"workflow":  dto.ToWorkflowDTO(*workflow),
		"signature": dto.ToSignatureDTO(*signature),
	})
}

// Publish releases the approved document.
func (h *WorkflowHandler) Publish(c *gin.Context) {
	workflowID, actor, ok := workflowRequest(c)
	if !ok {
		return
	}

	workflow, err := h.workflowService.Publish(workflowID, actor)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkflowDTO(*workflow))
}

// AssignUsers reassigns role slots. Admin-only.
func (h *WorkflowHandler) AssignUsers(c *gin.Context) {
	type AssignRequest struct {
		AuthorID    *uint64 `json:"author_id"`
		ReviewerID  *uint64 `json:"reviewer_id"`
		ApproverID  *uint64 `json:"approver_id"`
		PublisherID *uint64 `json:"publisher_id"`
	}

	workflowID, actor, ok := workflowRequest(c)
	if !ok {
		return
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	workflow, err := h.workflowService.AssignUsers(workflowID, actor, services.AssignUsersInput{
		AuthorID:    req.AuthorID,
		ReviewerID:  req.ReviewerID,
		ApproverID:  req.ApproverID,
		PublisherID: req.PublisherID,
	})
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkflowDTO(*workflow))
}

// ListMine lists workflows where the user holds a role.
func (h *WorkflowHandler) ListMine(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	workflows, total, err := h.workflowService.ListMine(actor, params.Page, params.Limit)
	if err != nil {
		apierrors.InternalError(c, "Failed to list workflows")
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkflowListResponse(workflows, params.Page, params.Limit, total))
}

// ListPendingAction lists workflows whose current stage awaits the user.
func (h *WorkflowHandler) ListPendingAction(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	workflows, err := h.workflowService.ListPendingAction(actor)
	if err != nil {
		apierrors.InternalError(c, "Failed to list workflows")
		return
	}

	items := make([]dto.WorkflowDTO, len(workflows))
	for i, workflow := range workflows {
		items[i] = dto.ToWorkflowDTO(workflow)
	}
	c.JSON(http.StatusOK, gin.H{"workflows": items})
}

// CountByStatus returns workflow counts per status. Admin-only.
func (h *WorkflowHandler) CountByStatus(c *gin.Context) {
	counts, err := h.workflowService.CountByStatus()
	if err != nil {
		apierrors.InternalError(c, "Failed to count workflows")
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts})
}

// History returns the workflow's audit log entries.
func (h *WorkflowHandler) History(c *gin.Context) {
	workflowID, actor, ok := workflowRequest(c)
	if !ok {
		return
	}

	// Reuse Get's visibility rule: users outside the workflow see 404.
	if _, err := h.workflowService.Get(workflowID, actor); err != nil {
		respondWorkflowError(c, err)
		return
	}

	entries, err := h.workflowService.History(workflowID)
	if err != nil {
		apierrors.InternalError(c, "Failed to load history")
		return
	}

	items := make([]dto.ActionLogDTO, len(entries))
	for i, entry := range entries {
		items[i] = dto.ToActionLogDTO(entry)
	}
	c.JSON(http.StatusOK, gin.H{"history": items})
}

// ListSignatures returns the workflow's signature ledger entries.
func (h *WorkflowHandler) ListSignatures(c *gin.Context) {
	workflowID, actor, ok := workflowRequest(c)
	if !ok {
		return
	}

	if _, err := h.workflowService.Get(workflowID, actor); err != nil {
		respondWorkflowError(c, err)
		return
	}

	signatures, err := h.signatureService.ListByWorkflow(workflowID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list signatures")
		return
	}

	items := make([]dto.SignatureDTO, len(signatures))
	for i, sig := range signatures {
		items[i] = dto.ToSignatureDTO(sig)
	}
	c.JSON(http.StatusOK, gin.H{"signatures": items})
}

// VerifySignature recomputes a stored signature hash.
func (h *WorkflowHandler) VerifySignature(c *gin.Context) {
	signatureID, err := strconv.ParseUint(c.Param("signatureId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid signature ID")
		return
	}

	result, err := h.signatureService.Verify(signatureID)
	if err != nil {
		if errors.Is(err, services.ErrSignatureNotFound) {
			apierrors.NotFound(c, err.Error())
			return
		}
		apierrors.InternalError(c, "Failed to verify signature")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"signature": dto.ToSignatureDTO(*result.Signature),
		"valid":     result.Valid,
	})
}

// ListNotifications returns the workflow's notification history.
func (h *WorkflowHandler) ListNotifications(c *gin.Context) {
	workflowID, actor, ok := workflowRequest(c)
	if !ok {
		return
	}

	if _, err := h.workflowService.Get(workflowID, actor); err != nil {
		respondWorkflowError(c, err)
		return
	}

	notifications, err := h.notificationService.ListForWorkflow(workflowID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list notifications")
		return
	}

	items := make([]dto.NotificationDTO, len(notifications))
	for i, n := range notifications {
		items[i] = dto.ToNotificationDTO(n)
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// MyNotifications returns the current user's notifications.
func (h *WorkflowHandler) MyNotifications(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	unreadOnly := c.Query("unread") == "true"
	notifications, err := h.notificationService.ListForRecipient(actor.ID, unreadOnly)
	if err != nil {
		apierrors.InternalError(c, "Failed to list notifications")
		return
	}

	items := make([]dto.NotificationDTO, len(notifications))
	for i, n := range notifications {
		items[i] = dto.ToNotificationDTO(n)
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// MarkNotificationRead stamps a notification as read.
func (h *WorkflowHandler) MarkNotificationRead(c *gin.Context) {
	notificationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid notification ID")
		return
	}

	actor, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	if err := h.notificationService.MarkRead(notificationID, actor.ID); err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			apierrors.NotFound(c, err.Error())
			return
		}
		apierrors.InternalError(c, "Failed to mark notification read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// workflowRequest parses the workflow id and resolves the current user.
func workflowRequest(c *gin.Context) (uint64, *models.User, bool) {
	workflowID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid workflow ID")
		return 0, nil, false
	}
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return 0, nil, false
	}
	return workflowID, actor, true
}

func respondWorkflowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrWorkflowNotFound),
		errors.Is(err, services.ErrDocumentNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		apierrors.InvalidTransition(c, err.Error())
	case errors.Is(err, services.ErrNotWorkflowActor),
		errors.Is(err, services.ErrAdminOnly):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrSelfApproval):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrSegregationOfDuties):
		apierrors.ValidationError(c, err.Error())
	case errors.Is(err, services.ErrReasonRequired),
		errors.Is(err, services.ErrInvalidReviewAction):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
