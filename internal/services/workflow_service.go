package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayoubbns/document-control-api/internal/constants"
	"github.com/ayoubbns/document-control-api/internal/models"
	"github.com/ayoubbns/document-control-api/internal/repository"
	"github.com/ayoubbns/document-control-api/internal/signing"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrWorkflowNotFound    = errors.New("workflow not found")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrInvalidTransition   = errors.New("workflow is not in the required status for this action")
	ErrNotWorkflowActor    = errors.New("only the assigned user can perform this action")
	ErrAdminOnly           = errors.New("administrator privileges required")
	ErrSegregationOfDuties = errors.New("author and approver must be different users unless the selected user is an administrator")
	ErrSelfApproval        = errors.New("author cannot approve their own document")
	ErrReasonRequired      = errors.New("a rejection reason is required")
	ErrInvalidReviewAction = errors.New("review action must be 'pass' or 'reject'")
)

// Review actions accepted by ValidateReview.
const (
	ReviewActionPass   = "pass"
	ReviewActionReject = "reject"
)

const workflowObjectType = "workflow"

// stageSeeds describes the task created per stage at workflow creation.
var stageSeeds = []struct {
	stage    models.WorkflowStage
	name     string
	priority models.TaskPriority
}{
	{models.StageDraft, "Create document draft", models.PriorityNormal},
	{models.StageReview, "Review document", models.PriorityHigh},
	{models.StageApproval, "Approve document", models.PriorityHigh},
	{models.StagePublication, "Publish document", models.PriorityNormal},
}

// WorkflowService drives the document approval lifecycle:
// draft → in_review → pending_approval → approved → published, with the
// reject-backtrack edge in_review → draft. Every transition mutates workflow,
// task, document and (for approval) signature state in one transaction;
// notifications go out only after commit.
type WorkflowService struct {
	db         *gorm.DB
	workflows  repository.WorkflowRepository
	tasks      repository.TaskRepository
	documents  repository.DocumentRepository
	signatures repository.SignatureRepository
	users      repository.UserRepository
	audit      repository.ActionLogRepository
	signer     *signing.Signer
	notifier   Notifier
	logger     *zap.Logger
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(
	db *gorm.DB,
	workflows repository.WorkflowRepository,
	tasks repository.TaskRepository,
	documents repository.DocumentRepository,
	signatures repository.SignatureRepository,
	users repository.UserRepository,
	audit repository.ActionLogRepository,
	signer *signing.Signer,
	notifier Notifier,
	logger *zap.Logger,
) *WorkflowService {
	return &WorkflowService{
		db:         db,
		workflows:  workflows,
		tasks:      tasks,
		documents:  documents,
		signatures: signatures,
		users:      users,
		audit:      audit,
		signer:     signer,
		notifier:   notifier,
		logger:     logger,
	}
}

// CreateWorkflowInput represents input for creating a workflow
type CreateWorkflowInput struct {
	Name        string
	Description string
	DocumentID  uint64
	AuthorID    *uint64
	ReviewerID  *uint64
	ApproverID  *uint64
	PublisherID *uint64
}

// Create assigns a document and the four role slots. Admin-only; enforces
// segregation of duties between author and approver at creation time.
func (s *WorkflowService) Create(input CreateWorkflowInput, actor *models.User) (*models.Workflow, error) {
	if !actor.IsElevated() {
		return nil, ErrAdminOnly
	}

	if err := s.checkSegregation(input.AuthorID, input.ApproverID); err != nil {
		return nil, err
	}

	document, err := s.documents.FindByID(input.DocumentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	workflow := &models.Workflow{
		Name:        input.Name,
		Description: input.Description,
		DocumentID:  input.DocumentID,
		Status:      models.WorkflowStatusDraft,
		AuthorID:    input.AuthorID,
		ReviewerID:  input.ReviewerID,
		ApproverID:  input.ApproverID,
		PublisherID: input.PublisherID,
		CreatedByID: &actor.ID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.workflows.WithTx(tx).Create(workflow); err != nil {
			return fmt.Errorf("failed to create workflow: %w", err)
		}
		if err := s.createStageTasks(tx, workflow, document); err != nil {
			return err
		}
		if err := s.documents.WithTx(tx).SetStatus(document.ID, models.DocumentStatusPending); err != nil {
			return fmt.Errorf("failed to mirror document status: %w", err)
		}
		return s.logAction(tx, &actor.ID, "create_workflow", workflow.ID, map[string]interface{}{
			"workflow_name": workflow.Name,
			"document_id":   document.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	if workflow.AuthorID != nil {
		s.notifier.Notify(workflow.ID, *workflow.AuthorID, models.NotifyWorkflowAssigned,
			fmt.Sprintf("New Workflow Assigned: %s", document.Title),
			fmt.Sprintf("A new workflow %q has been assigned to you as author for document %q. You have a pending draft task.", workflow.Name, document.Title))
	}

	s.logger.Info("workflow created",
		zap.Uint64("workflow_id", workflow.ID),
		zap.Uint64("document_id", document.ID),
		zap.Uint64("created_by", actor.ID))

	return s.workflows.FindByID(workflow.ID, "Document", "Author", "Reviewer", "Approver", "Publisher", "Tasks")
}

// createStageTasks creates one task per assigned role slot. Due dates are
// staggered per stage position; only the draft task starts visible.
func (s *WorkflowService) createStageTasks(tx *gorm.DB, workflow *models.Workflow, document *models.Document) error {
	assignees := map[models.WorkflowStage]*uint64{
		models.StageDraft:       workflow.AuthorID,
		models.StageReview:      workflow.ReviewerID,
		models.StageApproval:    workflow.ApproverID,
		models.StagePublication: workflow.PublisherID,
	}

	taskRepo := s.tasks.WithTx(tx)
	now := time.Now()
	for idx, seed := range stageSeeds {
		assignee := assignees[seed.stage]
		if assignee == nil {
			continue
		}
		task := &models.WorkflowTask{
			Name:       fmt.Sprintf("%s: %s", seed.name, document.Title),
			WorkflowID: workflow.ID,
			Stage:      seed.stage,
			AssigneeID: *assignee,
			Status:     models.TaskStatusPending,
			Priority:   seed.priority,
			DueDate:    now.Add(time.Duration(idx+1) * constants.StageDueDateSpacing),
			IsVisible:  idx == 0,
		}
		if task.IsVisible {
			task.UnlockedAt = &now
		}
		if err := taskRepo.Create(task); err != nil {
			return fmt.Errorf("failed to create %s task: %w", seed.stage, err)
		}
	}
	return nil
}

// SubmitForReview moves a draft into review: completes the draft task and
// unlocks the review task.
func (s *WorkflowService) SubmitForReview(workflowID uint64, actor *models.User) (*models.Workflow, error) {
	workflow, err := s.getWorkflow(workflowID)
	if err != nil {
		return nil, err
	}
	if workflow.Status != models.WorkflowStatusDraft {
		return nil, ErrInvalidTransition
	}
	if !s.actorHoldsRole(actor, workflow.AuthorID) {
		return nil, ErrNotWorkflowActor
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		moved, err := s.workflows.WithTx(tx).TransitionStatus(workflow.ID, models.WorkflowStatusDraft, map[string]interface{}{
			"status":       models.WorkflowStatusInReview,
			"submitted_at": now,
		})
		if err != nil {
			return err
		}
		if !moved {
			return ErrInvalidTransition
		}
		taskRepo := s.tasks.WithTx(tx)
		if err := taskRepo.UpdateStage(workflow.ID, models.StageDraft, map[string]interface{}{
			"task_status":     models.TaskStatusCompleted,
			"completed_at":    now,
			"completed_by_id": actor.ID,
		}); err != nil {
			return err
		}
		if err := s.unlockStage(taskRepo, workflow.ID, models.StageReview, now); err != nil {
			return err
		}
		return s.logAction(tx, &actor.ID, "submit_for_review", workflow.ID, map[string]interface{}{
			"submitted_at": now,
		})
	})
	if err != nil {
		return nil, err
	}

	if workflow.ReviewerID != nil {
		s.notifier.Notify(workflow.ID, *workflow.ReviewerID, models.NotifyReviewReady,
			fmt.Sprintf("Document Ready for Review: %s", workflow.Document.Title),
			fmt.Sprintf("The document %q has been submitted for your review.", workflow.Document.Title))
	}

	s.logger.Info("workflow submitted for review",
		zap.Uint64("workflow_id", workflow.ID),
		zap.Uint64("actor_id", actor.ID))

	return s.getWorkflow(workflowID)
}

// ValidateReview applies the reviewer's verdict. Reject loops the workflow
// back to draft and reopens the author's task; pass re-checks segregation of
// duties and unlocks the approval stage.
func (s *WorkflowService) ValidateReview(workflowID uint64, actor *models.User, action, reason, notes string) (*models.Workflow, error) {
	workflow, err := s.getWorkflow(workflowID)
	if err != nil {
		return nil, err
	}
	if workflow.Status != models.WorkflowStatusInReview {
		return nil, ErrInvalidTransition
	}
	if !s.actorHoldsRole(actor, workflow.ReviewerID) {
		return nil, ErrNotWorkflowActor
	}

	switch action {
	case ReviewActionReject:
		return s.rejectReview(workflow, actor, reason, notes)
	case ReviewActionPass:
		return s.passReview(workflow, actor, notes)
	default:
		return nil, ErrInvalidReviewAction
	}
}

func (s *WorkflowService) rejectReview(workflow *models.Workflow, actor *models.User, reason, notes string) (*models.Workflow, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}

	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		moved, err := s.workflows.WithTx(tx).TransitionStatus(workflow.ID, models.WorkflowStatusInReview, map[string]interface{}{
			"status": models.WorkflowStatusDraft,
		})
		if err != nil {
			return err
		}
		if !moved {
			return ErrInvalidTransition
		}
		if err := s.documents.WithTx(tx).SetStatus(workflow.DocumentID, models.DocumentStatusRejected); err != nil {
			return err
		}
		taskRepo := s.tasks.WithTx(tx)
		if err := taskRepo.UpdateStage(workflow.ID, models.StageReview, map[string]interface{}{
			"task_status":      models.TaskStatusRejected,
			"rejection_reason": reason,
			"notes":            notes,
			"completed_at":     now,
			"completed_by_id":  actor.ID,
		}); err != nil {
			return err
		}
		// Reopen the author's task; nothing is re-locked on the way back.
		if err := taskRepo.UpdateStage(workflow.ID, models.StageDraft, map[string]interface{}{
			"task_status": models.TaskStatusPending,
			"is_visible":  true,
			"notes":       fmt.Sprintf("Rejected by reviewer: %s", reason),
		}); err != nil {
			return err
		}
		return s.logAction(tx, &actor.ID, "reject_review", workflow.ID, map[string]interface{}{
			"reason": reason,
			"notes":  notes,
		})
	})
	if err != nil {
		return nil, err
	}

	if workflow.AuthorID != nil {
		s.notifier.Notify(workflow.ID, *workflow.AuthorID, models.NotifyReviewRejected,
			fmt.Sprintf("Document Rejected: %s", workflow.Document.Title),
			fmt.Sprintf("Your document %q was rejected during review. Reason: %s", workflow.Document.Title, reason))
	}

	s.logger.Info("workflow review rejected",
		zap.Uint64("workflow_id", workflow.ID),
		zap.String("reason", reason))

	return s.getWorkflow(workflow.ID)
}

func (s *WorkflowService) passReview(workflow *models.Workflow, actor *models.User, notes string) (*models.Workflow, error) {
	// Defense in depth: the author/approver pair may have been reassigned
	// since creation, so segregation is re-checked before any unlock.
	if err := s.checkSegregation(workflow.AuthorID, workflow.ApproverID); err != nil {
		return nil, err
	}

	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		moved, err := s.workflows.WithTx(tx).TransitionStatus(workflow.ID, models.WorkflowStatusInReview, map[string]interface{}{
			"status":      models.WorkflowStatusPendingApproval,
			"reviewed_at": now,
		})
		if err != nil {
			return err
		}
		if !moved {
			return ErrInvalidTransition
		}
		taskRepo := s.tasks.WithTx(tx)
		if err := taskRepo.UpdateStage(workflow.ID, models.StageReview, map[string]interface{}{
			"task_status":     models.TaskStatusCompleted,
			"notes":           notes,
			"completed_at":    now,
			"completed_by_id": actor.ID,
		}); err != nil {
			return err
		}
		if err := s.unlockStage(taskRepo, workflow.ID, models.StageApproval, now); err != nil {
			return err
		}
		return s.logAction(tx, &actor.ID, "validate_review", workflow.ID, map[string]interface{}{
			"reviewed_at": now,
			"notes":       notes,
		})
	})
	if err != nil {
		return nil, err
	}

	if workflow.ApproverID != nil {
		s.notifier.Notify(workflow.ID, *workflow.ApproverID, models.NotifyApprovalReady,
			fmt.Sprintf("Document Requires Approval: %s", workflow.Document.Title),
			fmt.Sprintf("The document %q has passed review and requires your approval.", workflow.Document.Title))
	}

	s.logger.Info("workflow review passed", zap.Uint64("workflow_id", workflow.ID))

	return s.getWorkflow(workflow.ID)
}

// ApproveAndSign records an electronic signature and advances the workflow to
// approved. Segregation of duties is enforced again at the point of signing.
func (s *WorkflowService) ApproveAndSign(workflowID uint64, actor *models.User, ip, userAgent string) (*models.Workflow, *models.ElectronicSignature, error) {
	workflow, err := s.getWorkflow(workflowID)
	if err != nil {
		return nil, nil, err
	}
	if workflow.Status != models.WorkflowStatusPendingApproval {
		return nil, nil, ErrInvalidTransition
	}
	if !s.actorHoldsRole(actor, workflow.ApproverID) {
		return nil, nil, ErrNotWorkflowActor
	}
	if workflow.AuthorID != nil && *workflow.AuthorID == actor.ID && !actor.IsElevated() {
		return nil, nil, ErrSelfApproval
	}

	now := time.Now()
	nonce := uuid.NewString()
	hash := s.signer.Sign(workflow.ID, actor.ID, now, nonce)
	if len(userAgent) > 255 {
		userAgent = userAgent[:255]
	}
	signature := &models.ElectronicSignature{
		WorkflowID:    workflow.ID,
		SignedByID:    actor.ID,
		SignedAt:      now,
		SignatureHash: hash,
		Nonce:         nonce,
		IPAddress:     ip,
		UserAgent:     userAgent,
		Stage:         string(models.StageApproval),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Claim the transition before writing the signature row so a
		// concurrent duplicate approval cannot sign twice.
		moved, err := s.workflows.WithTx(tx).TransitionStatus(workflow.ID, models.WorkflowStatusPendingApproval, map[string]interface{}{
			"status":      models.WorkflowStatusApproved,
			"approved_at": now,
		})
		if err != nil {
			return err
		}
		if !moved {
			return ErrInvalidTransition
		}
		if err := s.signatures.WithTx(tx).Create(signature); err != nil {
			return err
		}
		if err := s.documents.WithTx(tx).SetStatus(workflow.DocumentID, models.DocumentStatusApproved); err != nil {
			return err
		}
		taskRepo := s.tasks.WithTx(tx)
		if err := taskRepo.UpdateStage(workflow.ID, models.StageApproval, map[string]interface{}{
			"task_status":     models.TaskStatusCompleted,
			"completed_at":    now,
			"completed_by_id": actor.ID,
			"notes":           fmt.Sprintf("Electronically signed: %s...", hash[:constants.SignatureNotePrefixLen]),
		}); err != nil {
			return err
		}
		if err := s.unlockStage(taskRepo, workflow.ID, models.StagePublication, now); err != nil {
			return err
		}
		return s.logAction(tx, &actor.ID, "approve_sign", workflow.ID, map[string]interface{}{
			"approved_at":    now,
			"signature_hash": hash,
			"ip_address":     ip,
		})
	})
	if err != nil {
		return nil, nil, err
	}

	if workflow.PublisherID != nil {
		s.notifier.Notify(workflow.ID, *workflow.PublisherID, models.NotifyPublishReady,
			fmt.Sprintf("Document Ready to Publish: %s", workflow.Document.Title),
			fmt.Sprintf("The document %q has been approved and is ready for publication.", workflow.Document.Title))
	}

	s.logger.Info("workflow approved and signed",
		zap.Uint64("workflow_id", workflow.ID),
		zap.Uint64("signed_by", actor.ID))

	updated, err := s.getWorkflow(workflow.ID)
	if err != nil {
		return nil, nil, err
	}
	return updated, signature, nil
}

// Publish releases the document: status mirror flips to public and the
// document is locked as the immutable original.
func (s *WorkflowService) Publish(workflowID uint64, actor *models.User) (*models.Workflow, error) {
	workflow, err := s.getWorkflow(workflowID)
	if err != nil {
		return nil, err
	}
	if workflow.Status != models.WorkflowStatusApproved {
		return nil, ErrInvalidTransition
	}
	if !s.actorHoldsRole(actor, workflow.PublisherID) {
		return nil, ErrNotWorkflowActor
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		moved, err := s.workflows.WithTx(tx).TransitionStatus(workflow.ID, models.WorkflowStatusApproved, map[string]interface{}{
			"status":       models.WorkflowStatusPublished,
			"published_at": now,
		})
		if err != nil {
			return err
		}
		if !moved {
			return ErrInvalidTransition
		}
		docRepo := s.documents.WithTx(tx)
		if err := docRepo.SetStatus(workflow.DocumentID, models.DocumentStatusPublic); err != nil {
			return err
		}
		if err := docRepo.MarkOriginal(workflow.DocumentID); err != nil {
			return err
		}
		if err := s.tasks.WithTx(tx).UpdateStage(workflow.ID, models.StagePublication, map[string]interface{}{
			"task_status":     models.TaskStatusCompleted,
			"completed_at":    now,
			"completed_by_id": actor.ID,
		}); err != nil {
			return err
		}
		return s.logAction(tx, &actor.ID, "publish_document", workflow.ID, map[string]interface{}{
			"published_at": now,
		})
	})
	if err != nil {
		return nil, err
	}

	// Each role-holder is notified independently; one failure must not stop
	// the others.
	for _, recipientID := range workflow.RoleHolderIDs() {
		s.notifier.Notify(workflow.ID, recipientID, models.NotifyDocumentPublished,
			fmt.Sprintf("Document Published: %s", workflow.Document.Title),
			fmt.Sprintf("The document %q has been published and is now locked as the immutable original.", workflow.Document.Title))
	}

	s.logger.Info("workflow published", zap.Uint64("workflow_id", workflow.ID))

	return s.getWorkflow(workflow.ID)
}

// AssignUsersInput carries role reassignments; nil fields are left unchanged.
type AssignUsersInput struct {
	AuthorID    *uint64
	ReviewerID  *uint64
	ApproverID  *uint64
	PublisherID *uint64
}

// AssignUsers reassigns role slots and moves the matching active tasks to the
// new users. Completed and rejected tasks keep their original assignee.
func (s *WorkflowService) AssignUsers(workflowID uint64, actor *models.User, input AssignUsersInput) (*models.Workflow, error) {
	if !actor.IsElevated() {
		return nil, ErrAdminOnly
	}
	workflow, err := s.getWorkflow(workflowID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	reassignments := map[models.WorkflowStage]uint64{}
	if input.AuthorID != nil {
		updates["author_id"] = *input.AuthorID
		reassignments[models.StageDraft] = *input.AuthorID
	}
	if input.ReviewerID != nil {
		updates["reviewer_id"] = *input.ReviewerID
		reassignments[models.StageReview] = *input.ReviewerID
	}
	if input.ApproverID != nil {
		updates["approver_id"] = *input.ApproverID
		reassignments[models.StageApproval] = *input.ApproverID
	}
	if input.PublisherID != nil {
		updates["publisher_id"] = *input.PublisherID
		reassignments[models.StagePublication] = *input.PublisherID
	}
	if len(updates) == 0 {
		return workflow, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.workflows.WithTx(tx).UpdateFields(workflow.ID, updates); err != nil {
			return err
		}
		taskRepo := s.tasks.WithTx(tx)
		for stage, assigneeID := range reassignments {
			if err := taskRepo.ReassignActive(workflow.ID, stage, assigneeID); err != nil {
				return err
			}
		}
		fields := make([]string, 0, len(updates))
		for field := range updates {
			fields = append(fields, field)
		}
		return s.logAction(tx, &actor.ID, "reassign_workflow_users", workflow.ID, map[string]interface{}{
			"updated_fields": fields,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.getWorkflow(workflow.ID)
}

// Get returns a workflow with full relations, hiding its existence from users
// who hold no role on it.
func (s *WorkflowService) Get(workflowID uint64, actor *models.User) (*models.Workflow, error) {
	workflow, err := s.workflows.FindByID(workflowID,
		"Document", "Author", "Reviewer", "Approver", "Publisher", "CreatedBy", "Tasks", "Signatures")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkflowNotFound
		}
		return nil, fmt.Errorf("failed to find workflow: %w", err)
	}
	if !actor.IsElevated() && !s.userInvolved(workflow, actor.ID) {
		return nil, ErrWorkflowNotFound
	}
	return workflow, nil
}

// ListMine returns workflows the user holds a role on; admins see all.
func (s *WorkflowService) ListMine(actor *models.User, page, pageSize int) ([]models.Workflow, int64, error) {
	if actor.IsElevated() {
		return s.workflows.ListAll(page, pageSize)
	}
	return s.workflows.ListInvolving(actor.ID, page, pageSize)
}

// ListPendingAction returns workflows whose current stage awaits the user.
func (s *WorkflowService) ListPendingAction(actor *models.User) ([]models.Workflow, error) {
	return s.workflows.ListPendingAction(actor.ID)
}

// CountByStatus returns workflow counts grouped by status.
func (s *WorkflowService) CountByStatus() (map[models.WorkflowStatus]int64, error) {
	return s.workflows.CountByStatus()
}

// History returns the audit log entries of a workflow.
func (s *WorkflowService) History(workflowID uint64) ([]models.UserActionLog, error) {
	return s.audit.ListByObject(workflowObjectType, workflowID)
}

func (s *WorkflowService) getWorkflow(workflowID uint64) (*models.Workflow, error) {
	workflow, err := s.workflows.FindByID(workflowID, "Document")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkflowNotFound
		}
		return nil, fmt.Errorf("failed to find workflow: %w", err)
	}
	return workflow, nil
}

// actorHoldsRole reports whether the actor owns the role slot or is elevated.
// A nil slot can only be acted on by elevated users.
func (s *WorkflowService) actorHoldsRole(actor *models.User, roleID *uint64) bool {
	if actor.IsElevated() {
		return true
	}
	return roleID != nil && *roleID == actor.ID
}

// checkSegregation fails when author and approver are the same non-elevated
// user.
func (s *WorkflowService) checkSegregation(authorID, approverID *uint64) error {
	if authorID == nil || approverID == nil || *authorID != *approverID {
		return nil
	}
	shared, err := s.users.FindByID(*authorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSegregationOfDuties
		}
		return fmt.Errorf("failed to verify role holder: %w", err)
	}
	if !shared.IsElevated() {
		return ErrSegregationOfDuties
	}
	return nil
}

// unlockStage makes the stage's task visible. A missing task (unassigned role
// slot) is not an error; the transition simply skips it.
func (s *WorkflowService) unlockStage(taskRepo repository.TaskRepository, workflowID uint64, stage models.WorkflowStage, now time.Time) error {
	if _, err := taskRepo.FindByStage(workflowID, stage); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return taskRepo.UpdateStage(workflowID, stage, map[string]interface{}{
		"is_visible":  true,
		"unlocked_at": now,
	})
}

func (s *WorkflowService) userInvolved(workflow *models.Workflow, userID uint64) bool {
	for _, ref := range []*uint64{workflow.AuthorID, workflow.ReviewerID, workflow.ApproverID, workflow.PublisherID, workflow.CreatedByID} {
		if ref != nil && *ref == userID {
			return true
		}
	}
	return false
}

func (s *WorkflowService) logAction(tx *gorm.DB, userID *uint64, action string, objectID uint64, extra map[string]interface{}) error {
	info, err := json.Marshal(extra)
	if err != nil {
		return fmt.Errorf("failed to encode audit info: %w", err)
	}
	return s.audit.WithTx(tx).Create(&models.UserActionLog{
		UserID:     userID,
		Action:     action,
		ObjectType: workflowObjectType,
		ObjectID:   objectID,
		ExtraInfo:  string(info),
	})
}
