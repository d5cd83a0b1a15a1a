package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ayoubbns/document-control-api/internal/models"
	"github.com/ayoubbns/document-control-api/internal/repository"
	"github.com/ayoubbns/document-control-api/internal/signing"
)

// notifierStub records notification calls in order.
type notifierStub struct {
	events []notifierEvent
}

type notifierEvent struct {
	WorkflowID  uint64
	RecipientID uint64
	Type        string
}

func (n *notifierStub) Notify(workflowID, recipientID uint64, notificationType, subject, message string) {
	n.events = append(n.events, notifierEvent{
		WorkflowID:  workflowID,
		RecipientID: recipientID,
		Type:        notificationType,
	})
}

// WorkflowServiceTestSuite defines the test suite for WorkflowService
type WorkflowServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	service  *WorkflowService
	signer   *signing.Signer
	notifier *notifierStub

	admin     *models.User
	author    *models.User
	reviewer  *models.User
	approver  *models.User
	publisher *models.User
}

// SetupTest runs before each test
func (suite *WorkflowServiceTestSuite) SetupTest() {
	var err error
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Folder{},
		&models.Document{},
		&models.Workflow{},
		&models.WorkflowTask{},
		&models.ElectronicSignature{},
		&models.WorkflowNotification{},
		&models.DocumentArchive{},
		&models.UserActionLog{},
	)
	suite.Require().NoError(err)

	suite.signer = signing.NewSigner([]byte("test-signing-secret"))
	suite.notifier = &notifierStub{}
	suite.service = NewWorkflowService(
		suite.db,
		repository.NewWorkflowRepository(suite.db),
		repository.NewTaskRepository(suite.db),
		repository.NewDocumentRepository(suite.db),
		repository.NewSignatureRepository(suite.db),
		repository.NewUserRepository(suite.db),
		repository.NewActionLogRepository(suite.db),
		suite.signer,
		suite.notifier,
		zap.NewNop(),
	)

	suite.admin = suite.createUser("admin", true)
	suite.author = suite.createUser("author", false)
	suite.reviewer = suite.createUser("reviewer", false)
	suite.approver = suite.createUser("approver", false)
	suite.publisher = suite.createUser("publisher", false)
}

// TearDownTest runs after each test
func (suite *WorkflowServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *WorkflowServiceTestSuite) createUser(username string, admin bool) *models.User {
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashedpassword",
		IsAdmin:      admin,
	}
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func (suite *WorkflowServiceTestSuite) createDocument(title string) *models.Document {
	doc := &models.Document{
		Title:     title,
		Path:      "2026/01/" + title,
		DocStatus: models.DocumentStatusDraft,
		OwnerID:   suite.author.ID,
	}
	suite.Require().NoError(suite.db.Create(doc).Error)
	return doc
}

func (suite *WorkflowServiceTestSuite) createWorkflow() *models.Workflow {
	doc := suite.createDocument("Quality Manual")
	workflow, err := suite.service.Create(CreateWorkflowInput{
		Name:        "Quality Manual Approval",
		DocumentID:  doc.ID,
		AuthorID:    &suite.author.ID,
		ReviewerID:  &suite.reviewer.ID,
		ApproverID:  &suite.approver.ID,
		PublisherID: &suite.publisher.ID,
	}, suite.admin)
	suite.Require().NoError(err)
	return workflow
}

func (suite *WorkflowServiceTestSuite) taskForStage(workflowID uint64, stage models.WorkflowStage) *models.WorkflowTask {
	var task models.WorkflowTask
	err := suite.db.Where("workflow_id = ? AND stage = ?", workflowID, stage).First(&task).Error
	suite.Require().NoError(err)
	return &task
}

func (suite *WorkflowServiceTestSuite) documentOf(workflow *models.Workflow) *models.Document {
	var doc models.Document
	suite.Require().NoError(suite.db.First(&doc, workflow.DocumentID).Error)
	return &doc
}

func (suite *WorkflowServiceTestSuite) TestCreateBuildsStageTasks() {
	workflow := suite.createWorkflow()

	suite.Equal(models.WorkflowStatusDraft, workflow.Status)
	suite.Len(workflow.Tasks, 4)

	draft := suite.taskForStage(workflow.ID, models.StageDraft)
	review := suite.taskForStage(workflow.ID, models.StageReview)
	approval := suite.taskForStage(workflow.ID, models.StageApproval)
	publication := suite.taskForStage(workflow.ID, models.StagePublication)

	suite.Equal("Create document draft: Quality Manual", draft.Name)
	suite.Equal("Review document: Quality Manual", review.Name)
	suite.Equal("Approve document: Quality Manual", approval.Name)
	suite.Equal("Publish document: Quality Manual", publication.Name)

	suite.Equal(models.PriorityNormal, draft.Priority)
	suite.Equal(models.PriorityHigh, review.Priority)
	suite.Equal(models.PriorityHigh, approval.Priority)
	suite.Equal(models.PriorityNormal, publication.Priority)

	// Only the first stage is visible at creation.
	suite.True(draft.IsVisible)
	suite.False(review.IsVisible)
	suite.False(approval.IsVisible)
	suite.False(publication.IsVisible)

	// Due dates are staggered one week per stage.
	suite.True(review.DueDate.After(draft.DueDate))
	suite.True(approval.DueDate.After(review.DueDate))
	suite.True(publication.DueDate.After(approval.DueDate))

	// Document status mirrors workflow creation.
	suite.Equal(models.DocumentStatusPending, suite.documentOf(workflow).DocStatus)

	// The author is notified about the assignment.
	suite.Require().Len(suite.notifier.events, 1)
	suite.Equal(suite.author.ID, suite.notifier.events[0].RecipientID)
	suite.Equal(models.NotifyWorkflowAssigned, suite.notifier.events[0].Type)
}

func (suite *WorkflowServiceTestSuite) TestCreateSkipsUnassignedSlots() {
	doc := suite.createDocument("Partial")
	workflow, err := suite.service.Create(CreateWorkflowInput{
		Name:       "Partial Workflow",
		DocumentID: doc.ID,
		AuthorID:   &suite.author.ID,
		ReviewerID: &suite.reviewer.ID,
	}, suite.admin)
	suite.Require().NoError(err)

	var count int64
	suite.db.Model(&models.WorkflowTask{}).Where("workflow_id = ?", workflow.ID).Count(&count)
	suite.Equal(int64(2), count)
}

func (suite *WorkflowServiceTestSuite) TestCreateRequiresAdmin() {
	doc := suite.createDocument("Doc")
	_, err := suite.service.Create(CreateWorkflowInput{
		Name:       "Workflow",
		DocumentID: doc.ID,
	}, suite.author)
	suite.ErrorIs(err, ErrAdminOnly)
}

func (suite *WorkflowServiceTestSuite) TestCreateEnforcesSegregationOfDuties() {
	doc := suite.createDocument("Doc")
	_, err := suite.service.Create(CreateWorkflowInput{
		Name:       "Workflow",
		DocumentID: doc.ID,
		AuthorID:   &suite.author.ID,
		ApproverID: &suite.author.ID,
	}, suite.admin)
	suite.ErrorIs(err, ErrSegregationOfDuties)

	// A shared elevated user is allowed.
	_, err = suite.service.Create(CreateWorkflowInput{
		Name:       "Admin Workflow",
		DocumentID: doc.ID,
		AuthorID:   &suite.admin.ID,
		ApproverID: &suite.admin.ID,
	}, suite.admin)
	suite.NoError(err)
}

func (suite *WorkflowServiceTestSuite) TestSubmitForReview() {
	workflow := suite.createWorkflow()
	suite.notifier.events = nil

	updated, err := suite.service.SubmitForReview(workflow.ID, suite.author)
	suite.Require().NoError(err)
	suite.Equal(models.WorkflowStatusInReview, updated.Status)
	suite.NotNil(updated.SubmittedAt)

	draft := suite.taskForStage(workflow.ID, models.StageDraft)
	suite.Equal(models.TaskStatusCompleted, draft.Status)
	suite.NotNil(draft.CompletedAt)

	review := suite.taskForStage(workflow.ID, models.StageReview)
	suite.True(review.IsVisible)
	suite.NotNil(review.UnlockedAt)

	suite.Require().Len(suite.notifier.events, 1)
	suite.Equal(suite.reviewer.ID, suite.notifier.events[0].RecipientID)
	suite.Equal(models.NotifyReviewReady, suite.notifier.events[0].Type)
}

func (suite *WorkflowServiceTestSuite) TestSubmitForReviewGuards() {
	workflow := suite.createWorkflow()

	_, err := suite.service.SubmitForReview(workflow.ID, suite.reviewer)
	suite.ErrorIs(err, ErrNotWorkflowActor)

	_, err = suite.service.SubmitForReview(workflow.ID, suite.author)
	suite.Require().NoError(err)

	// Already in review: submitting again is an invalid transition.
	_, err = suite.service.SubmitForReview(workflow.ID, suite.author)
	suite.ErrorIs(err, ErrInvalidTransition)
}

func (suite *WorkflowServiceTestSuite) TestRejectReviewLoopsBackToDraft() {
	workflow := suite.createWorkflow()
	_, err := suite.service.SubmitForReview(workflow.ID, suite.author)
	suite.Require().NoError(err)
	suite.notifier.events = nil

	updated, err := suite.service.ValidateReview(workflow.ID, suite.reviewer, ReviewActionReject, "missing references", "see section 3")
	suite.Require().NoError(err)
	suite.Equal(models.WorkflowStatusDraft, updated.Status)
	suite.Equal(models.DocumentStatusRejected, suite.documentOf(updated).DocStatus)

	review := suite.taskForStage(workflow.ID, models.StageReview)
	suite.Equal(models.TaskStatusRejected, review.Status)
	suite.Equal("missing references", review.RejectionReason)
	suite.NotNil(review.CompletedAt)

	draft := suite.taskForStage(workflow.ID, models.StageDraft)
	suite.Equal(models.TaskStatusPending, draft.Status)
	suite.True(draft.IsVisible)
	suite.Equal("Rejected by reviewer: missing references", draft.Notes)

	suite.Require().Len(suite.notifier.events, 1)
	suite.Equal(suite.author.ID, suite.notifier.events[0].RecipientID)
	suite.Equal(models.NotifyReviewRejected, suite.notifier.events[0].Type)
}

func (suite *WorkflowServiceTestSuite) TestRejectReviewRequiresReason() {
	workflow := suite.createWorkflow()
	_, err := suite.service.SubmitForReview(workflow.ID, suite.author)
	suite.Require().NoError(err)

	_, err = suite.service.ValidateReview(workflow.ID, suite.reviewer, ReviewActionReject, "", "")
	suite.ErrorIs(err, ErrReasonRequired)
}

func (suite *WorkflowServiceTestSuite) TestValidateReviewRejectsUnknownAction() {
	workflow := suite.createWorkflow()
	_, err := suite.service.SubmitForReview(workflow.ID, suite.author)
	suite.Require().NoError(err)

	_, err = suite.service.ValidateReview(workflow.ID, suite.reviewer, "maybe", "", "")
	suite.ErrorIs(err, ErrInvalidReviewAction)
}

func (suite *WorkflowServiceTestSuite) TestPassReviewUnlocksApproval() {
	workflow := suite.createWorkflow()
	_, err := suite.service.SubmitForReview(workflow.ID, suite.author)
	suite.Require().NoError(err)
	suite.notifier.events = nil

	updated, err := suite.service.ValidateReview(workflow.ID, suite.reviewer, ReviewActionPass, "", "looks good")
	suite.Require().NoError(err)
	suite.Equal(models.WorkflowStatusPendingApproval, updated.Status)
	suite.NotNil(updated.ReviewedAt)

	review := suite.taskForStage(workflow.ID, models.StageReview)
	suite.Equal(models.TaskStatusCompleted, review.Status)
	suite.Equal("looks good", review.Notes)

	approval := suite.taskForStage(workflow.ID, models.StageApproval)
	suite.True(approval.IsVisible)

	suite.Require().Len(suite.notifier.events, 1)
	suite.Equal(suite.approver.ID, suite.notifier.events[0].RecipientID)
	suite.Equal(models.NotifyApprovalReady, suite.notifier.events[0].Type)
}

func (suite *WorkflowServiceTestSuite) TestPassReviewRechecksSegregation() {
	workflow := suite.createWorkflow()
	_, err := suite.service.SubmitForReview(workflow.ID, suite.author)
	suite.Require().NoError(err)

	// Reassign the approver slot to the author after creation.
	_, err = suite.service.AssignUsers(workflow.ID, suite.admin, AssignUsersInput{ApproverID: &suite.author.ID})
	suite.Require().NoError(err)

	_, err = suite.service.ValidateReview(workflow.ID, suite.reviewer, ReviewActionPass, "", "")
	suite.ErrorIs(err, ErrSegregationOfDuties)

	// The approval task must not have been unlocked.
	approval := suite.taskForStage(workflow.ID, models.StageApproval)
	suite.False(approval.IsVisible)
}

func (suite *WorkflowServiceTestSuite) TestApproveAndSign() {
	workflow := suite.createWorkflow()
	_, err := suite.service.SubmitForReview(workflow.ID, suite.author)
	suite.Require().NoError(err)
	_, err = suite.service.ValidateReview(workflow.ID, suite.reviewer, ReviewActionPass, "", "")
	suite.Require().NoError(err)
	suite.notifier.events = nil

	updated, signature, err := suite.service.ApproveAndSign(workflow.ID, suite.approver, "10.0.0.5", "go-test")
	suite.Require().NoError(err)
	suite.Equal(models.WorkflowStatusApproved, updated.Status)
	suite.NotNil(updated.ApprovedAt)
	suite.Equal(models.DocumentStatusApproved, suite.documentOf(updated).DocStatus)

	// The stored hash recomputes from the persisted signing inputs.
	suite.Require().NotNil(signature)
	suite.True(suite.signer.Verify(signature.WorkflowID, signature.SignedByID, signature.SignedAt, signature.Nonce, signature.SignatureHash))
	suite.Equal("10.0.0.5", signature.IPAddress)

	approval := suite.taskForStage(workflow.ID, models.StageApproval)
	suite.Equal(models.TaskStatusCompleted, approval.Status)
	suite.Contains(approval.Notes, "Electronically signed: ")

	publication := suite.taskForStage(workflow.ID, models.StagePublication)
	suite.True(publication.IsVisible)

	suite.Require().Len(suite.notifier.events, 1)
	suite.Equal(suite.publisher.ID, suite.notifier.events[0].RecipientID)
	suite.Equal(models.NotifyPublishReady, suite.notifier.events[0].Type)
}

func (suite *WorkflowServiceTestSuite) TestApproveRejectsSelfApproval() {
	doc := suite.createDocument("Self Doc")
	workflow, err := suite.service.Create(CreateWorkflowInput{
		Name:       "Self Approval",
		DocumentID: doc.ID,
		AuthorID:   &suite.admin.ID,
		ReviewerID: &suite.reviewer.ID,
		ApproverID: &suite.admin.ID,
	}, suite.admin)
	suite.Require().NoError(err)

	// Non-elevated author==approver is caught at signing too: move the
	// role slots to the author after creation passes the admin exemption.
	_, err = suite.service.SubmitForReview(workflow.ID, suite.admin)
	suite.Require().NoError(err)
	_, err = suite.service.ValidateReview(workflow.ID, suite.reviewer, ReviewActionPass, "", "")
	suite.Require().NoError(err)

	_, err = suite.service.AssignUsers(workflow.ID, suite.admin, AssignUsersInput{
		AuthorID:   &suite.author.ID,
		ApproverID: &suite.author.ID,
	})
	suite.Require().NoError(err)

	_, _, err = suite.service.ApproveAndSign(workflow.ID, suite.author, "", "")
	suite.ErrorIs(err, ErrSelfApproval)

	// No signature row may exist after a refused signing.
	var count int64
	suite.db.Model(&models.ElectronicSignature{}).Where("workflow_id = ?", workflow.ID).Count(&count)
	suite.Equal(int64(0), count)
}

func (suite *WorkflowServiceTestSuite) TestApproveRequiresPendingApproval() {
	workflow := suite.createWorkflow()
	_, _, err := suite.service.ApproveAndSign(workflow.ID, suite.approver, "", "")
	suite.ErrorIs(err, ErrInvalidTransition)
}

func (suite *WorkflowServiceTestSuite) TestDuplicateApproveLeavesSingleSignature() {
	workflow := suite.createWorkflow()
	_, err := suite.service.SubmitForReview(workflow.ID, suite.author)
	suite.Require().NoError(err)
	_, err = suite.service.ValidateReview(workflow.ID, suite.reviewer, ReviewActionPass, "", "")
	suite.Require().NoError(err)

	_, _, err = suite.service.ApproveAndSign(workflow.ID, suite.approver, "", "")
	suite.Require().NoError(err)

	_, _, err = suite.service.ApproveAndSign(workflow.ID, suite.approver, "", "")
	suite.ErrorIs(err, ErrInvalidTransition)

	var count int64
	suite.Require().NoError(suite.db.Model(&models.ElectronicSignature{}).
		Where("workflow_id = ?", workflow.ID).
		Count(&count).Error)
	suite.Equal(int64(1), count)
}

func (suite *WorkflowServiceTestSuite) TestPublish() {
	workflow := suite.createWorkflow()
	_, err := suite.service.SubmitForReview(workflow.ID, suite.author)
	suite.Require().NoError(err)
	_, err = suite.service.ValidateReview(workflow.ID, suite.reviewer, ReviewActionPass, "", "")
	suite.Require().NoError(err)
	_, _, err = suite.service.ApproveAndSign(workflow.ID, suite.approver, "", "")
	suite.Require().NoError(err)
	suite.notifier.events = nil

	updated, err := suite.service.Publish(workflow.ID, suite.publisher)
	suite.Require().NoError(err)
	suite.Equal(models.WorkflowStatusPublished, updated.Status)
	suite.NotNil(updated.PublishedAt)

	doc := suite.documentOf(updated)
	suite.Equal(models.DocumentStatusPublic, doc.DocStatus)
	suite.Equal(models.DocStatusTypeOriginal, doc.DocStatusType)

	publication := suite.taskForStage(workflow.ID, models.StagePublication)
	suite.Equal(models.TaskStatusCompleted, publication.Status)

	// Every role holder is notified once.
	suite.Len(suite.notifier.events, 4)
	recipients := map[uint64]bool{}
	for _, event := range suite.notifier.events {
		suite.Equal(models.NotifyDocumentPublished, event.Type)
		recipients[event.RecipientID] = true
	}
	suite.Len(recipients, 4)
}

func (suite *WorkflowServiceTestSuite) TestAssignUsersReassignsOnlyActiveTasks() {
	workflow := suite.createWorkflow()
	_, err := suite.service.SubmitForReview(workflow.ID, suite.author)
	suite.Require().NoError(err)

	replacement := suite.createUser("replacement", false)
	_, err = suite.service.AssignUsers(workflow.ID, suite.admin, AssignUsersInput{
		AuthorID:   &replacement.ID,
		ReviewerID: &replacement.ID,
	})
	suite.Require().NoError(err)

	// The completed draft task keeps its original assignee.
	draft := suite.taskForStage(workflow.ID, models.StageDraft)
	suite.Equal(suite.author.ID, draft.AssigneeID)

	// The still-open review task moves to the replacement.
	review := suite.taskForStage(workflow.ID, models.StageReview)
	suite.Equal(replacement.ID, review.AssigneeID)
}

func (suite *WorkflowServiceTestSuite) TestAssignUsersRequiresAdmin() {
	workflow := suite.createWorkflow()
	_, err := suite.service.AssignUsers(workflow.ID, suite.author, AssignUsersInput{ReviewerID: &suite.author.ID})
	suite.ErrorIs(err, ErrAdminOnly)
}

func (suite *WorkflowServiceTestSuite) TestGetHidesWorkflowFromOutsiders() {
	workflow := suite.createWorkflow()

	outsider := suite.createUser("outsider", false)
	_, err := suite.service.Get(workflow.ID, outsider)
	suite.ErrorIs(err, ErrWorkflowNotFound)

	// Role holders and admins see it.
	_, err = suite.service.Get(workflow.ID, suite.reviewer)
	suite.NoError(err)
	_, err = suite.service.Get(workflow.ID, suite.admin)
	suite.NoError(err)
}

func (suite *WorkflowServiceTestSuite) TestListPendingAction() {
	workflow := suite.createWorkflow()

	pending, err := suite.service.ListPendingAction(suite.author)
	suite.Require().NoError(err)
	suite.Len(pending, 1)

	pending, err = suite.service.ListPendingAction(suite.reviewer)
	suite.Require().NoError(err)
	suite.Empty(pending)

	_, err = suite.service.SubmitForReview(workflow.ID, suite.author)
	suite.Require().NoError(err)

	pending, err = suite.service.ListPendingAction(suite.reviewer)
	suite.Require().NoError(err)
	suite.Len(pending, 1)

	pending, err = suite.service.ListPendingAction(suite.author)
	suite.Require().NoError(err)
	suite.Empty(pending)
}

func (suite *WorkflowServiceTestSuite) TestHistoryRecordsTransitions() {
	workflow := suite.createWorkflow()
	_, err := suite.service.SubmitForReview(workflow.ID, suite.author)
	suite.Require().NoError(err)

	entries, err := suite.service.History(workflow.ID)
	suite.Require().NoError(err)
	suite.Require().Len(entries, 2)

	actions := []string{entries[0].Action, entries[1].Action}
	suite.Contains(actions, "create_workflow")
	suite.Contains(actions, "submit_for_review")
}

func (suite *WorkflowServiceTestSuite) TestTransitionStatusRefusesStaleState() {
	workflow := suite.createWorkflow()
	repo := repository.NewWorkflowRepository(suite.db)

	moved, err := repo.TransitionStatus(workflow.ID, models.WorkflowStatusDraft, map[string]interface{}{
		"status": models.WorkflowStatusInReview,
	})
	suite.Require().NoError(err)
	suite.True(moved)

	// A second writer that read the same draft state must lose.
	moved, err = repo.TransitionStatus(workflow.ID, models.WorkflowStatusDraft, map[string]interface{}{
		"status": models.WorkflowStatusInReview,
	})
	suite.Require().NoError(err)
	suite.False(moved)

	var current models.Workflow
	suite.Require().NoError(suite.db.First(&current, workflow.ID).Error)
	suite.Equal(models.WorkflowStatusInReview, current.Status)
}

func TestWorkflowServiceTestSuite(t *testing.T) {
	suite.Run(t, new(WorkflowServiceTestSuite))
}
