package services

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ayoubbns/document-control-api/internal/models"
	"github.com/ayoubbns/document-control-api/internal/repository"
)

// TaskServiceTestSuite defines the test suite for TaskService
type TaskServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *TaskService

	admin    *models.User
	assignee *models.User
	other    *models.User
	workflow *models.Workflow
}

// SetupTest runs before each test
func (suite *TaskServiceTestSuite) SetupTest() {
	var err error
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Document{},
		&models.Workflow{},
		&models.WorkflowTask{},
		&models.UserActionLog{},
	)
	suite.Require().NoError(err)

	suite.service = NewTaskService(
		suite.db,
		repository.NewTaskRepository(suite.db),
		repository.NewActionLogRepository(suite.db),
		zap.NewNop(),
	)

	suite.admin = suite.createUser("admin", true)
	suite.assignee = suite.createUser("assignee", false)
	suite.other = suite.createUser("other", false)

	doc := &models.Document{Title: "Doc", Path: "p", OwnerID: suite.assignee.ID}
	suite.Require().NoError(suite.db.Create(doc).Error)
	suite.workflow = &models.Workflow{Name: "WF", DocumentID: doc.ID, Status: models.WorkflowStatusDraft}
	suite.Require().NoError(suite.db.Create(suite.workflow).Error)
}

// TearDownTest runs after each test
func (suite *TaskServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *TaskServiceTestSuite) createUser(username string, admin bool) *models.User {
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashedpassword",
		IsAdmin:      admin,
	}
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func (suite *TaskServiceTestSuite) createTask(stage models.WorkflowStage, visible bool, due time.Time) *models.WorkflowTask {
	task := &models.WorkflowTask{
		Name:       "Task " + string(stage),
		WorkflowID: suite.workflow.ID,
		Stage:      stage,
		AssigneeID: suite.assignee.ID,
		Status:     models.TaskStatusPending,
		Priority:   models.PriorityNormal,
		DueDate:    due,
		IsVisible:  visible,
	}
	suite.Require().NoError(suite.db.Create(task).Error)
	return task
}

func (suite *TaskServiceTestSuite) TestCompleteByAssignee() {
	task := suite.createTask(models.StageDraft, true, time.Now().Add(24*time.Hour))

	completed, err := suite.service.Complete(task.ID, suite.assignee, "done early")
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusCompleted, completed.Status)
	suite.NotNil(completed.CompletedAt)
	suite.Equal("done early", completed.Notes)
	suite.Require().NotNil(completed.CompletedByID)
	suite.Equal(suite.assignee.ID, *completed.CompletedByID)
}

func (suite *TaskServiceTestSuite) TestCompleteGuardOrder() {
	task := suite.createTask(models.StageDraft, true, time.Now().Add(24*time.Hour))

	// Wrong actor.
	_, err := suite.service.Complete(task.ID, suite.other, "")
	suite.ErrorIs(err, ErrNotTaskAssignee)

	// Locked task.
	locked := suite.createTask(models.StageReview, false, time.Now().Add(48*time.Hour))
	_, err = suite.service.Complete(locked.ID, suite.assignee, "")
	suite.ErrorIs(err, ErrTaskLocked)

	// Terminal task: already-done wins over every other guard, even for the
	// wrong actor.
	_, err = suite.service.Complete(task.ID, suite.assignee, "")
	suite.Require().NoError(err)
	_, err = suite.service.Complete(task.ID, suite.other, "")
	suite.ErrorIs(err, ErrTaskAlreadyDone)
}

func (suite *TaskServiceTestSuite) TestCompleteByAdminBypassesAssigneeCheck() {
	task := suite.createTask(models.StageDraft, true, time.Now().Add(24*time.Hour))

	completed, err := suite.service.Complete(task.ID, suite.admin, "")
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusCompleted, completed.Status)
}

func (suite *TaskServiceTestSuite) TestRejectRequiresReason() {
	task := suite.createTask(models.StageReview, true, time.Now().Add(24*time.Hour))

	_, err := suite.service.Reject(task.ID, suite.admin, "", "")
	suite.ErrorIs(err, ErrReasonRequired)

	rejected, err := suite.service.Reject(task.ID, suite.admin, "incomplete", "see comments")
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusRejected, rejected.Status)
	suite.Equal("incomplete", rejected.RejectionReason)
	suite.NotNil(rejected.CompletedAt)
}

func (suite *TaskServiceTestSuite) TestRejectRequiresAdmin() {
	task := suite.createTask(models.StageReview, true, time.Now().Add(24*time.Hour))

	// Even the task's own assignee cannot reject it.
	_, err := suite.service.Reject(task.ID, suite.assignee, "not good enough", "")
	suite.ErrorIs(err, ErrAdminOnly)

	var unchanged models.WorkflowTask
	suite.Require().NoError(suite.db.First(&unchanged, task.ID).Error)
	suite.Equal(models.TaskStatusPending, unchanged.Status)
}

func (suite *TaskServiceTestSuite) TestStart() {
	task := suite.createTask(models.StageDraft, true, time.Now().Add(24*time.Hour))

	started, err := suite.service.Start(task.ID, suite.assignee)
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusInProgress, started.Status)

	// An in-progress task is still completable.
	_, err = suite.service.Complete(task.ID, suite.assignee, "")
	suite.NoError(err)
}

func (suite *TaskServiceTestSuite) TestGetHidesLockedAndForeignTasks() {
	locked := suite.createTask(models.StageReview, false, time.Now().Add(24*time.Hour))

	// Locked tasks read as not-found for the assignee.
	_, err := suite.service.Get(locked.ID, suite.assignee)
	suite.ErrorIs(err, ErrTaskNotFound)

	// Foreign tasks read as not-found, not forbidden.
	visible := suite.createTask(models.StageDraft, true, time.Now().Add(24*time.Hour))
	_, err = suite.service.Get(visible.ID, suite.other)
	suite.ErrorIs(err, ErrTaskNotFound)

	// Admins see everything.
	_, err = suite.service.Get(locked.ID, suite.admin)
	suite.NoError(err)
}

func (suite *TaskServiceTestSuite) TestBulkUpdate() {
	a := suite.createTask(models.StageDraft, true, time.Now().Add(24*time.Hour))
	b := suite.createTask(models.StageReview, false, time.Now().Add(48*time.Hour))

	_, err := suite.service.BulkUpdate([]uint64{a.ID, b.ID}, models.TaskStatusCompleted, "migration fix", suite.assignee)
	suite.ErrorIs(err, ErrAdminOnly)

	_, err = suite.service.BulkUpdate(nil, models.TaskStatusCompleted, "", suite.admin)
	suite.ErrorIs(err, ErrNoTaskIDs)

	updated, err := suite.service.BulkUpdate([]uint64{a.ID, b.ID}, models.TaskStatusCompleted, "migration fix", suite.admin)
	suite.Require().NoError(err)
	suite.Equal(int64(2), updated)

	// Bulk update ignores visibility: even the locked task was overwritten.
	var task models.WorkflowTask
	suite.Require().NoError(suite.db.First(&task, b.ID).Error)
	suite.Equal(models.TaskStatusCompleted, task.Status)
	suite.Equal("migration fix", task.Notes)
}

func (suite *TaskServiceTestSuite) TestMyTasksFiltersVisibility() {
	suite.createTask(models.StageDraft, true, time.Now().Add(24*time.Hour))
	suite.createTask(models.StageReview, false, time.Now().Add(48*time.Hour))

	tasks, total, err := suite.service.MyTasks(suite.assignee, 1, 20)
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Require().Len(tasks, 1)
	suite.Equal(models.StageDraft, tasks[0].Stage)
}

func (suite *TaskServiceTestSuite) TestMyPendingExcludesTerminalTasks() {
	open := suite.createTask(models.StageDraft, true, time.Now().Add(24*time.Hour))
	done := suite.createTask(models.StageReview, true, time.Now().Add(48*time.Hour))
	_, err := suite.service.Complete(done.ID, suite.assignee, "")
	suite.Require().NoError(err)

	tasks, total, err := suite.service.MyPending(suite.assignee, 1, 20)
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Require().Len(tasks, 1)
	suite.Equal(open.ID, tasks[0].ID)
}

func (suite *TaskServiceTestSuite) TestOverdue() {
	late := suite.createTask(models.StageDraft, true, time.Now().Add(-24*time.Hour))
	suite.createTask(models.StageReview, true, time.Now().Add(24*time.Hour))

	tasks, total, err := suite.service.Overdue(suite.assignee, 1, 20)
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Require().Len(tasks, 1)
	suite.Equal(late.ID, tasks[0].ID)
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}
