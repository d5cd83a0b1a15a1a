package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ayoubbns/document-control-api/internal/middleware"
	"github.com/ayoubbns/document-control-api/internal/models"
	"github.com/ayoubbns/document-control-api/internal/repository"
	"github.com/ayoubbns/document-control-api/internal/services"
	"github.com/ayoubbns/document-control-api/internal/signing"
)

// WorkflowHandlerTestSuite defines the test suite for WorkflowHandler
type WorkflowHandlerTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine

	workflowService *services.WorkflowService

	admin    *models.User
	author   *models.User
	reviewer *models.User
	outsider *models.User

	// currentUser is injected by the test auth middleware.
	currentUser *models.User
}

// SetupTest runs before each test
func (suite *WorkflowHandlerTestSuite) SetupTest() {
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
		&models.UserActionLog{},
	)
	suite.Require().NoError(err)

	logger := zap.NewNop()
	signer := signing.NewSigner([]byte("handler-test-secret"))
	notificationRepo := repository.NewNotificationRepository(suite.db)
	userRepo := repository.NewUserRepository(suite.db)
	signatureRepo := repository.NewSignatureRepository(suite.db)

	// Nil queue client: notifications are recorded but not enqueued.
	notificationService := services.NewNotificationService(notificationRepo, userRepo, nil, logger)
	suite.workflowService = services.NewWorkflowService(
		suite.db,
		repository.NewWorkflowRepository(suite.db),
		repository.NewTaskRepository(suite.db),
		repository.NewDocumentRepository(suite.db),
		signatureRepo,
		userRepo,
		repository.NewActionLogRepository(suite.db),
		signer,
		notificationService,
		logger,
	)
	signatureService := services.NewSignatureService(signatureRepo, signer)

	handler := NewWorkflowHandler(suite.workflowService, signatureService, notificationService)

	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.router.Use(func(c *gin.Context) {
		if suite.currentUser != nil {
			c.Set("current_user", suite.currentUser)
		}
		c.Next()
	})

	workflows := suite.router.Group("/api/workflows")
	{
		workflows.POST("", handler.Create)
		workflows.GET("/:id", handler.Get)
		workflows.POST("/:id/submit", handler.SubmitForReview)
		workflows.POST("/:id/validate", handler.ValidateReview)
		workflows.POST("/:id/approve", handler.ApproveAndSign)
		workflows.POST("/:id/publish", handler.Publish)
		workflows.GET("/:id/signatures", handler.ListSignatures)
	}
	suite.router.GET("/api/signatures/:signatureId/verify", handler.VerifySignature)

	suite.admin = suite.createUser("admin", true)
	suite.author = suite.createUser("author", false)
	suite.reviewer = suite.createUser("reviewer", false)
	suite.outsider = suite.createUser("outsider", false)
}

// TearDownTest runs after each test
func (suite *WorkflowHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *WorkflowHandlerTestSuite) createUser(username string, admin bool) *models.User {
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashedpassword",
		IsAdmin:      admin,
	}
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func (suite *WorkflowHandlerTestSuite) createDocument(title string) *models.Document {
	doc := &models.Document{Title: title, Path: "p/" + title, OwnerID: suite.author.ID}
	suite.Require().NoError(suite.db.Create(doc).Error)
	return doc
}

func (suite *WorkflowHandlerTestSuite) createWorkflow() *models.Workflow {
	doc := suite.createDocument("SOP-001")
	workflow, err := suite.workflowService.Create(services.CreateWorkflowInput{
		Name:       "SOP-001 Approval",
		DocumentID: doc.ID,
		AuthorID:   &suite.author.ID,
		ReviewerID: &suite.reviewer.ID,
		ApproverID: &suite.admin.ID,
	}, suite.admin)
	suite.Require().NoError(err)
	return workflow
}

func (suite *WorkflowHandlerTestSuite) request(method, url string, body interface{}, as *models.User) *httptest.ResponseRecorder {
	suite.currentUser = as

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *WorkflowHandlerTestSuite) TestCreateWorkflow() {
	doc := suite.createDocument("QM-100")
	w := suite.request(http.MethodPost, "/api/workflows", gin.H{
		"name":        "QM-100 Approval",
		"document_id": doc.ID,
		"author_id":   suite.author.ID,
		"reviewer_id": suite.reviewer.ID,
	}, suite.admin)

	suite.Equal(http.StatusCreated, w.Code)

	var resp map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("QM-100 Approval", resp["name"])
	suite.Equal("draft", resp["status"])
}

func (suite *WorkflowHandlerTestSuite) TestCreateWorkflowForbiddenForNonAdmin() {
	doc := suite.createDocument("QM-101")
	w := suite.request(http.MethodPost, "/api/workflows", gin.H{
		"name":        "QM-101 Approval",
		"document_id": doc.ID,
	}, suite.author)

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *WorkflowHandlerTestSuite) TestCreateWorkflowSegregationViolation() {
	doc := suite.createDocument("QM-102")
	w := suite.request(http.MethodPost, "/api/workflows", gin.H{
		"name":        "QM-102 Approval",
		"document_id": doc.ID,
		"author_id":   suite.author.ID,
		"approver_id": suite.author.ID,
	}, suite.admin)

	suite.Equal(http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("VALIDATION_ERROR", resp["code"])
}

func (suite *WorkflowHandlerTestSuite) TestGetHidesWorkflowFromOutsiders() {
	workflow := suite.createWorkflow()

	w := suite.request(http.MethodGet, fmt.Sprintf("/api/workflows/%d", workflow.ID), nil, suite.outsider)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/workflows/%d", workflow.ID), nil, suite.reviewer)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *WorkflowHandlerTestSuite) TestSubmitValidateApprovePublishFlow() {
	workflow := suite.createWorkflow()
	url := fmt.Sprintf("/api/workflows/%d", workflow.ID)

	w := suite.request(http.MethodPost, url+"/submit", nil, suite.author)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodPost, url+"/validate", gin.H{"action": "pass"}, suite.reviewer)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodPost, url+"/approve", nil, suite.admin)
	suite.Equal(http.StatusOK, w.Code)

	var approveResp map[string]json.RawMessage
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &approveResp))
	suite.Contains(approveResp, "signature")

	// No publisher slot was assigned: an admin can still publish.
	w = suite.request(http.MethodPost, url+"/publish", nil, suite.admin)
	suite.Equal(http.StatusOK, w.Code)

	var doc models.Document
	suite.Require().NoError(suite.db.First(&doc, workflow.DocumentID).Error)
	suite.Equal(models.DocumentStatusPublic, doc.DocStatus)
	suite.Equal(models.DocStatusTypeOriginal, doc.DocStatusType)
}

func (suite *WorkflowHandlerTestSuite) TestValidateRejectRequiresReason() {
	workflow := suite.createWorkflow()
	url := fmt.Sprintf("/api/workflows/%d", workflow.ID)

	w := suite.request(http.MethodPost, url+"/submit", nil, suite.author)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodPost, url+"/validate", gin.H{"action": "reject"}, suite.reviewer)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *WorkflowHandlerTestSuite) TestSubmitOutOfOrderIsInvalidTransition() {
	workflow := suite.createWorkflow()
	url := fmt.Sprintf("/api/workflows/%d/approve", workflow.ID)

	w := suite.request(http.MethodPost, url, nil, suite.admin)
	suite.Equal(http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("INVALID_TRANSITION", resp["code"])
}

func (suite *WorkflowHandlerTestSuite) TestSignatureVerifyEndpoint() {
	workflow := suite.createWorkflow()
	url := fmt.Sprintf("/api/workflows/%d", workflow.ID)

	suite.request(http.MethodPost, url+"/submit", nil, suite.author)
	suite.request(http.MethodPost, url+"/validate", gin.H{"action": "pass"}, suite.reviewer)
	w := suite.request(http.MethodPost, url+"/approve", nil, suite.admin)
	suite.Require().Equal(http.StatusOK, w.Code)

	var sig models.ElectronicSignature
	suite.Require().NoError(suite.db.Where("workflow_id = ?", workflow.ID).First(&sig).Error)

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/signatures/%d/verify", sig.ID), nil, suite.reviewer)
	suite.Equal(http.StatusOK, w.Code)

	var resp map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(true, resp["valid"])

	// Tampering with the stored hash makes verification fail.
	suite.Require().NoError(suite.db.Model(&models.ElectronicSignature{}).
		Where("id = ?", sig.ID).
		Update("signature_hash", "0000").Error)

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/signatures/%d/verify", sig.ID), nil, suite.reviewer)
	suite.Equal(http.StatusOK, w.Code)
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(false, resp["valid"])
}

func (suite *WorkflowHandlerTestSuite) TestListSignatures() {
	workflow := suite.createWorkflow()
	url := fmt.Sprintf("/api/workflows/%d", workflow.ID)

	suite.request(http.MethodPost, url+"/submit", nil, suite.author)
	suite.request(http.MethodPost, url+"/validate", gin.H{"action": "pass"}, suite.reviewer)
	suite.request(http.MethodPost, url+"/approve", nil, suite.admin)

	w := suite.request(http.MethodGet, url+"/signatures", nil, suite.reviewer)
	suite.Equal(http.StatusOK, w.Code)

	var resp struct {
		Signatures []map[string]interface{} `json:"signatures"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Signatures, 1)
}

// The test middleware injects the user directly; this asserts the helper the
// real middleware chain relies on.
func TestCurrentUserMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if _, ok := middleware.CurrentUser(c); ok {
		t.Fatal("expected no current user on empty context")
	}
}

func TestWorkflowHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(WorkflowHandlerTestSuite))
}
