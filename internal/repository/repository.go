package repository

import (
	"time"

	"github.com/ayoubbns/document-control-api/internal/models"
	"gorm.io/gorm"
)

// Every repository exposes WithTx so services can run multi-entity state
// transitions inside a single gorm transaction.

// WorkflowRepository defines the interface for workflow data access
type WorkflowRepository interface {
	WithTx(tx *gorm.DB) WorkflowRepository

	// Create creates a new workflow
	Create(workflow *models.Workflow) error

	// FindByID finds a workflow by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Workflow, error)

	// Update persists the workflow
	Update(workflow *models.Workflow) error

	// UpdateFields applies a partial set-based update
	UpdateFields(id uint64, fields map[string]interface{}) error

	// TransitionStatus applies fields only if the workflow is still in the
	// expected status; returns false when another transition won the race
	TransitionStatus(id uint64, from models.WorkflowStatus, fields map[string]interface{}) (bool, error)

	// ListInvolving lists workflows where the user holds any role slot
	ListInvolving(userID uint64, page, pageSize int) ([]models.Workflow, int64, error)

	// ListAll lists all workflows (admin view)
	ListAll(page, pageSize int) ([]models.Workflow, int64, error)

	// ListPendingAction lists workflows whose current stage awaits the user
	ListPendingAction(userID uint64) ([]models.Workflow, error)

	// CountByStatus returns workflow counts grouped by status
	CountByStatus() (map[models.WorkflowStatus]int64, error)
}

// TaskFilter holds filtering options for listing workflow tasks
type TaskFilter struct {
	AssigneeID  *uint64
	WorkflowID  *uint64
	Stage       *models.WorkflowStage
	Statuses    []models.TaskStatus
	VisibleOnly bool
	DueBefore   *time.Time
	Page        int
	PageSize    int
}

// TaskRepository defines the interface for workflow task data access
type TaskRepository interface {
	WithTx(tx *gorm.DB) TaskRepository

	// Create creates a new task
	Create(task *models.WorkflowTask) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.WorkflowTask, error)

	// FindByStage finds the single task of a (workflow, stage) pair
	FindByStage(workflowID uint64, stage models.WorkflowStage) (*models.WorkflowTask, error)

	// UpdateFields applies a partial update to one task
	UpdateFields(id uint64, fields map[string]interface{}) error

	// UpdateStage applies a set-based update to the (workflow, stage) task
	UpdateStage(workflowID uint64, stage models.WorkflowStage, fields map[string]interface{}) error

	// ReassignActive moves the stage task to a new assignee unless it is
	// already completed or rejected
	ReassignActive(workflowID uint64, stage models.WorkflowStage, assigneeID uint64) error

	// BulkUpdateStatus mass-overwrites task statuses, returning the count
	BulkUpdateStatus(ids []uint64, status models.TaskStatus, notes string) (int64, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.WorkflowTask, int64, error)
}

// DocumentRepository defines the interface for document data access
type DocumentRepository interface {
	WithTx(tx *gorm.DB) DocumentRepository

	Create(doc *models.Document) error
	FindByID(id uint64, preload ...string) (*models.Document, error)
	Update(doc *models.Document) error

	// SetStatus mirrors the workflow progress onto the document
	SetStatus(id uint64, status models.DocumentStatus) error

	// MarkOriginal locks a published document as the immutable original
	MarkOriginal(id uint64) error

	// ListByFolders lists documents in the folder set, filtered on archive state
	ListByFolders(folderIDs []uint64, archived bool) ([]models.Document, error)

	// BulkSetArchiveState applies archive fields to a document id set
	BulkSetArchiveState(ids []uint64, fields map[string]interface{}) error

	// ListExpiredRetention lists archived documents past their deadline
	ListExpiredRetention(now time.Time) ([]models.Document, error)

	// ListArchivedRoots lists archived documents whose parent folder is not
	// archived (or who have no parent folder)
	ListArchivedRoots() ([]models.Document, error)
}

// FolderRepository defines the interface for folder data access
type FolderRepository interface {
	WithTx(tx *gorm.DB) FolderRepository

	Create(folder *models.Folder) error
	FindByID(id uint64, preload ...string) (*models.Folder, error)

	// ListChildren lists direct subfolders; nil parent means roots
	ListChildren(parentID *uint64) ([]models.Folder, error)

	// DescendantIDs returns the id set of the folder subtree, target included
	DescendantIDs(rootID uint64) ([]uint64, error)

	// BulkSetArchiveState applies archive fields to a folder id set
	BulkSetArchiveState(ids []uint64, fields map[string]interface{}) error

	// ListExpiredRetention lists archived folders past their deadline
	ListExpiredRetention(now time.Time) ([]models.Folder, error)

	// ListArchivedRoots lists archived folders whose parent is not archived
	ListArchivedRoots() ([]models.Folder, error)

	// ListArchivedChildren lists direct archived subfolders of a folder
	ListArchivedChildren(folderID uint64) ([]models.Folder, error)

	// Path derives the display path by walking parent references
	Path(id uint64) (string, error)
}

// ArchiveRepository defines the interface for archive history rows
type ArchiveRepository interface {
	WithTx(tx *gorm.DB) ArchiveRepository

	Create(entry *models.DocumentArchive) error
	BulkCreate(entries []models.DocumentArchive) error

	// FindActiveByDocument finds the ACTIVE row for a document
	FindActiveByDocument(documentID uint64) (*models.DocumentArchive, error)

	// CloseActive flips ACTIVE rows for the documents to the given terminal
	// status, stamping RestoredAt when provided
	CloseActive(documentIDs []uint64, status models.ArchiveStatus, restoredAt *time.Time) error

	// ListByDocument lists the full archive history of a document
	ListByDocument(documentID uint64) ([]models.DocumentArchive, error)
}

// SignatureRepository defines the interface for the append-only ledger
type SignatureRepository interface {
	WithTx(tx *gorm.DB) SignatureRepository

	Create(sig *models.ElectronicSignature) error
	FindByID(id uint64, preload ...string) (*models.ElectronicSignature, error)
	ListByWorkflow(workflowID uint64) ([]models.ElectronicSignature, error)
	CountByWorkflow(workflowID uint64) (int64, error)
}

// NotificationRepository defines the interface for notification bookkeeping
type NotificationRepository interface {
	Create(n *models.WorkflowNotification) error
	UpdateStatus(id uint64, status models.NotificationStatus, sentAt *time.Time) error
	ListByWorkflow(workflowID uint64) ([]models.WorkflowNotification, error)
	ListByRecipient(recipientID uint64, unreadOnly bool) ([]models.WorkflowNotification, error)
	MarkRead(id, recipientID uint64) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(user *models.User) error
	FindByID(id uint64) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
}

// ActionLogRepository defines the interface for the audit trail
type ActionLogRepository interface {
	WithTx(tx *gorm.DB) ActionLogRepository

	Create(entry *models.UserActionLog) error
	ListByObject(objectType string, objectID uint64) ([]models.UserActionLog, error)
}
