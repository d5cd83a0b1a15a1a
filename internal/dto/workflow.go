package dto

import (
	"time"

	"github.com/ayoubbns/document-control-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
}

// DocumentDTO represents a document in API responses
type DocumentDTO struct {
	ID             uint64                `json:"id"`
	Title          string                `json:"title"`
	Format         string                `json:"format,omitempty"`
	Size           int64                 `json:"size"`
	Description    string                `json:"description,omitempty"`
	DocStatus      models.DocumentStatus `json:"doc_status"`
	DocStatusType  string                `json:"doc_status_type,omitempty"`
	ParentFolderID *uint64               `json:"parent_folder_id"`
	IsArchived     bool                  `json:"is_archived"`
	ArchivedUntil  *time.Time            `json:"archived_until,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

// WorkflowDTO represents a workflow in API responses
type WorkflowDTO struct {
	ID          uint64                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	DocumentID  uint64                `json:"document_id"`
	Status      models.WorkflowStatus `json:"status"`
	Author      *UserDTO              `json:"author,omitempty"`
	Reviewer    *UserDTO              `json:"reviewer,omitempty"`
	Approver    *UserDTO              `json:"approver,omitempty"`
	Publisher   *UserDTO              `json:"publisher,omitempty"`
	SubmittedAt *time.Time            `json:"submitted_at"`
	ReviewedAt  *time.Time            `json:"reviewed_at"`
	ApprovedAt  *time.Time            `json:"approved_at"`
	PublishedAt *time.Time            `json:"published_at"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	Document    *DocumentDTO          `json:"document,omitempty"`
	Tasks       []TaskDTO             `json:"tasks,omitempty"`
	Signatures  []SignatureDTO        `json:"signatures,omitempty"`
}

// WorkflowListResponse represents a paginated list of workflows
type WorkflowListResponse struct {
	Workflows  []WorkflowDTO `json:"workflows"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalCount int64         `json:"total_count"`
	TotalPages int           `json:"total_pages"`
}

// SignatureDTO represents an electronic signature in API responses
type SignatureDTO struct {
	ID            uint64    `json:"id"`
	WorkflowID    uint64    `json:"workflow_id"`
	SignedByID    uint64    `json:"signed_by_id"`
	SignedBy      *UserDTO  `json:"signed_by,omitempty"`
	SignedAt      time.Time `json:"signed_at"`
	SignatureHash string    `json:"signature_hash"`
	Stage         string    `json:"stage"`
}

// ActionLogDTO represents an audit trail entry in API responses
type ActionLogDTO struct {
	ID         uint64    `json:"id"`
	UserID     *uint64   `json:"user_id"`
	Action     string    `json:"action"`
	ObjectType string    `json:"object_type"`
	ObjectID   uint64    `json:"object_id"`
	ExtraInfo  string    `json:"extra_info,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
		FullName: user.FullName,
	}
}

// ToDocumentDTO converts a Document model to DocumentDTO
func ToDocumentDTO(doc models.Document) DocumentDTO {
	return DocumentDTO{
		ID:             doc.ID,
		Title:          doc.Title,
		Format:         doc.Format,
		Size:           doc.Size,
		Description:    doc.Description,
		DocStatus:      doc.DocStatus,
		DocStatusType:  doc.DocStatusType,
		ParentFolderID: doc.ParentFolderID,
		IsArchived:     doc.IsArchived,
		ArchivedUntil:  doc.ArchivedUntil,
		CreatedAt:      doc.CreatedAt,
	}
}

// ToWorkflowDTO converts a Workflow model to WorkflowDTO
func ToWorkflowDTO(workflow models.Workflow) WorkflowDTO {
	dto := WorkflowDTO{
		ID:          workflow.ID,
		Name:        workflow.Name,
		Description: workflow.Description,
		DocumentID:  workflow.DocumentID,
		Status:      workflow.Status,
		SubmittedAt: workflow.SubmittedAt,
		ReviewedAt:  workflow.ReviewedAt,
		ApprovedAt:  workflow.ApprovedAt,
		PublishedAt: workflow.PublishedAt,
		CreatedAt:   workflow.CreatedAt,
		UpdatedAt:   workflow.UpdatedAt,
	}

	// Include role holders if preloaded
	if workflow.Author != nil {
		author := ToUserDTO(*workflow.Author)
		dto.Author = &author
	}
	if workflow.Reviewer != nil {
		reviewer := ToUserDTO(*workflow.Reviewer)
		dto.Reviewer = &reviewer
	}
	if workflow.Approver != nil {
		approver := ToUserDTO(*workflow.Approver)
		dto.Approver = &approver
	}
	if workflow.Publisher != nil {
		publisher := ToUserDTO(*workflow.Publisher)
		dto.Publisher = &publisher
	}

	// Include document if preloaded
	if workflow.Document.ID != 0 {
		document := ToDocumentDTO(workflow.Document)
		dto.Document = &document
	}

	// Include tasks if preloaded
	if len(workflow.Tasks) > 0 {
		dto.Tasks = make([]TaskDTO, len(workflow.Tasks))
		for i, task := range workflow.Tasks {
			dto.Tasks[i] = ToTaskDTO(task)
		}
	}

	// Include signatures if preloaded
	if len(workflow.Signatures) > 0 {
		dto.Signatures = make([]SignatureDTO, len(workflow.Signatures))
		for i, sig := range workflow.Signatures {
			dto.Signatures[i] = ToSignatureDTO(sig)
		}
	}

	return dto
}

// ToWorkflowListResponse converts a slice of workflows to WorkflowListResponse
func ToWorkflowListResponse(workflows []models.Workflow, page, pageSize int, totalCount int64) WorkflowListResponse {
	items := make([]WorkflowDTO, len(workflows))
	for i, workflow := range workflows {
		items[i] = ToWorkflowDTO(workflow)
	}

	totalPages := int(totalCount) / pageSize
	if int(totalCount)%pageSize > 0 {
		totalPages++
	}

	return WorkflowListResponse{
		Workflows:  items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}

// ToSignatureDTO converts an ElectronicSignature model to SignatureDTO
func ToSignatureDTO(sig models.ElectronicSignature) SignatureDTO {
	dto := SignatureDTO{
		ID:            sig.ID,
		WorkflowID:    sig.WorkflowID,
		SignedByID:    sig.SignedByID,
		SignedAt:      sig.SignedAt,
		SignatureHash: sig.SignatureHash,
		Stage:         sig.Stage,
	}
	if sig.SignedBy.ID != 0 {
		signedBy := ToUserDTO(sig.SignedBy)
		dto.SignedBy = &signedBy
	}
	return dto
}

// ToActionLogDTO converts a UserActionLog model to ActionLogDTO
func ToActionLogDTO(entry models.UserActionLog) ActionLogDTO {
	return ActionLogDTO{
		ID:         entry.ID,
		UserID:     entry.UserID,
		Action:     entry.Action,
		ObjectType: entry.ObjectType,
		ObjectID:   entry.ObjectID,
		ExtraInfo:  entry.ExtraInfo,
		CreatedAt:  entry.CreatedAt,
	}
}
