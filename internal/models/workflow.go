package models

import (
	"time"

	"gorm.io/gorm"
)

type WorkflowStatus string

const (
	WorkflowStatusDraft           WorkflowStatus = "draft"
	WorkflowStatusInReview        WorkflowStatus = "in_review"
	WorkflowStatusPendingApproval WorkflowStatus = "pending_approval"
	WorkflowStatusApproved        WorkflowStatus = "approved"
	WorkflowStatusPublished       WorkflowStatus = "published"
	WorkflowStatusRejected        WorkflowStatus = "rejected"
)

// Workflow drives a document through Draft → Review → Approval → Publication.
// One workflow per document under approval; role slots are nullable so a
// stage without an assignee is simply skipped for unlock/notification.
type Workflow struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	Name        string         `gorm:"type:varchar(100);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	DocumentID  uint64         `gorm:"not null;index" json:"document_id"`
	Status      WorkflowStatus `gorm:"type:varchar(50);not null;default:'draft';index" json:"status"`

	AuthorID    *uint64 `gorm:"index" json:"author_id"`
	ReviewerID  *uint64 `gorm:"index" json:"reviewer_id"`
	ApproverID  *uint64 `gorm:"index" json:"approver_id"`
	PublisherID *uint64 `gorm:"index" json:"publisher_id"`
	CreatedByID *uint64 `json:"created_by_id"`

	SubmittedAt *time.Time `json:"submitted_at"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	ApprovedAt  *time.Time `json:"approved_at"`
	PublishedAt *time.Time `json:"published_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Document   Document              `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
	Author     *User                 `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Reviewer   *User                 `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	Approver   *User                 `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
	Publisher  *User                 `gorm:"foreignKey:PublisherID" json:"publisher,omitempty"`
	CreatedBy  *User                 `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Tasks      []WorkflowTask        `gorm:"foreignKey:WorkflowID" json:"tasks,omitempty"`
	Signatures []ElectronicSignature `gorm:"foreignKey:WorkflowID" json:"signatures,omitempty"`
}

// RoleHolderIDs returns the distinct non-nil role slot user IDs.
func (w *Workflow) RoleHolderIDs() []uint64 {
	seen := make(map[uint64]struct{}, 4)
	ids := make([]uint64, 0, 4)
	for _, ref := range []*uint64{w.AuthorID, w.ReviewerID, w.ApproverID, w.PublisherID} {
		if ref == nil {
			continue
		}
		if _, ok := seen[*ref]; ok {
			continue
		}
		seen[*ref] = struct{}{}
		ids = append(ids, *ref)
	}
	return ids
}
