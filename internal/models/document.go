package models

import (
	"time"

	"gorm.io/gorm"
)

type DocumentStatus string

const (
	DocumentStatusDraft    DocumentStatus = "draft"
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusRejected DocumentStatus = "rejected"
	DocumentStatusApproved DocumentStatus = "approved"
	DocumentStatusPublic   DocumentStatus = "public"
)

// DocStatusTypeOriginal locks a published document as the immutable original.
const DocStatusTypeOriginal = "ORIGINAL"

type Document struct {
	ID            uint64         `gorm:"primarykey" json:"id"`
	Title         string         `gorm:"type:varchar(1024);not null" json:"title"`
	Path          string         `gorm:"type:varchar(2048);not null" json:"path"`
	Format        string         `gorm:"type:varchar(20)" json:"format"`
	Size          int64          `json:"size"`
	Description   string         `gorm:"type:text" json:"description"`
	DocStatus     DocumentStatus `gorm:"type:varchar(50);not null;default:'draft';index" json:"doc_status"`
	DocStatusType string         `gorm:"type:varchar(50)" json:"doc_status_type"`
	OwnerID       uint64         `gorm:"not null;index" json:"owner_id"`
	ParentFolderID *uint64       `gorm:"index" json:"parent_folder_id"`

	IsArchived    bool       `gorm:"not null;default:false;index" json:"is_archived"`
	ArchivedAt    *time.Time `json:"archived_at"`
	ArchivedUntil *time.Time `json:"archived_until"`
	ArchivedByID  *uint64    `json:"archived_by_id"`
	ArchiveNote   string     `gorm:"type:text" json:"archive_note"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Owner        User    `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	ParentFolder *Folder `gorm:"foreignKey:ParentFolderID" json:"parent_folder,omitempty"`
	ArchivedBy   *User   `gorm:"foreignKey:ArchivedByID" json:"archived_by,omitempty"`
}
