package models

import (
	"time"

	"gorm.io/gorm"
)

// Folder is a node in the document hierarchy. Paths are derived by walking
// ParentFolderID, never stored, so renames do not cascade rewrites.
type Folder struct {
	ID             uint64     `gorm:"primarykey" json:"id"`
	Name           string     `gorm:"type:varchar(255);not null" json:"name"`
	ParentFolderID *uint64    `gorm:"index" json:"parent_folder_id"`
	CreatedByID    *uint64    `json:"created_by_id"`

	IsArchived    bool       `gorm:"not null;default:false;index" json:"is_archived"`
	ArchivedAt    *time.Time `json:"archived_at"`
	ArchivedUntil *time.Time `json:"archived_until"`
	ArchivedByID  *uint64    `json:"archived_by_id"`
	ArchiveNote   string     `gorm:"type:text" json:"archive_note"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	ParentFolder *Folder  `gorm:"foreignKey:ParentFolderID" json:"parent_folder,omitempty"`
	Subfolders   []Folder `gorm:"foreignKey:ParentFolderID" json:"subfolders,omitempty"`
	CreatedBy    *User    `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	ArchivedBy   *User    `gorm:"foreignKey:ArchivedByID" json:"archived_by,omitempty"`
}
