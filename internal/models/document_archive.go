package models

import "time"

type ArchiveStatus string

const (
	ArchiveStatusActive   ArchiveStatus = "ACTIVE"
	ArchiveStatusRestored ArchiveStatus = "RESTORED"
	ArchiveStatusExpired  ArchiveStatus = "EXPIRED"
)

// DocumentArchive is the append-style archive history: one row per archive
// action, never deleted. At most one ACTIVE row exists per document.
type DocumentArchive struct {
	ID             uint64        `gorm:"primarykey" json:"id"`
	DocumentID     uint64        `gorm:"not null;index:idx_archive_doc_status" json:"document_id"`
	ArchivedByID   *uint64       `json:"archived_by_id"`
	ArchivedAt     time.Time     `gorm:"not null" json:"archived_at"`
	RetentionUntil *time.Time    `json:"retention_until"`
	RestoredAt     *time.Time    `json:"restored_at"`
	Status         ArchiveStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index:idx_archive_doc_status" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Document   Document `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
	ArchivedBy *User    `gorm:"foreignKey:ArchivedByID" json:"archived_by,omitempty"`
}
