package models

import "time"

// ElectronicSignature is an append-only audit record for approval signing.
// Rows are never updated or deleted. Nonce and SignedAt are stored so the
// keyed HMAC can be recomputed during verification.
type ElectronicSignature struct {
	ID            uint64    `gorm:"primarykey" json:"id"`
	WorkflowID    uint64    `gorm:"not null;index" json:"workflow_id"`
	SignedByID    uint64    `gorm:"not null;index" json:"signed_by_id"`
	SignedAt      time.Time `gorm:"not null" json:"signed_at"`
	SignatureHash string    `gorm:"type:varchar(256);not null" json:"signature_hash"`
	Nonce         string    `gorm:"type:varchar(64);not null" json:"-"`
	IPAddress     string    `gorm:"type:varchar(64)" json:"ip_address"`
	UserAgent     string    `gorm:"type:varchar(255)" json:"user_agent"`
	Stage         string    `gorm:"type:varchar(50);not null" json:"stage"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Workflow Workflow `gorm:"foreignKey:WorkflowID" json:"workflow,omitempty"`
	SignedBy User     `gorm:"foreignKey:SignedByID" json:"signed_by,omitempty"`
}
