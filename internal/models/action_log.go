package models

import "time"

// UserActionLog is the flat audit trail for privileged actions. ExtraInfo is
// serialized JSON; the column stays schemaless on purpose.
type UserActionLog struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	UserID     *uint64   `gorm:"index" json:"user_id"`
	Action     string    `gorm:"type:varchar(100);not null;index" json:"action"`
	ObjectType string    `gorm:"type:varchar(50);not null" json:"object_type"`
	ObjectID   uint64    `gorm:"not null;index" json:"object_id"`
	ExtraInfo  string    `gorm:"type:text" json:"extra_info"`
	CreatedAt  time.Time `json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
