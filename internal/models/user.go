package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Username     string         `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FullName     string         `gorm:"type:varchar(255)" json:"full_name"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	IsAdmin      bool           `gorm:"not null;default:false" json:"is_admin"`
	IsStaff      bool           `gorm:"not null;default:false" json:"is_staff"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsElevated reports whether the user may bypass role and segregation checks.
func (u *User) IsElevated() bool {
	return u != nil && (u.IsAdmin || u.IsStaff)
}

// DisplayName returns the full name when set, falling back to the username.
func (u *User) DisplayName() string {
	if u == nil {
		return "Unknown User"
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
