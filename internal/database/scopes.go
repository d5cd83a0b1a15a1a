package database

import (
	"gorm.io/gorm"
)

// Paginate applies pagination to a GORM query. Zero or negative values
// disable pagination so callers can list everything.
func Paginate(page, pageSize int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page <= 0 || pageSize <= 0 {
			return db
		}
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}
