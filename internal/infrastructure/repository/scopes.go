package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OperatorScope returns a GORM scope that filters by owning operator.
// A nil operator matches nothing.
func OperatorScope(operatorID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if operatorID == uuid.Nil {
			return db.Where("1 = 0")
		}
		return db.Where("operator_id = ?", operatorID)
	}
}

// ExpiredScope selects rows whose expires_at is before now
func ExpiredScope(now time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("expires_at < ?", now)
	}
}
