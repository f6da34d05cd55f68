package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pixelfair/pixelfair-backend/pkg/visibility"
)

// User represents the canonical identity entity. Balance is mutated only by
// the ledger engine.
type User struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"column:username;type:text;not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"column:email;type:text;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	Balance      float64   `gorm:"column:balance;not null;default:0" json:"balance"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// Lifecycle implements visibility.Record. Users are never soft-deleted.
func (User) Lifecycle() visibility.Lifecycle {
	return visibility.LifecycleActive
}
