package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account of the system. IsAdmin is the only capability flag;
// Role is a free-form label shown in the UI.
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name           string    `gorm:"not null"`
	Title          string
	Role           string
	Email          string    `gorm:"uniqueIndex;not null"`
	HashedPassword string    `gorm:"not null"`
	IsAdmin        bool      `gorm:"not null"`
	IsActive       bool      `gorm:"not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time

	// ResetTokenHash is the SHA-256 of the pending password reset token,
	// empty when no reset is pending.
	ResetTokenHash string `gorm:"not null"`
	ResetExpiresAt *time.Time

	// TaskIDs are the user_tasks back-references, loaded on demand.
	TaskIDs []uuid.UUID `gorm:"-"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		u.ID = id
	}
	return nil
}
