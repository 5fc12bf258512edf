package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubTask struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	TaskID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Title       string    `gorm:"not null"`
	Date        *time.Time
	Tag         string
	IsCompleted bool `gorm:"not null"`
	CreatedAt   time.Time
}

func (s *SubTask) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		s.ID = id
	}
	return nil
}
