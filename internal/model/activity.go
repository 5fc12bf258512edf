package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Activity types produced by the service itself. Clients may post any other type.
const (
	ActivityAssigned = "assigned"
	ActivityUpdate   = "update"
	ActivityBug      = "bug"
)

// Activity is an entry of a task's append-only log.
type Activity struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TaskID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	Type      string     `gorm:"not null"`
	Text      string     `gorm:"column:activity;not null"`
	ByID      *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time

	By *User `gorm:"foreignKey:ByID"`
}

func (a *Activity) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		a.ID = id
	}
	return nil
}
