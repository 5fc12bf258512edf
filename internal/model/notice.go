package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notice types.
const (
	NoticeDefault = "default"
	NoticeAlert   = "alert"
)

// Notice is a notification addressed to one or more users about a task.
type Notice struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Text      string     `gorm:"not null"`
	TaskID    *uuid.UUID `gorm:"type:uuid;index"`
	NotiType  string     `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Task   *Task  `gorm:"foreignKey:TaskID"`
	Team   []User `gorm:"many2many:notice_team"`
	ReadBy []User `gorm:"many2many:notice_reads"`
}

func (n *Notice) BeforeCreate(_ *gorm.DB) error {
	if n.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		n.ID = id
	}
	if n.NotiType == "" {
		n.NotiType = NoticeDefault
	}
	return nil
}
