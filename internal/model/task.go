package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Stages of a task.
const (
	StageTodo       = "todo"
	StageInProgress = "in-progress"
	StageCompleted  = "completed"
)

// Priorities of a task.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type Task struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title       string    `gorm:"not null"`
	Description string
	Date        time.Time      `gorm:"not null"`
	Priority    string         `gorm:"not null"`
	Stage       string         `gorm:"not null;index"`
	Assets      pq.StringArray `gorm:"type:text[]"`
	Links       pq.StringArray `gorm:"type:text[]"`
	IsTrashed   bool           `gorm:"not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Team       []User     `gorm:"many2many:task_team"`
	SubTasks   []SubTask  `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	Activities []Activity `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}

func (t *Task) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		t.ID = id
	}
	return nil
}

// HasMember reports whether userID is part of the task team.
func (t *Task) HasMember(userID uuid.UUID) bool {
	for _, u := range t.Team {
		if u.ID == userID {
			return true
		}
	}
	return false
}
