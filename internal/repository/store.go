package repository

import (
	"context"

	"gorm.io/gorm"
)

// Set groups the repositories bound to one connection or transaction.
type Set struct {
	Tasks   *TaskRepository
	Users   *UserRepository
	Notices *NoticeRepository
}

func NewSet(db *gorm.DB) Set {
	return Set{
		Tasks:   NewTaskRepository(db),
		Users:   NewUserRepository(db),
		Notices: NewNoticeRepository(db),
	}
}

// WithTransaction runs fn against repositories bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
func WithTransaction(ctx context.Context, db *gorm.DB, fn func(Set) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewSet(tx))
	})
}
