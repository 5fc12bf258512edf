package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"flowfix/internal/model"
	"flowfix/internal/repository"
)

// TaskStore persists tasks and their subtasks and activities.
type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*model.Task, error)
	List(ctx context.Context, f repository.TaskFilter) ([]model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	SetStage(ctx context.Context, id uuid.UUID, stage string) error
	SetTrashed(ctx context.Context, id uuid.UUID, trashed bool) error
	RestoreAll(ctx context.Context) (int64, error)
	DeleteTrashed(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AddActivity(ctx context.Context, activity *model.Activity) error
	DeleteActivity(ctx context.Context, taskID, activityID uuid.UUID) (int64, error)

	AddSubTask(ctx context.Context, subTask *model.SubTask) error
	GetSubTask(ctx context.Context, taskID, subTaskID uuid.UUID) (*model.SubTask, error)
	UpdateSubTask(ctx context.Context, subTask *model.SubTask) error
	SetSubTaskStatus(ctx context.Context, taskID, subTaskID uuid.UUID, completed bool) error
	DeleteSubTask(ctx context.Context, taskID, subTaskID uuid.UUID) error
}

// UserStore persists users and their task back-references.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.User, error)
	ListAdmins(ctx context.Context) ([]model.User, error)
	ListRecentActive(ctx context.Context, limit int) ([]model.User, error)
	List(ctx context.Context, search string) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	AddTaskRef(ctx context.Context, userID, taskID uuid.UUID) error
	TaskRefs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)

	SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error
	FindByResetToken(ctx context.Context, tokenHash string) (*model.User, error)
	CompleteReset(ctx context.Context, id uuid.UUID, hashedPassword string) error
}

// NoticeStore persists notices and their read marks.
type NoticeStore interface {
	Create(ctx context.Context, notice *model.Notice) error
	ListUnread(ctx context.Context, userID uuid.UUID) ([]model.Notice, error)
	MarkRead(ctx context.Context, userID, noticeID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

// Repositories is the set of stores a unit of work operates on.
type Repositories struct {
	Tasks   TaskStore
	Users   UserStore
	Notices NoticeStore
}

// TxFunc runs fn inside one transaction. Returning an error from fn rolls
// every write of fn back.
type TxFunc func(ctx context.Context, fn func(r Repositories) error) error

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID      uuid.UUID
	IsAdmin bool
}
