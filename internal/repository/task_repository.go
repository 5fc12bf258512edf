package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"flowfix/internal/model"
)

// TaskFilter narrows List results.
type TaskFilter struct {
	Trashed bool
	// MemberID restricts results to tasks whose team contains this user.
	MemberID *uuid.UUID
	Stage    string
	Search   string
}

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create adds a new task together with its subtasks, activities and team rows.
// Team users must already exist; they are linked, never upserted.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Omit("Team.*").Create(task).Error
}

// GetByID retrieves a task with its full team, subtasks and activities
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).
		Preload("Team").
		Preload("SubTasks", orderByCreation("sub_tasks")).
		Preload("Activities", orderByCreation("activities")).
		First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// GetDetail retrieves a task with the team and activity authors reduced to
// display fields.
func (r *TaskRepository) GetDetail(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).
		Preload("Team", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "title", "role", "email")
		}).
		Preload("SubTasks", orderByCreation("sub_tasks")).
		Preload("Activities", orderByCreation("activities")).
		Preload("Activities.By", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name")
		}).
		First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// List returns tasks matching the filter, newest first
func (r *TaskRepository) List(ctx context.Context, f TaskFilter) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Model(&model.Task{}).Where("is_trashed = ?", f.Trashed)

	if f.MemberID != nil {
		q = q.Where("EXISTS (SELECT 1 FROM task_team WHERE task_team.task_id = tasks.id AND task_team.user_id = ?)", *f.MemberID)
	}
	if f.Stage != "" {
		q = q.Where("stage = ?", f.Stage)
	}
	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		q = q.Where("(title ILIKE ? OR stage ILIKE ? OR priority ILIKE ?)", pattern, pattern, pattern)
	}

	var tasks []model.Task
	err := q.
		Preload("Team", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "title", "role", "email")
		}).
		Preload("SubTasks", orderByCreation("sub_tasks")).
		Order("created_at DESC, id DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update writes the top-level fields of a task and replaces its team.
// Subtasks and activities are left untouched.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Task{}).Where("id = ?", task.ID).Updates(map[string]interface{}{
			"title":       task.Title,
			"description": task.Description,
			"date":        task.Date,
			"priority":    task.Priority,
			"stage":       task.Stage,
			"assets":      task.Assets,
			"links":       task.Links,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTaskNotFound
		}

		if err := tx.Exec("DELETE FROM task_team WHERE task_id = ?", task.ID).Error; err != nil {
			return err
		}
		for _, member := range task.Team {
			if err := tx.Exec(
				"INSERT INTO task_team (task_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
				task.ID, member.ID,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SetStage changes only the stage of a task
func (r *TaskRepository) SetStage(ctx context.Context, id uuid.UUID, stage string) error {
	return r.updateColumn(ctx, id, "stage", stage)
}

// SetTrashed moves a task to or out of the trash
func (r *TaskRepository) SetTrashed(ctx context.Context, id uuid.UUID, trashed bool) error {
	return r.updateColumn(ctx, id, "is_trashed", trashed)
}

func (r *TaskRepository) updateColumn(ctx context.Context, id uuid.UUID, column string, value interface{}) error {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", id).
		Update(column, value)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// RestoreAll takes every trashed task out of the trash
func (r *TaskRepository) RestoreAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("is_trashed = ?", true).
		Update("is_trashed", false)
	return result.RowsAffected, result.Error
}

// DeleteTrashed permanently removes every trashed task
func (r *TaskRepository) DeleteTrashed(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("is_trashed = ?", true).Delete(&model.Task{})
	return result.RowsAffected, result.Error
}

// Delete removes a task by its ID
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// AddActivity appends an entry to a task's activity log
func (r *TaskRepository) AddActivity(ctx context.Context, activity *model.Activity) error {
	return r.db.WithContext(ctx).Omit("By").Create(activity).Error
}

// DeleteActivity removes one activity entry and reports how many rows went away
func (r *TaskRepository) DeleteActivity(ctx context.Context, taskID, activityID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND task_id = ?", activityID, taskID).
		Delete(&model.Activity{})
	return result.RowsAffected, result.Error
}

// AddSubTask appends a subtask to a task
func (r *TaskRepository) AddSubTask(ctx context.Context, subTask *model.SubTask) error {
	return r.db.WithContext(ctx).Create(subTask).Error
}

// GetSubTask retrieves one subtask of a task
func (r *TaskRepository) GetSubTask(ctx context.Context, taskID, subTaskID uuid.UUID) (*model.SubTask, error) {
	var subTask model.SubTask
	err := r.db.WithContext(ctx).
		Where("id = ? AND task_id = ?", subTaskID, taskID).
		First(&subTask).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubTaskNotFound
		}
		return nil, err
	}
	return &subTask, nil
}

// UpdateSubTask writes title, tag and date of a subtask
func (r *TaskRepository) UpdateSubTask(ctx context.Context, subTask *model.SubTask) error {
	result := r.db.WithContext(ctx).Model(&model.SubTask{}).
		Where("id = ? AND task_id = ?", subTask.ID, subTask.TaskID).
		Updates(map[string]interface{}{
			"title": subTask.Title,
			"tag":   subTask.Tag,
			"date":  subTask.Date,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubTaskNotFound
	}
	return nil
}

// SetSubTaskStatus marks a subtask completed or not
func (r *TaskRepository) SetSubTaskStatus(ctx context.Context, taskID, subTaskID uuid.UUID, completed bool) error {
	result := r.db.WithContext(ctx).Model(&model.SubTask{}).
		Where("id = ? AND task_id = ?", subTaskID, taskID).
		Update("is_completed", completed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubTaskNotFound
	}
	return nil
}

// DeleteSubTask removes one subtask of a task
func (r *TaskRepository) DeleteSubTask(ctx context.Context, taskID, subTaskID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND task_id = ?", subTaskID, taskID).
		Delete(&model.SubTask{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubTaskNotFound
	}
	return nil
}

func orderByCreation(table string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(table + ".created_at, " + table + ".id")
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
