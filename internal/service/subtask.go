package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"flowfix/internal/model"
	"flowfix/internal/sanitize"
)

type SubTaskInput struct {
	Title string
	Tag   string
	Date  string
}

// SubTaskPatch updates only the fields that are set.
type SubTaskPatch struct {
	Title *string
	Tag   *string
	Date  *string
}

func (s *TaskService) CreateSubTask(ctx context.Context, taskID uuid.UUID, in SubTaskInput) (*model.SubTask, error) {
	title := sanitize.Text(in.Title)
	if title == "" {
		return nil, validationError(msgTitleRequired)
	}
	date, err := optionalDate(in.Date)
	if err != nil {
		return nil, err
	}

	subTask := &model.SubTask{
		TaskID: taskID,
		Title:  title,
		Tag:    sanitize.Text(in.Tag),
		Date:   date,
	}
	err = s.tx(ctx, func(r Repositories) error {
		if _, err := r.Tasks.GetByID(ctx, taskID); err != nil {
			return err
		}
		return r.Tasks.AddSubTask(ctx, subTask)
	})
	if err != nil {
		return nil, s.fail("create subtask", err)
	}
	return subTask, nil
}

// UpdateSubTask changes title, tag or date of a subtask. The task activity
// log is left alone.
func (s *TaskService) UpdateSubTask(ctx context.Context, taskID, subTaskID uuid.UUID, patch SubTaskPatch) (*model.SubTask, error) {
	var subTask *model.SubTask
	err := s.tx(ctx, func(r Repositories) error {
		if _, err := r.Tasks.GetByID(ctx, taskID); err != nil {
			return err
		}
		var err error
		subTask, err = r.Tasks.GetSubTask(ctx, taskID, subTaskID)
		if err != nil {
			return err
		}

		if patch.Title != nil {
			title := sanitize.Text(*patch.Title)
			if title == "" {
				return validationError(msgTitleRequired)
			}
			subTask.Title = title
		}
		if patch.Tag != nil {
			subTask.Tag = sanitize.Text(*patch.Tag)
		}
		if patch.Date != nil {
			date, err := optionalDate(*patch.Date)
			if err != nil {
				return err
			}
			subTask.Date = date
		}
		return r.Tasks.UpdateSubTask(ctx, subTask)
	})
	if err != nil {
		return nil, s.fail("update subtask", err)
	}
	return subTask, nil
}

func (s *TaskService) SetSubTaskStatus(ctx context.Context, taskID, subTaskID uuid.UUID, completed bool) error {
	if err := s.repos.Tasks.SetSubTaskStatus(ctx, taskID, subTaskID, completed); err != nil {
		return s.fail("set subtask status", err)
	}
	return nil
}

func (s *TaskService) DeleteSubTask(ctx context.Context, taskID, subTaskID uuid.UUID) error {
	err := s.tx(ctx, func(r Repositories) error {
		if _, err := r.Tasks.GetByID(ctx, taskID); err != nil {
			return err
		}
		return r.Tasks.DeleteSubTask(ctx, taskID, subTaskID)
	})
	if err != nil {
		return s.fail("delete subtask", err)
	}
	return nil
}

// optionalDate parses s, returning nil for an empty value.
func optionalDate(s string) (*time.Time, error) {
	var zero time.Time
	t, err := ParseDate(s, zero)
	if err != nil || t.IsZero() {
		return nil, err
	}
	return &t, nil
}
