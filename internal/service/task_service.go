package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"flowfix/internal/model"
	"flowfix/internal/sanitize"
)

// CreateTaskInput carries the fields of a new task as received from the client.
type CreateTaskInput struct {
	Title       string
	Team        []uuid.UUID
	Stage       string
	Date        string
	Priority    string
	Assets      []string
	Links       Links
	Description string
}

// TaskPatch is a partial update. Nil fields keep their value; an empty
// title, stage, priority or date also keeps the prior value.
type TaskPatch struct {
	Title       *string
	Team        *[]uuid.UUID
	Stage       *string
	Date        *string
	Priority    *string
	Assets      *[]string
	Links       *Links
	Description *string
}

// TaskService owns every task mutation and the notifications they produce.
type TaskService struct {
	repos Repositories
	tx    TxFunc
	rules []EscalationRule
	log   *logrus.Logger
	now   func() time.Time
}

func NewTaskService(repos Repositories, tx TxFunc, rules []EscalationRule, log *logrus.Logger) *TaskService {
	return &TaskService{
		repos: repos,
		tx:    tx,
		rules: rules,
		log:   log,
		now:   time.Now,
	}
}

// Create stores a new task, logs the assignment and notifies every active
// team member.
func (s *TaskService) Create(ctx context.Context, actor Actor, in CreateTaskInput) (*model.Task, error) {
	title := sanitize.Text(in.Title)
	if title == "" {
		return nil, validationError(msgTitleRequired)
	}
	stage, err := NormalizeStage(in.Stage)
	if err != nil {
		return nil, err
	}
	priority, err := NormalizePriority(in.Priority)
	if err != nil {
		return nil, err
	}
	date, err := ParseDate(in.Date, s.now().UTC())
	if err != nil {
		return nil, err
	}

	task := &model.Task{
		Title:       title,
		Description: sanitize.RichText(in.Description),
		Date:        date,
		Priority:    priority,
		Stage:       stage,
		Assets:      pq.StringArray(sanitize.List(in.Assets)),
		Links:       pq.StringArray(normalizeLinks(in.Links)),
	}

	err = s.tx(ctx, func(r Repositories) error {
		team, err := resolveTeam(ctx, r.Users, in.Team)
		if err != nil {
			return err
		}
		task.Team = team
		return s.assign(ctx, r, actor, task)
	})
	if err != nil {
		return nil, s.fail("create task", err)
	}

	s.log.WithFields(logrus.Fields{
		"operation": "create task",
		"task_id":   task.ID,
		"team":      len(task.Team),
	}).Info("task created")
	return task, nil
}

// Duplicate copies a task under a new id with fresh subtasks and notifies the
// active members of the copied team.
func (s *TaskService) Duplicate(ctx context.Context, actor Actor, id uuid.UUID) (*model.Task, error) {
	var dup *model.Task
	err := s.tx(ctx, func(r Repositories) error {
		src, err := r.Tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}

		dup = &model.Task{
			Title:       duplicatePrefix + src.Title,
			Description: src.Description,
			Date:        src.Date,
			Priority:    src.Priority,
			Stage:       src.Stage,
			Assets:      append(pq.StringArray{}, src.Assets...),
			Links:       append(pq.StringArray{}, src.Links...),
			Team:        src.Team,
		}
		for _, st := range src.SubTasks {
			dup.SubTasks = append(dup.SubTasks, model.SubTask{
				Title:       st.Title,
				Date:        st.Date,
				Tag:         st.Tag,
				IsCompleted: st.IsCompleted,
			})
		}
		return s.assign(ctx, r, actor, dup)
	})
	if err != nil {
		return nil, s.fail("duplicate task", err)
	}
	return dup, nil
}

// assign persists task with its "assigned" activity and fans out one notice
// per active member.
func (s *TaskService) assign(ctx context.Context, r Repositories, actor Actor, task *model.Task) error {
	active := activeMembers(task.Team)
	by := actor.ID
	task.Activities = []model.Activity{{
		Type: model.ActivityAssigned,
		Text: assignedActivityText(userNames(active), task.Priority, task.Date),
		ByID: &by,
	}}

	if err := r.Tasks.Create(ctx, task); err != nil {
		return err
	}
	return notifyMembers(ctx, r, task.ID, active, func(others []string) string {
		return assignedNoticeText(others, task.Priority, task.Date)
	}, true)
}

// Update applies patch, appends one "update" activity and notifies the
// active members of the resulting team.
func (s *TaskService) Update(ctx context.Context, actor Actor, id uuid.UUID, patch TaskPatch) (*model.Task, error) {
	var task *model.Task
	err := s.tx(ctx, func(r Repositories) error {
		var err error
		task, err = r.Tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.applyPatch(ctx, r, task, patch); err != nil {
			return err
		}
		if err := r.Tasks.Update(ctx, task); err != nil {
			return err
		}

		active := activeMembers(task.Team)
		by := actor.ID
		activity := &model.Activity{
			TaskID: task.ID,
			Type:   model.ActivityUpdate,
			Text:   updatedActivityText(userNames(active), task.Priority, task.Date),
			ByID:   &by,
		}
		if err := r.Tasks.AddActivity(ctx, activity); err != nil {
			return err
		}
		task.Activities = append(task.Activities, *activity)

		return notifyMembers(ctx, r, task.ID, active, func(others []string) string {
			return updatedNoticeText(task.Title, others, task.Priority, task.Date)
		}, true)
	})
	if err != nil {
		return nil, s.fail("update task", err)
	}
	return task, nil
}

func (s *TaskService) applyPatch(ctx context.Context, r Repositories, task *model.Task, p TaskPatch) error {
	if p.Title != nil {
		if title := sanitize.Text(*p.Title); title != "" {
			task.Title = title
		}
	}
	if p.Stage != nil && strings.TrimSpace(*p.Stage) != "" {
		stage, err := NormalizeStage(*p.Stage)
		if err != nil {
			return err
		}
		task.Stage = stage
	}
	if p.Priority != nil && strings.TrimSpace(*p.Priority) != "" {
		priority, err := NormalizePriority(*p.Priority)
		if err != nil {
			return err
		}
		task.Priority = priority
	}
	if p.Date != nil {
		date, err := ParseDate(*p.Date, task.Date)
		if err != nil {
			return err
		}
		task.Date = date
	}
	if p.Description != nil {
		task.Description = sanitize.RichText(*p.Description)
	}
	if p.Assets != nil {
		task.Assets = pq.StringArray(sanitize.List(*p.Assets))
	}
	if p.Links != nil {
		task.Links = pq.StringArray(normalizeLinks(*p.Links))
	}
	if p.Team != nil {
		team, err := resolveTeam(ctx, r.Users, *p.Team)
		if err != nil {
			return err
		}
		task.Team = team
	}
	return nil
}

// ChangeStage moves a task to another stage without logging or notifying.
func (s *TaskService) ChangeStage(ctx context.Context, id uuid.UUID, stage string) error {
	normalized, err := NormalizeStage(stage)
	if err != nil {
		return err
	}
	if err := s.repos.Tasks.SetStage(ctx, id, normalized); err != nil {
		return s.fail("change stage", err)
	}
	return nil
}

// PostActivity appends an activity written by actor and runs the escalation
// rules over it. Only administrators and team members may post.
func (s *TaskService) PostActivity(ctx context.Context, actor Actor, taskID uuid.UUID, kind, text string) (*model.Activity, error) {
	kind = strings.ToLower(sanitize.Text(kind))
	text = sanitize.Text(text)
	if kind == "" || text == "" {
		return nil, validationError(msgActivityRequired)
	}

	by := actor.ID
	activity := &model.Activity{TaskID: taskID, Type: kind, Text: text, ByID: &by}
	alerts := 0
	err := s.tx(ctx, func(r Repositories) error {
		task, err := r.Tasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin && !task.HasMember(actor.ID) {
			return forbidden(msgNotTeamMember)
		}
		if err := r.Tasks.AddActivity(ctx, activity); err != nil {
			return err
		}
		alerts, err = escalate(ctx, r, s.rules, actor, task, activity)
		return err
	})
	if err != nil {
		return nil, s.fail("post activity", err)
	}

	if alerts > 0 {
		s.log.WithFields(logrus.Fields{
			"operation": "post activity",
			"task_id":   taskID,
			"alerts":    alerts,
		}).Warn("activity escalated")
	}
	return activity, nil
}

// DeleteActivity removes one activity entry. An unknown activity id is not
// an error.
func (s *TaskService) DeleteActivity(ctx context.Context, taskID, activityID uuid.UUID) error {
	if _, err := s.repos.Tasks.GetByID(ctx, taskID); err != nil {
		return s.fail("delete activity", err)
	}
	if _, err := s.repos.Tasks.DeleteActivity(ctx, taskID, activityID); err != nil {
		return s.fail("delete activity", err)
	}
	return nil
}

func (s *TaskService) Trash(ctx context.Context, id uuid.UUID) error {
	if err := s.repos.Tasks.SetTrashed(ctx, id, true); err != nil {
		return s.fail("trash task", err)
	}
	return nil
}

func (s *TaskService) Restore(ctx context.Context, id uuid.UUID) error {
	if err := s.repos.Tasks.SetTrashed(ctx, id, false); err != nil {
		return s.fail("restore task", err)
	}
	return nil
}

// RestoreAll takes every trashed task out of the trash.
func (s *TaskService) RestoreAll(ctx context.Context) (int64, error) {
	n, err := s.repos.Tasks.RestoreAll(ctx)
	if err != nil {
		return 0, s.fail("restore all", err)
	}
	return n, nil
}

// DeleteAll permanently removes every trashed task.
func (s *TaskService) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.repos.Tasks.DeleteTrashed(ctx)
	if err != nil {
		return 0, s.fail("delete all", err)
	}
	s.log.WithFields(logrus.Fields{"operation": "delete all", "deleted": n}).Info("trash emptied")
	return n, nil
}

// DeleteOne permanently removes a trashed task.
func (s *TaskService) DeleteOne(ctx context.Context, id uuid.UUID) error {
	err := s.tx(ctx, func(r Repositories) error {
		task, err := r.Tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !task.IsTrashed {
			return validationError(msgNotTrashed)
		}
		return r.Tasks.Delete(ctx, id)
	})
	if err != nil {
		return s.fail("delete task", err)
	}
	return nil
}

// fail classifies err and logs it when it is a storage failure.
func (s *TaskService) fail(op string, err error) error {
	return failure(s.log, op, err)
}

func failure(log *logrus.Logger, op string, err error) error {
	classified := classify(err)
	if errors.Is(classified, ErrPersistence) {
		log.WithError(err).WithField("operation", op).Error("storage failure")
	}
	return classified
}
