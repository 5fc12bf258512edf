package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"flowfix/internal/model"
	"flowfix/internal/repository"
)

const (
	dashboardRecentTasks = 10
	dashboardRecentUsers = 10
)

// graphOrder is the order priorities appear in the dashboard chart.
var graphOrder = []string{
	model.PriorityHigh,
	model.PriorityMedium,
	model.PriorityNormal,
	model.PriorityLow,
}

type ListQuery struct {
	Stage   string
	Trashed bool
	Search  string
}

type PriorityCount struct {
	Name  string
	Total int
}

type Dashboard struct {
	TotalTasks int
	Last10Task []model.Task
	Users      []model.User
	Tasks      map[string]int
	GraphData  []PriorityCount
}

// QueryService answers the read-only task views.
type QueryService struct {
	repos Repositories
	log   *logrus.Logger
}

func NewQueryService(repos Repositories, log *logrus.Logger) *QueryService {
	return &QueryService{repos: repos, log: log}
}

// List returns the tasks visible to actor, newest first. Non-admins only see
// tasks they are part of.
func (s *QueryService) List(ctx context.Context, actor Actor, q ListQuery) ([]model.Task, error) {
	filter := repository.TaskFilter{Trashed: q.Trashed, Search: q.Search}
	if q.Stage != "" {
		stage, err := NormalizeStage(q.Stage)
		if err != nil {
			return nil, err
		}
		filter.Stage = stage
	}
	if !actor.IsAdmin {
		filter.MemberID = memberOf(actor.ID)
	}

	tasks, err := s.repos.Tasks.List(ctx, filter)
	if err != nil {
		return nil, failure(s.log, "list tasks", err)
	}
	return tasks, nil
}

func (s *QueryService) Get(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	task, err := s.repos.Tasks.GetDetail(ctx, id)
	if err != nil {
		return nil, failure(s.log, "get task", err)
	}
	return task, nil
}

// Dashboard summarizes the non-trashed tasks visible to actor.
func (s *QueryService) Dashboard(ctx context.Context, actor Actor) (*Dashboard, error) {
	filter := repository.TaskFilter{}
	if !actor.IsAdmin {
		filter.MemberID = memberOf(actor.ID)
	}
	tasks, err := s.repos.Tasks.List(ctx, filter)
	if err != nil {
		return nil, failure(s.log, "dashboard", err)
	}

	d := &Dashboard{
		TotalTasks: len(tasks),
		Tasks:      map[string]int{},
		Users:      []model.User{},
	}
	perPriority := map[string]int{}
	for _, t := range tasks {
		d.Tasks[t.Stage]++
		perPriority[t.Priority]++
	}
	for _, p := range graphOrder {
		if n := perPriority[p]; n > 0 {
			d.GraphData = append(d.GraphData, PriorityCount{Name: p, Total: n})
		}
	}

	d.Last10Task = tasks
	if len(tasks) > dashboardRecentTasks {
		d.Last10Task = tasks[:dashboardRecentTasks]
	}

	if actor.IsAdmin {
		users, err := s.repos.Users.ListRecentActive(ctx, dashboardRecentUsers)
		if err != nil {
			return nil, failure(s.log, "dashboard", err)
		}
		d.Users = users
	}
	return d, nil
}

func memberOf(id uuid.UUID) *uuid.UUID {
	return &id
}
