package service_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"flowfix/internal/model"
	"flowfix/internal/repository"
	"flowfix/internal/service"
)

// memStore keeps tasks, users and notices in memory and satisfies the three
// store interfaces through thin views.
type memStore struct {
	tasks   map[uuid.UUID]*model.Task
	users   map[uuid.UUID]*model.User
	notices []*model.Notice
	refs    map[uuid.UUID][]uuid.UUID
	reads   map[uuid.UUID]map[uuid.UUID]bool
	clock   time.Time

	failTaskCreate error
}

func newMemStore() *memStore {
	return &memStore{
		tasks: map[uuid.UUID]*model.Task{},
		users: map[uuid.UUID]*model.User{},
		refs:  map[uuid.UUID][]uuid.UUID{},
		reads: map[uuid.UUID]map[uuid.UUID]bool{},
		clock: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) repos() service.Repositories {
	return service.Repositories{
		Tasks:   memTasks{m},
		Users:   memUsers{m},
		Notices: memNotices{m},
	}
}

func (m *memStore) tx(ctx context.Context, fn func(r service.Repositories) error) error {
	return fn(m.repos())
}

func (m *memStore) addUser(name string, active, admin bool) *model.User {
	u := &model.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@flowfix.test",
		IsActive:  active,
		IsAdmin:   admin,
		CreatedAt: m.tick(),
	}
	m.users[u.ID] = u
	return u
}

func (m *memStore) noticesFor(userID uuid.UUID) []*model.Notice {
	var out []*model.Notice
	for _, n := range m.notices {
		for _, u := range n.Team {
			if u.ID == userID {
				out = append(out, n)
			}
		}
	}
	return out
}

func cloneTask(t *model.Task) *model.Task {
	c := *t
	c.Team = append([]model.User(nil), t.Team...)
	c.SubTasks = append([]model.SubTask(nil), t.SubTasks...)
	c.Activities = append([]model.Activity(nil), t.Activities...)
	c.Assets = append([]string(nil), t.Assets...)
	c.Links = append([]string(nil), t.Links...)
	return &c
}

type memTasks struct{ m *memStore }

func (f memTasks) Create(_ context.Context, task *model.Task) error {
	if f.m.failTaskCreate != nil {
		return f.m.failTaskCreate
	}
	if err := task.BeforeCreate(nil); err != nil {
		return err
	}
	task.CreatedAt = f.m.tick()
	task.UpdatedAt = task.CreatedAt
	for i := range task.SubTasks {
		task.SubTasks[i].TaskID = task.ID
		_ = task.SubTasks[i].BeforeCreate(nil)
	}
	for i := range task.Activities {
		task.Activities[i].TaskID = task.ID
		task.Activities[i].CreatedAt = task.CreatedAt
		_ = task.Activities[i].BeforeCreate(nil)
	}
	f.m.tasks[task.ID] = cloneTask(task)
	return nil
}

func (f memTasks) GetByID(_ context.Context, id uuid.UUID) (*model.Task, error) {
	t, ok := f.m.tasks[id]
	if !ok {
		return nil, repository.ErrTaskNotFound
	}
	return cloneTask(t), nil
}

func (f memTasks) GetDetail(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	return f.GetByID(ctx, id)
}

func (f memTasks) List(_ context.Context, flt repository.TaskFilter) ([]model.Task, error) {
	var out []model.Task
	search := strings.ToLower(flt.Search)
	for _, t := range f.m.tasks {
		if t.IsTrashed != flt.Trashed {
			continue
		}
		if flt.MemberID != nil && !t.HasMember(*flt.MemberID) {
			continue
		}
		if flt.Stage != "" && t.Stage != flt.Stage {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(t.Stage, search) &&
			!strings.Contains(t.Priority, search) {
			continue
		}
		out = append(out, *cloneTask(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f memTasks) Update(_ context.Context, task *model.Task) error {
	stored, ok := f.m.tasks[task.ID]
	if !ok {
		return repository.ErrTaskNotFound
	}
	stored.Title = task.Title
	stored.Description = task.Description
	stored.Date = task.Date
	stored.Priority = task.Priority
	stored.Stage = task.Stage
	stored.Assets = append([]string(nil), task.Assets...)
	stored.Links = append([]string(nil), task.Links...)
	stored.Team = append([]model.User(nil), task.Team...)
	return nil
}

func (f memTasks) SetStage(_ context.Context, id uuid.UUID, stage string) error {
	t, ok := f.m.tasks[id]
	if !ok {
		return repository.ErrTaskNotFound
	}
	t.Stage = stage
	return nil
}

func (f memTasks) SetTrashed(_ context.Context, id uuid.UUID, trashed bool) error {
	t, ok := f.m.tasks[id]
	if !ok {
		return repository.ErrTaskNotFound
	}
	t.IsTrashed = trashed
	return nil
}

func (f memTasks) RestoreAll(context.Context) (int64, error) {
	var n int64
	for _, t := range f.m.tasks {
		if t.IsTrashed {
			t.IsTrashed = false
			n++
		}
	}
	return n, nil
}

func (f memTasks) DeleteTrashed(context.Context) (int64, error) {
	var n int64
	for id, t := range f.m.tasks {
		if t.IsTrashed {
			delete(f.m.tasks, id)
			n++
		}
	}
	return n, nil
}

func (f memTasks) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.m.tasks[id]; !ok {
		return repository.ErrTaskNotFound
	}
	delete(f.m.tasks, id)
	return nil
}

func (f memTasks) AddActivity(_ context.Context, a *model.Activity) error {
	t, ok := f.m.tasks[a.TaskID]
	if !ok {
		return errors.New("foreign key violation")
	}
	_ = a.BeforeCreate(nil)
	a.CreatedAt = f.m.tick()
	t.Activities = append(t.Activities, *a)
	return nil
}

func (f memTasks) DeleteActivity(_ context.Context, taskID, activityID uuid.UUID) (int64, error) {
	t, ok := f.m.tasks[taskID]
	if !ok {
		return 0, nil
	}
	for i, a := range t.Activities {
		if a.ID == activityID {
			t.Activities = append(t.Activities[:i], t.Activities[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f memTasks) AddSubTask(_ context.Context, st *model.SubTask) error {
	t, ok := f.m.tasks[st.TaskID]
	if !ok {
		return errors.New("foreign key violation")
	}
	_ = st.BeforeCreate(nil)
	st.CreatedAt = f.m.tick()
	t.SubTasks = append(t.SubTasks, *st)
	return nil
}

func (f memTasks) findSubTask(taskID, subTaskID uuid.UUID) (*model.SubTask, error) {
	t, ok := f.m.tasks[taskID]
	if !ok {
		return nil, repository.ErrSubTaskNotFound
	}
	for i := range t.SubTasks {
		if t.SubTasks[i].ID == subTaskID {
			return &t.SubTasks[i], nil
		}
	}
	return nil, repository.ErrSubTaskNotFound
}

func (f memTasks) GetSubTask(_ context.Context, taskID, subTaskID uuid.UUID) (*model.SubTask, error) {
	st, err := f.findSubTask(taskID, subTaskID)
	if err != nil {
		return nil, err
	}
	c := *st
	return &c, nil
}

func (f memTasks) UpdateSubTask(_ context.Context, st *model.SubTask) error {
	stored, err := f.findSubTask(st.TaskID, st.ID)
	if err != nil {
		return err
	}
	stored.Title, stored.Tag, stored.Date = st.Title, st.Tag, st.Date
	return nil
}

func (f memTasks) SetSubTaskStatus(_ context.Context, taskID, subTaskID uuid.UUID, completed bool) error {
	stored, err := f.findSubTask(taskID, subTaskID)
	if err != nil {
		return err
	}
	stored.IsCompleted = completed
	return nil
}

func (f memTasks) DeleteSubTask(_ context.Context, taskID, subTaskID uuid.UUID) error {
	t, ok := f.m.tasks[taskID]
	if !ok {
		return repository.ErrSubTaskNotFound
	}
	for i, st := range t.SubTasks {
		if st.ID == subTaskID {
			t.SubTasks = append(t.SubTasks[:i], t.SubTasks[i+1:]...)
			return nil
		}
	}
	return repository.ErrSubTaskNotFound
}

type memUsers struct{ m *memStore }

func (f memUsers) Create(_ context.Context, u *model.User) error {
	if err := u.BeforeCreate(nil); err != nil {
		return err
	}
	u.CreatedAt = f.m.tick()
	c := *u
	f.m.users[u.ID] = &c
	return nil
}

func (f memUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.m.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (f memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (f memUsers) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.User, error) {
	var out []model.User
	for _, id := range ids {
		if u, ok := f.m.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f memUsers) ListAdmins(context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range f.m.users {
		if u.IsAdmin && u.IsActive {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f memUsers) ListRecentActive(_ context.Context, limit int) ([]model.User, error) {
	var out []model.User
	for _, u := range f.m.users {
		if u.IsActive {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f memUsers) List(_ context.Context, search string) ([]model.User, error) {
	var out []model.User
	for _, u := range f.m.users {
		if search == "" || strings.Contains(strings.ToLower(u.Name), strings.ToLower(search)) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f memUsers) Update(_ context.Context, u *model.User) error {
	if _, ok := f.m.users[u.ID]; !ok {
		return repository.ErrUserNotFound
	}
	c := *u
	f.m.users[u.ID] = &c
	return nil
}

func (f memUsers) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.m.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(f.m.users, id)
	return nil
}

func (f memUsers) Count(context.Context) (int64, error) {
	return int64(len(f.m.users)), nil
}

func (f memUsers) AddTaskRef(_ context.Context, userID, taskID uuid.UUID) error {
	for _, id := range f.m.refs[userID] {
		if id == taskID {
			return nil
		}
	}
	f.m.refs[userID] = append(f.m.refs[userID], taskID)
	return nil
}

func (f memUsers) TaskRefs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return append([]uuid.UUID(nil), f.m.refs[userID]...), nil
}

func (f memUsers) SetResetToken(_ context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	u, ok := f.m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.ResetTokenHash = tokenHash
	u.ResetExpiresAt = &expiresAt
	return nil
}

func (f memUsers) FindByResetToken(_ context.Context, tokenHash string) (*model.User, error) {
	for _, u := range f.m.users {
		if u.ResetTokenHash != "" && u.ResetTokenHash == tokenHash {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (f memUsers) CompleteReset(_ context.Context, id uuid.UUID, hashedPassword string) error {
	u, ok := f.m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.HashedPassword = hashedPassword
	u.ResetTokenHash = ""
	u.ResetExpiresAt = nil
	return nil
}

type memNotices struct{ m *memStore }

func (f memNotices) Create(_ context.Context, n *model.Notice) error {
	if err := n.BeforeCreate(nil); err != nil {
		return err
	}
	n.CreatedAt = f.m.tick()
	f.m.notices = append(f.m.notices, n)
	return nil
}

func (f memNotices) ListUnread(_ context.Context, userID uuid.UUID) ([]model.Notice, error) {
	var out []model.Notice
	for _, n := range f.m.noticesFor(userID) {
		if !f.m.reads[n.ID][userID] {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (f memNotices) MarkRead(_ context.Context, userID, noticeID uuid.UUID) error {
	if f.m.reads[noticeID] == nil {
		f.m.reads[noticeID] = map[uuid.UUID]bool{}
	}
	f.m.reads[noticeID][userID] = true
	return nil
}

func (f memNotices) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	for _, n := range f.m.noticesFor(userID) {
		_ = f.MarkRead(ctx, userID, n.ID)
	}
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTaskService(m *memStore, rules ...service.EscalationRule) *service.TaskService {
	if rules == nil {
		rules = service.DefaultEscalations()
	}
	return service.NewTaskService(m.repos(), m.tx, rules, quietLogger())
}
