package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowfix/internal/model"
	"flowfix/internal/service"
)

func strPtr(s string) *string { return &s }

func TestTaskService_Create_FixPump(t *testing.T) {
	// Arrange
	store := newMemStore()
	admin := store.addUser("Admin", true, true)
	u1 := store.addUser("Ana", true, false)
	u2 := store.addUser("Bruno", false, false)
	svc := newTaskService(store)

	// Act
	task, err := svc.Create(context.Background(), service.Actor{ID: admin.ID, IsAdmin: true}, service.CreateTaskInput{
		Title:    "Fix pump",
		Team:     []uuid.UUID{u1.ID, u2.ID},
		Stage:    "TODO",
		Priority: "High",
		Date:     "2025-03-10",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, model.StageTodo, task.Stage)
	assert.Equal(t, model.PriorityHigh, task.Priority)
	assert.Len(t, task.Team, 2)

	stored := store.tasks[task.ID]
	require.Len(t, stored.Activities, 1)
	assert.Equal(t, model.ActivityAssigned, stored.Activities[0].Type)
	assert.Equal(t,
		"Uma nova tarefa foi atribuída a: Ana. A prioridade é ALTA, com data prevista para 10/03/2025. Verifique e aja de acordo.",
		stored.Activities[0].Text)
	assert.Equal(t, admin.ID, *stored.Activities[0].ByID)

	require.Len(t, store.notices, 1)
	notice := store.notices[0]
	assert.Equal(t, u1.ID, notice.Team[0].ID)
	assert.Equal(t, task.ID, *notice.TaskID)
	assert.Equal(t, model.NoticeDefault, notice.NotiType)
	assert.Equal(t,
		"Uma nova tarefa foi atribuída a você. A prioridade da tarefa é ALTA, com data prevista para 10/03/2025. Verifique e aja de acordo.",
		notice.Text)

	assert.Equal(t, []uuid.UUID{task.ID}, store.refs[u1.ID])
	assert.Empty(t, store.refs[u2.ID])
}

func TestTaskService_Create_NoticePerActiveMember(t *testing.T) {
	store := newMemStore()
	a := store.addUser("Ana", true, false)
	b := store.addUser("Bruno", true, false)
	c := store.addUser("Carla", true, false)
	svc := newTaskService(store)

	task, err := svc.Create(context.Background(), service.Actor{ID: a.ID, IsAdmin: true}, service.CreateTaskInput{
		Title:    "Revisar contrato",
		Team:     []uuid.UUID{a.ID, b.ID, c.ID, a.ID},
		Stage:    "in progress",
		Priority: "medium",
	})

	require.NoError(t, err)
	assert.Equal(t, model.StageInProgress, task.Stage)
	assert.Len(t, task.Team, 3)
	require.Len(t, store.notices, 3)
	assert.Contains(t, store.noticesFor(b.ID)[0].Text, "atribuída a você e para Ana, Carla.")
	assert.Contains(t, store.noticesFor(b.ID)[0].Text, "MÉDIA")
	for _, u := range []*model.User{a, b, c} {
		assert.Equal(t, []uuid.UUID{task.ID}, store.refs[u.ID])
	}
}

func TestTaskService_Create_EmptyActiveTeam(t *testing.T) {
	store := newMemStore()
	off := store.addUser("Inativo", false, false)
	svc := newTaskService(store)

	task, err := svc.Create(context.Background(), service.Actor{ID: uuid.New(), IsAdmin: true}, service.CreateTaskInput{
		Title: "Sem equipe ativa", Team: []uuid.UUID{off.ID}, Stage: "todo", Priority: "low",
	})

	require.NoError(t, err)
	assert.Empty(t, store.notices)
	assert.Len(t, store.tasks[task.ID].Activities, 1)
}

func TestTaskService_Create_Validation(t *testing.T) {
	store := newMemStore()
	svc := newTaskService(store)
	actor := service.Actor{ID: uuid.New(), IsAdmin: true}

	tests := []struct {
		name string
		in   service.CreateTaskInput
	}{
		{"missing title", service.CreateTaskInput{Title: "  ", Stage: "todo", Priority: "low"}},
		{"bad stage", service.CreateTaskInput{Title: "x", Stage: "doing", Priority: "low"}},
		{"bad priority", service.CreateTaskInput{Title: "x", Stage: "todo", Priority: "urgent"}},
		{"bad date", service.CreateTaskInput{Title: "x", Stage: "todo", Priority: "low", Date: "10/03/2025"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), actor, tt.in)
			assert.ErrorIs(t, err, service.ErrValidation)
		})
	}
	assert.Empty(t, store.tasks)
}

func TestTaskService_Create_UnknownTeamMember(t *testing.T) {
	store := newMemStore()
	u := store.addUser("Ana", true, false)
	svc := newTaskService(store)

	_, err := svc.Create(context.Background(), service.Actor{ID: u.ID, IsAdmin: true}, service.CreateTaskInput{
		Title: "x", Team: []uuid.UUID{u.ID, uuid.New()}, Stage: "todo", Priority: "low",
	})

	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.Empty(t, store.tasks)
	assert.Empty(t, store.notices)
}

func TestTaskService_Create_StorageFailure(t *testing.T) {
	store := newMemStore()
	store.failTaskCreate = errors.New("connection reset")
	svc := newTaskService(store)

	_, err := svc.Create(context.Background(), service.Actor{ID: uuid.New(), IsAdmin: true}, service.CreateTaskInput{
		Title: "x", Stage: "todo", Priority: "low",
	})

	assert.ErrorIs(t, err, service.ErrPersistence)
	var svcErr *service.Error
	require.True(t, errors.As(err, &svcErr))
	assert.EqualError(t, errors.Unwrap(err), "connection reset")
	// the driver text stays in the cause, the client only sees the generic message
	assert.Equal(t, "Erro ao acessar o banco de dados.", svcErr.Message)
}

func TestTaskService_Create_DefaultDateAndLinks(t *testing.T) {
	store := newMemStore()
	svc := newTaskService(store)

	var links service.Links
	require.NoError(t, json.Unmarshal([]byte(`" https://a.test ,, https://b.test "`), &links))

	before := time.Now().UTC().Add(-time.Minute)
	task, err := svc.Create(context.Background(), service.Actor{ID: uuid.New(), IsAdmin: true}, service.CreateTaskInput{
		Title: "<b>Links</b>", Stage: "todo", Priority: "normal", Links: links,
	})

	require.NoError(t, err)
	assert.Equal(t, "Links", task.Title)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, []string(task.Links))
	assert.True(t, task.Date.After(before))
}

func TestTaskService_Update_AppendsOneActivity(t *testing.T) {
	store := newMemStore()
	a := store.addUser("Ana", true, false)
	b := store.addUser("Bruno", true, false)
	svc := newTaskService(store)
	actor := service.Actor{ID: a.ID, IsAdmin: true}
	ctx := context.Background()

	task, err := svc.Create(ctx, actor, service.CreateTaskInput{
		Title: "Fix pump", Team: []uuid.UUID{a.ID}, Stage: "todo", Priority: "high", Date: "2025-03-10",
	})
	require.NoError(t, err)
	original := store.tasks[task.ID].Activities[0]

	team := []uuid.UUID{a.ID, b.ID}
	updated, err := svc.Update(ctx, actor, task.ID, service.TaskPatch{
		Title:    strPtr(""),
		Priority: strPtr("LOW"),
		Team:     &team,
	})

	require.NoError(t, err)
	assert.Equal(t, "Fix pump", updated.Title)
	assert.Equal(t, model.PriorityLow, updated.Priority)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), updated.Date)

	stored := store.tasks[task.ID]
	require.Len(t, stored.Activities, 2)
	assert.Equal(t, original, stored.Activities[0])
	assert.Equal(t, model.ActivityUpdate, stored.Activities[1].Type)
	assert.Len(t, stored.Team, 2)

	// one notice from create, two from update
	require.Len(t, store.notices, 3)
	assert.Equal(t,
		`A tarefa "Fix pump" foi atualizada. Ela está atribuída a você e para Bruno. A prioridade atual é BAIXA, com data prevista para 10/03/2025.`,
		store.notices[1].Text)
	assert.Equal(t, []uuid.UUID{task.ID}, store.refs[b.ID])
	assert.Equal(t, []uuid.UUID{task.ID}, store.refs[a.ID])
}

func TestTaskService_Update_NotFound(t *testing.T) {
	store := newMemStore()
	svc := newTaskService(store)

	_, err := svc.Update(context.Background(), service.Actor{IsAdmin: true}, uuid.New(), service.TaskPatch{})

	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestTaskService_Duplicate(t *testing.T) {
	store := newMemStore()
	a := store.addUser("Ana", true, false)
	svc := newTaskService(store)
	actor := service.Actor{ID: a.ID, IsAdmin: true}
	ctx := context.Background()

	src, err := svc.Create(ctx, actor, service.CreateTaskInput{
		Title: "Fix pump", Team: []uuid.UUID{a.ID}, Stage: "todo", Priority: "high",
	})
	require.NoError(t, err)
	sub, err := svc.CreateSubTask(ctx, src.ID, service.SubTaskInput{Title: "Comprar peça", Tag: "compras"})
	require.NoError(t, err)

	dup, err := svc.Duplicate(ctx, actor, src.ID)

	require.NoError(t, err)
	assert.NotEqual(t, src.ID, dup.ID)
	assert.Equal(t, "Duplicada - Fix pump", dup.Title)
	stored := store.tasks[dup.ID]
	require.Len(t, stored.SubTasks, 1)
	assert.NotEqual(t, sub.ID, stored.SubTasks[0].ID)
	assert.Equal(t, "Comprar peça", stored.SubTasks[0].Title)
	require.Len(t, stored.Activities, 1)
	assert.Equal(t, model.ActivityAssigned, stored.Activities[0].Type)
	assert.Len(t, store.notices, 2)
	assert.Equal(t, []uuid.UUID{src.ID, dup.ID}, store.refs[a.ID])

	_, err = svc.Duplicate(ctx, actor, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestTaskService_ChangeStage(t *testing.T) {
	store := newMemStore()
	svc := newTaskService(store)
	ctx := context.Background()
	task, err := svc.Create(ctx, service.Actor{IsAdmin: true}, service.CreateTaskInput{Title: "x", Stage: "todo", Priority: "low"})
	require.NoError(t, err)

	require.NoError(t, svc.ChangeStage(ctx, task.ID, "Completed"))
	assert.Equal(t, model.StageCompleted, store.tasks[task.ID].Stage)
	assert.Len(t, store.tasks[task.ID].Activities, 1)

	assert.ErrorIs(t, svc.ChangeStage(ctx, task.ID, "done"), service.ErrValidation)
	assert.ErrorIs(t, svc.ChangeStage(ctx, uuid.New(), "todo"), service.ErrNotFound)
}

func TestTaskService_PostActivity_BugWithoutAdmins(t *testing.T) {
	store := newMemStore()
	member := store.addUser("Ana", true, false)
	svc := newTaskService(store)
	ctx := context.Background()
	task, err := svc.Create(ctx, service.Actor{ID: member.ID, IsAdmin: true}, service.CreateTaskInput{
		Title: "x", Team: []uuid.UUID{member.ID}, Stage: "todo", Priority: "low",
	})
	require.NoError(t, err)
	before := len(store.notices)

	activity, err := svc.PostActivity(ctx, service.Actor{ID: member.ID}, task.ID, "bug", "Pump leaks")

	require.NoError(t, err)
	assert.Equal(t, "bug", activity.Type)
	assert.Len(t, store.notices, before)
	assert.Len(t, store.tasks[task.ID].Activities, 2)
}

func TestTaskService_PostActivity_BugAlertsAdmins(t *testing.T) {
	store := newMemStore()
	admin1 := store.addUser("Admin Um", true, true)
	admin2 := store.addUser("Admin Dois", true, true)
	member := store.addUser("Ana", true, false)
	svc := newTaskService(store)
	ctx := context.Background()
	task, err := svc.Create(ctx, service.Actor{ID: admin1.ID, IsAdmin: true}, service.CreateTaskInput{
		Title: "Fix pump", Team: []uuid.UUID{member.ID}, Stage: "todo", Priority: "low",
	})
	require.NoError(t, err)
	store.notices = nil

	_, err = svc.PostActivity(ctx, service.Actor{ID: member.ID}, task.ID, "commented", "Found a BUG in the valve")

	require.NoError(t, err)
	require.Len(t, store.notices, 1)
	alert := store.notices[0]
	assert.Equal(t, model.NoticeAlert, alert.NotiType)
	assert.ElementsMatch(t, []uuid.UUID{admin1.ID, admin2.ID}, []uuid.UUID{alert.Team[0].ID, alert.Team[1].ID})
	assert.Equal(t, `Ana adicionou um problema na tarefa "Fix pump": Found a BUG in the valve`, alert.Text)
}

func TestTaskService_PostActivity_BugSkipsInactiveAdmins(t *testing.T) {
	store := newMemStore()
	admin := store.addUser("Admin", true, true)
	store.addUser("Admin Antigo", false, true)
	member := store.addUser("Ana", true, false)
	svc := newTaskService(store)
	ctx := context.Background()
	task, err := svc.Create(ctx, service.Actor{ID: admin.ID, IsAdmin: true}, service.CreateTaskInput{
		Title: "Fix pump", Team: []uuid.UUID{member.ID}, Stage: "todo", Priority: "low",
	})
	require.NoError(t, err)
	admin.IsActive = false
	store.notices = nil

	_, err = svc.PostActivity(ctx, service.Actor{ID: member.ID}, task.ID, model.ActivityBug, "Valve leaking")

	require.NoError(t, err)
	assert.Empty(t, store.notices)
}

func TestTaskService_PostActivity_Access(t *testing.T) {
	store := newMemStore()
	member := store.addUser("Ana", true, false)
	outsider := store.addUser("Zé", true, false)
	svc := newTaskService(store)
	ctx := context.Background()
	task, err := svc.Create(ctx, service.Actor{IsAdmin: true}, service.CreateTaskInput{
		Title: "x", Team: []uuid.UUID{member.ID}, Stage: "todo", Priority: "low",
	})
	require.NoError(t, err)

	_, err = svc.PostActivity(ctx, service.Actor{ID: outsider.ID}, task.ID, "commented", "oi")
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = svc.PostActivity(ctx, service.Actor{ID: outsider.ID, IsAdmin: true}, task.ID, "commented", "oi")
	assert.NoError(t, err)

	_, err = svc.PostActivity(ctx, service.Actor{ID: member.ID}, task.ID, "", "oi")
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = svc.PostActivity(ctx, service.Actor{ID: member.ID}, uuid.New(), "commented", "oi")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestTaskService_PostActivity_NoRules(t *testing.T) {
	store := newMemStore()
	store.addUser("Admin", true, true)
	svc := newTaskService(store, []service.EscalationRule{}...)
	ctx := context.Background()
	task, err := svc.Create(ctx, service.Actor{IsAdmin: true}, service.CreateTaskInput{Title: "x", Stage: "todo", Priority: "low"})
	require.NoError(t, err)

	_, err = svc.PostActivity(ctx, service.Actor{IsAdmin: true}, task.ID, "bug", "bug")

	require.NoError(t, err)
	assert.Empty(t, store.notices)
}

func TestTaskService_DeleteActivity(t *testing.T) {
	store := newMemStore()
	svc := newTaskService(store)
	ctx := context.Background()
	task, err := svc.Create(ctx, service.Actor{IsAdmin: true}, service.CreateTaskInput{Title: "x", Stage: "todo", Priority: "low"})
	require.NoError(t, err)

	assert.NoError(t, svc.DeleteActivity(ctx, task.ID, uuid.New()))
	assert.Len(t, store.tasks[task.ID].Activities, 1)

	assert.NoError(t, svc.DeleteActivity(ctx, task.ID, store.tasks[task.ID].Activities[0].ID))
	assert.Empty(t, store.tasks[task.ID].Activities)

	assert.ErrorIs(t, svc.DeleteActivity(ctx, uuid.New(), uuid.New()), service.ErrNotFound)
}

func TestTaskService_TrashLifecycle(t *testing.T) {
	store := newMemStore()
	svc := newTaskService(store)
	query := service.NewQueryService(store.repos(), quietLogger())
	ctx := context.Background()
	admin := service.Actor{IsAdmin: true}

	var ids []uuid.UUID
	for _, title := range []string{"a", "b", "c"} {
		task, err := svc.Create(ctx, admin, service.CreateTaskInput{Title: title, Stage: "todo", Priority: "low"})
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}

	require.NoError(t, svc.Trash(ctx, ids[0]))
	require.NoError(t, svc.Trash(ctx, ids[1]))

	active, err := query.List(ctx, admin, service.ListQuery{})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, ids[2], active[0].ID)

	assert.ErrorIs(t, svc.DeleteOne(ctx, ids[2]), service.ErrValidation)

	restored, err := svc.RestoreAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, restored)

	deleted, err := svc.DeleteAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, deleted)
	assert.Len(t, store.tasks, 3)

	require.NoError(t, svc.Trash(ctx, ids[0]))
	require.NoError(t, svc.DeleteOne(ctx, ids[0]))
	assert.Len(t, store.tasks, 2)

	assert.ErrorIs(t, svc.Restore(ctx, uuid.New()), service.ErrNotFound)
}

func TestTaskService_UpdateSubTask_TitleOnly(t *testing.T) {
	store := newMemStore()
	svc := newTaskService(store)
	ctx := context.Background()
	task, err := svc.Create(ctx, service.Actor{IsAdmin: true}, service.CreateTaskInput{Title: "x", Stage: "todo", Priority: "low"})
	require.NoError(t, err)
	sub, err := svc.CreateSubTask(ctx, task.ID, service.SubTaskInput{Title: "Old", Tag: "ops", Date: "2025-04-01"})
	require.NoError(t, err)

	updated, err := svc.UpdateSubTask(ctx, task.ID, sub.ID, service.SubTaskPatch{Title: strPtr("New")})

	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, "ops", updated.Tag)
	require.NotNil(t, updated.Date)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), *updated.Date)
	assert.Len(t, store.tasks[task.ID].Activities, 1)
	assert.Equal(t, "New", store.tasks[task.ID].SubTasks[0].Title)
}

func TestTaskService_SubTaskLifecycle(t *testing.T) {
	store := newMemStore()
	svc := newTaskService(store)
	ctx := context.Background()
	task, err := svc.Create(ctx, service.Actor{IsAdmin: true}, service.CreateTaskInput{Title: "x", Stage: "todo", Priority: "low"})
	require.NoError(t, err)

	_, err = svc.CreateSubTask(ctx, uuid.New(), service.SubTaskInput{Title: "s"})
	assert.ErrorIs(t, err, service.ErrNotFound)

	sub, err := svc.CreateSubTask(ctx, task.ID, service.SubTaskInput{Title: "s"})
	require.NoError(t, err)
	assert.Nil(t, sub.Date)

	require.NoError(t, svc.SetSubTaskStatus(ctx, task.ID, sub.ID, true))
	assert.True(t, store.tasks[task.ID].SubTasks[0].IsCompleted)

	_, err = svc.UpdateSubTask(ctx, task.ID, uuid.New(), service.SubTaskPatch{Tag: strPtr("t")})
	assert.ErrorIs(t, err, service.ErrNotFound)

	require.NoError(t, svc.DeleteSubTask(ctx, task.ID, sub.ID))
	assert.Empty(t, store.tasks[task.ID].SubTasks)
	assert.ErrorIs(t, svc.DeleteSubTask(ctx, task.ID, sub.ID), service.ErrNotFound)
}
