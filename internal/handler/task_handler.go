package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"flowfix/internal/middleware"
	"flowfix/internal/model"
	"flowfix/internal/service"
)

// TaskMutator is the write side used by TaskHandler.
type TaskMutator interface {
	Create(ctx context.Context, actor service.Actor, in service.CreateTaskInput) (*model.Task, error)
	Duplicate(ctx context.Context, actor service.Actor, id uuid.UUID) (*model.Task, error)
	Update(ctx context.Context, actor service.Actor, id uuid.UUID, patch service.TaskPatch) (*model.Task, error)
	ChangeStage(ctx context.Context, id uuid.UUID, stage string) error
	PostActivity(ctx context.Context, actor service.Actor, taskID uuid.UUID, kind, text string) (*model.Activity, error)
	DeleteActivity(ctx context.Context, taskID, activityID uuid.UUID) error
	Trash(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
	RestoreAll(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	DeleteOne(ctx context.Context, id uuid.UUID) error
	CreateSubTask(ctx context.Context, taskID uuid.UUID, in service.SubTaskInput) (*model.SubTask, error)
	UpdateSubTask(ctx context.Context, taskID, subTaskID uuid.UUID, patch service.SubTaskPatch) (*model.SubTask, error)
	SetSubTaskStatus(ctx context.Context, taskID, subTaskID uuid.UUID, completed bool) error
	DeleteSubTask(ctx context.Context, taskID, subTaskID uuid.UUID) error
}

// TaskQuerier is the read side used by TaskHandler.
type TaskQuerier interface {
	List(ctx context.Context, actor service.Actor, q service.ListQuery) ([]model.Task, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Task, error)
	Dashboard(ctx context.Context, actor service.Actor) (*service.Dashboard, error)
}

type TaskHandler struct {
	tasks   TaskMutator
	queries TaskQuerier
}

func NewTaskHandler(tasks TaskMutator, queries TaskQuerier) *TaskHandler {
	return &TaskHandler{tasks: tasks, queries: queries}
}

// CreateTaskRequest is the body of task creation.
type CreateTaskRequest struct {
	Title       string        `json:"title" binding:"required"`
	Team        []string      `json:"team" binding:"dive,uuid"`
	Stage       string        `json:"stage" binding:"required,stage"`
	Date        string        `json:"date"`
	Priority    string        `json:"priority" binding:"required,priority"`
	Assets      []string      `json:"assets"`
	Links       service.Links `json:"links" swaggertype:"array,string"`
	Description string        `json:"description"`
}

// UpdateTaskRequest is a partial update; absent fields are left untouched.
type UpdateTaskRequest struct {
	Title       *string        `json:"title"`
	Team        *[]string      `json:"team"`
	Stage       *string        `json:"stage"`
	Date        *string        `json:"date"`
	Priority    *string        `json:"priority"`
	Assets      *[]string      `json:"assets"`
	Links       *service.Links `json:"links" swaggertype:"array,string"`
	Description *string        `json:"description"`
}

type ChangeStageRequest struct {
	Stage string `json:"stage" binding:"required,stage"`
}

type ActivityRequest struct {
	Type     string `json:"type" binding:"required"`
	Activity string `json:"activity" binding:"required"`
}

type SubTaskRequest struct {
	Title string `json:"title" binding:"required"`
	Tag   string `json:"tag"`
	Date  string `json:"date"`
}

type UpdateSubTaskRequest struct {
	Title *string `json:"title"`
	Tag   *string `json:"tag"`
	Date  *string `json:"date"`
}

type SubTaskStatusRequest struct {
	Status *bool `json:"status" binding:"required"`
}

// Create godoc
// @Summary      Create a task
// @Description  Creates a task, logs the assignment and notifies every active team member
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        task  body      CreateTaskRequest  true  "Task"
// @Success      200   {object}  TaskEnvelope
// @Failure      400   {object}  MessageResponse
// @Failure      404   {object}  MessageResponse
// @Security     BearerAuth
// @Router       /api/task/create [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	team, err := parseIDs(req.Team)
	if err != nil {
		respondBindError(c, err)
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), middleware.Actor(c), service.CreateTaskInput{
		Title:       req.Title,
		Team:        team,
		Stage:       req.Stage,
		Date:        req.Date,
		Priority:    req.Priority,
		Assets:      req.Assets,
		Links:       req.Links,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := toTaskResponse(*task)
	c.JSON(http.StatusOK, TaskEnvelope{
		Status:  true,
		Message: "Tarefa criada e notificações enviadas com sucesso.",
		Task:    &resp,
	})
}

// Duplicate godoc
// @Summary  Duplicate a task
// @Tags     tasks
// @Produce  json
// @Param    id   path      string  true  "Task ID"
// @Success  200  {object}  TaskEnvelope
// @Failure  404  {object}  MessageResponse
// @Security BearerAuth
// @Router   /api/task/duplicate/{id} [post]
func (h *TaskHandler) Duplicate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	task, err := h.tasks.Duplicate(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := toTaskResponse(*task)
	c.JSON(http.StatusOK, TaskEnvelope{
		Status:  true,
		Message: "Tarefa duplicada e notificações enviadas com sucesso.",
		Task:    &resp,
	})
}

// Update godoc
// @Summary  Update a task
// @Tags     tasks
// @Accept   json
// @Produce  json
// @Param    id    path      string             true  "Task ID"
// @Param    task  body      UpdateTaskRequest  true  "Fields to change"
// @Success  200   {object}  TaskEnvelope
// @Failure  400   {object}  MessageResponse
// @Failure  404   {object}  MessageResponse
// @Security BearerAuth
// @Router   /api/task/update/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	patch := service.TaskPatch{
		Title:       req.Title,
		Stage:       req.Stage,
		Date:        req.Date,
		Priority:    req.Priority,
		Assets:      req.Assets,
		Links:       req.Links,
		Description: req.Description,
	}
	if req.Team != nil {
		team, err := parseIDs(*req.Team)
		if err != nil {
			respondBindError(c, err)
			return
		}
		patch.Team = &team
	}

	task, err := h.tasks.Update(c.Request.Context(), middleware.Actor(c), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := toTaskResponse(*task)
	c.JSON(http.StatusOK, TaskEnvelope{
		Status:  true,
		Message: "Tarefa atualizada e notificações enviadas com sucesso.",
		Task:    &resp,
	})
}

// ChangeStage godoc
// @Summary  Move a task to another stage
// @Tags     tasks
// @Accept   json
// @Produce  json
// @Param    id     path      string              true  "Task ID"
// @Param    stage  body      ChangeStageRequest  true  "Stage"
// @Success  200    {object}  MessageResponse
// @Security BearerAuth
// @Router   /api/task/change-stage/{id} [put]
func (h *TaskHandler) ChangeStage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req ChangeStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.tasks.ChangeStage(c.Request.Context(), id, req.Stage); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "A etapa da tarefa foi alterada com sucesso.")
}

// PostActivity godoc
// @Summary      Add an activity to a task
// @Description  Activities reporting a bug alert every administrator
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id        path      string           true  "Task ID"
// @Param        activity  body      ActivityRequest  true  "Activity"
// @Success      200       {object}  ActivityEnvelope
// @Failure      403       {object}  MessageResponse
// @Security     BearerAuth
// @Router       /api/task/activity/{id} [post]
func (h *TaskHandler) PostActivity(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	activity, err := h.tasks.PostActivity(c.Request.Context(), middleware.Actor(c), id, req.Type, req.Activity)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := toActivityResponse(*activity)
	c.JSON(http.StatusOK, ActivityEnvelope{
		Status:   true,
		Message:  "Atividade adicionada com sucesso.",
		Activity: &resp,
	})
}

// DeleteActivity godoc
// @Summary  Remove an activity
// @Tags     tasks
// @Produce  json
// @Param    taskId      path      string  true  "Task ID"
// @Param    activityId  path      string  true  "Activity ID"
// @Success  200         {object}  MessageResponse
// @Security BearerAuth
// @Router   /api/task/activity/{taskId}/{activityId} [delete]
func (h *TaskHandler) DeleteActivity(c *gin.Context) {
	taskID, ok := paramID(c, "taskId")
	if !ok {
		return
	}
	activityID, ok := paramID(c, "activityId")
	if !ok {
		return
	}

	if err := h.tasks.DeleteActivity(c.Request.Context(), taskID, activityID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Atividade removida com sucesso.")
}

// Dashboard godoc
// @Summary  Task statistics
// @Tags     tasks
// @Produce  json
// @Success  200  {object}  DashboardResponse
// @Security BearerAuth
// @Router   /api/task/dashboard [get]
func (h *TaskHandler) Dashboard(c *gin.Context) {
	d, err := h.queries.Dashboard(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDashboardResponse(d))
}

// List godoc
// @Summary  List tasks
// @Tags     tasks
// @Produce  json
// @Param    stage      query     string  false  "Stage"
// @Param    isTrashed  query     bool    false  "List the trash instead"
// @Param    search     query     string  false  "Search over title, stage and priority"
// @Success  200        {object}  TaskListEnvelope
// @Security BearerAuth
// @Router   /api/task [get]
func (h *TaskHandler) List(c *gin.Context) {
	trashed, _ := strconv.ParseBool(c.Query("isTrashed"))

	tasks, err := h.queries.List(c.Request.Context(), middleware.Actor(c), service.ListQuery{
		Stage:   c.Query("stage"),
		Trashed: trashed,
		Search:  c.Query("search"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, TaskListEnvelope{Status: true, Tasks: toTaskResponses(tasks)})
}

// Get godoc
// @Summary  Get a task
// @Tags     tasks
// @Produce  json
// @Param    id   path      string  true  "Task ID"
// @Success  200  {object}  TaskEnvelope
// @Failure  404  {object}  MessageResponse
// @Security BearerAuth
// @Router   /api/task/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	task, err := h.queries.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := toTaskResponse(*task)
	c.JSON(http.StatusOK, TaskEnvelope{Status: true, Task: &resp})
}

// Trash godoc
// @Summary  Move a task to the trash
// @Tags     tasks
// @Produce  json
// @Param    id   path      string  true  "Task ID"
// @Success  200  {object}  MessageResponse
// @Security BearerAuth
// @Router   /api/task/{id} [put]
func (h *TaskHandler) Trash(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.tasks.Trash(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Tarefa movida para a lixeira com sucesso.")
}

// DeleteRestore godoc
// @Summary      Empty or restore the trash
// @Description  actionType is one of delete, deleteAll, restore, restoreAll. delete and restore need the task id.
// @Tags         tasks
// @Produce      json
// @Param        id          path      string  false  "Task ID"
// @Param        actionType  query     string  true   "Action"
// @Success      200         {object}  MessageResponse
// @Failure      400         {object}  MessageResponse
// @Security     BearerAuth
// @Router       /api/task/delete-restore/{id} [delete]
func (h *TaskHandler) DeleteRestore(c *gin.Context) {
	ctx := c.Request.Context()
	action := c.Query("actionType")

	switch action {
	case "deleteAll":
		if _, err := h.tasks.DeleteAll(ctx); err != nil {
			respondError(c, err)
			return
		}
	case "restoreAll":
		if _, err := h.tasks.RestoreAll(ctx); err != nil {
			respondError(c, err)
			return
		}
	case "delete", "restore":
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var err error
		if action == "delete" {
			err = h.tasks.DeleteOne(ctx, id)
		} else {
			err = h.tasks.Restore(ctx, id)
		}
		if err != nil {
			respondError(c, err)
			return
		}
	default:
		c.JSON(http.StatusBadRequest, MessageResponse{Status: false, Message: msgInvalidAction})
		return
	}
	respondOK(c, "Operação realizada com sucesso.")
}

// CreateSubTask godoc
// @Summary  Add a subtask
// @Tags     subtasks
// @Accept   json
// @Produce  json
// @Param    id       path      string          true  "Task ID"
// @Param    subtask  body      SubTaskRequest  true  "Subtask"
// @Success  200      {object}  SubTaskEnvelope
// @Security BearerAuth
// @Router   /api/task/create-subtask/{id} [put]
func (h *TaskHandler) CreateSubTask(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req SubTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	subTask, err := h.tasks.CreateSubTask(c.Request.Context(), id, service.SubTaskInput{
		Title: req.Title,
		Tag:   req.Tag,
		Date:  req.Date,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	resp := toSubTaskResponse(*subTask)
	c.JSON(http.StatusOK, SubTaskEnvelope{Status: true, Message: "Subtarefa adicionada com sucesso.", SubTask: &resp})
}

// UpdateSubTask godoc
// @Summary  Edit a subtask
// @Tags     subtasks
// @Accept   json
// @Produce  json
// @Param    taskId     path      string                true  "Task ID"
// @Param    subTaskId  path      string                true  "Subtask ID"
// @Param    subtask    body      UpdateSubTaskRequest  true  "Fields to change"
// @Success  200        {object}  SubTaskEnvelope
// @Security BearerAuth
// @Router   /api/task/subtasks/{taskId}/{subTaskId} [patch]
func (h *TaskHandler) UpdateSubTask(c *gin.Context) {
	taskID, ok := paramID(c, "taskId")
	if !ok {
		return
	}
	subTaskID, ok := paramID(c, "subTaskId")
	if !ok {
		return
	}
	var req UpdateSubTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	subTask, err := h.tasks.UpdateSubTask(c.Request.Context(), taskID, subTaskID, service.SubTaskPatch{
		Title: req.Title,
		Tag:   req.Tag,
		Date:  req.Date,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	resp := toSubTaskResponse(*subTask)
	c.JSON(http.StatusOK, SubTaskEnvelope{Status: true, Message: "Subtarefa atualizada com sucesso.", SubTask: &resp})
}

// SetSubTaskStatus godoc
// @Summary  Mark a subtask completed or not
// @Tags     subtasks
// @Accept   json
// @Produce  json
// @Param    taskId     path      string                true  "Task ID"
// @Param    subTaskId  path      string                true  "Subtask ID"
// @Param    status     body      SubTaskStatusRequest  true  "Status"
// @Success  200        {object}  MessageResponse
// @Security BearerAuth
// @Router   /api/task/change-status/{taskId}/{subTaskId} [put]
func (h *TaskHandler) SetSubTaskStatus(c *gin.Context) {
	taskID, ok := paramID(c, "taskId")
	if !ok {
		return
	}
	subTaskID, ok := paramID(c, "subTaskId")
	if !ok {
		return
	}
	var req SubTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.tasks.SetSubTaskStatus(c.Request.Context(), taskID, subTaskID, *req.Status); err != nil {
		respondError(c, err)
		return
	}
	if *req.Status {
		respondOK(c, "A tarefa foi marcada como concluída.")
		return
	}
	respondOK(c, "A tarefa foi marcada como não concluída.")
}

// DeleteSubTask godoc
// @Summary  Remove a subtask
// @Tags     subtasks
// @Produce  json
// @Param    taskId     path      string  true  "Task ID"
// @Param    subTaskId  path      string  true  "Subtask ID"
// @Success  200        {object}  MessageResponse
// @Failure  404        {object}  MessageResponse
// @Security BearerAuth
// @Router   /api/task/{taskId}/subtasks/{subTaskId} [delete]
func (h *TaskHandler) DeleteSubTask(c *gin.Context) {
	taskID, ok := paramID(c, "taskId")
	if !ok {
		return
	}
	subTaskID, ok := paramID(c, "subTaskId")
	if !ok {
		return
	}

	if err := h.tasks.DeleteSubTask(c.Request.Context(), taskID, subTaskID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Subtarefa excluída com sucesso.")
}
