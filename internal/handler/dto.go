package handler

import (
	"time"

	"flowfix/internal/model"
	"flowfix/internal/service"
)

// UserResponse is the public view of an account. The password hash is
// never serialized.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	Role      string    `json:"role"`
	Email     string    `json:"email,omitempty"`
	IsAdmin   bool      `json:"isAdmin"`
	IsActive  bool      `json:"isActive"`
	Tasks     []string  `json:"tasks,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserRef is the author of an activity.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SubTaskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Date        *time.Time `json:"date,omitempty"`
	Tag         string     `json:"tag"`
	IsCompleted bool       `json:"isCompleted"`
}

type ActivityResponse struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Activity string    `json:"activity"`
	Date     time.Time `json:"date"`
	By       *UserRef  `json:"by,omitempty"`
}

type TaskResponse struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Date        time.Time          `json:"date"`
	Priority    string             `json:"priority"`
	Stage       string             `json:"stage"`
	Assets      []string           `json:"assets"`
	Links       []string           `json:"links"`
	IsTrashed   bool               `json:"isTrashed"`
	Team        []UserResponse     `json:"team"`
	SubTasks    []SubTaskResponse  `json:"subTasks"`
	Activities  []ActivityResponse `json:"activities"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// TaskRef names the task a notice is about.
type TaskRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type NoticeResponse struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	NotiType  string    `json:"notiType"`
	Task      *TaskRef  `json:"task,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type PriorityCountResponse struct {
	Name  string `json:"name"`
	Total int    `json:"total"`
}

type TaskEnvelope struct {
	Status  bool          `json:"status"`
	Message string        `json:"message,omitempty"`
	Task    *TaskResponse `json:"task"`
}

type TaskListEnvelope struct {
	Status bool           `json:"status"`
	Tasks  []TaskResponse `json:"tasks"`
}

type SubTaskEnvelope struct {
	Status  bool             `json:"status"`
	Message string           `json:"message"`
	SubTask *SubTaskResponse `json:"subTask"`
}

type ActivityEnvelope struct {
	Status   bool              `json:"status"`
	Message  string            `json:"message"`
	Activity *ActivityResponse `json:"activity"`
}

type DashboardResponse struct {
	Status     bool                    `json:"status"`
	Message    string                  `json:"message"`
	TotalTasks int                     `json:"totalTasks"`
	Last10Task []TaskResponse          `json:"last10Task"`
	Users      []UserResponse          `json:"users"`
	Tasks      map[string]int          `json:"tasks"`
	GraphData  []PriorityCountResponse `json:"graphData"`
}

// AuthResponse is returned by login.
type AuthResponse struct {
	Status bool         `json:"status"`
	Token  string       `json:"token"`
	User   UserResponse `json:"user"`
}

type UserEnvelope struct {
	Status  bool         `json:"status"`
	Message string       `json:"message,omitempty"`
	User    UserResponse `json:"user"`
}

type UserListEnvelope struct {
	Status bool           `json:"status"`
	Users  []UserResponse `json:"users"`
}

type NoticeListEnvelope struct {
	Status  bool             `json:"status"`
	Notices []NoticeResponse `json:"notices"`
}

func toUserResponse(u model.User) UserResponse {
	resp := UserResponse{
		ID:        u.ID.String(),
		Name:      u.Name,
		Title:     u.Title,
		Role:      u.Role,
		Email:     u.Email,
		IsAdmin:   u.IsAdmin,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
	for _, id := range u.TaskIDs {
		resp.Tasks = append(resp.Tasks, id.String())
	}
	return resp
}

func toUserResponses(users []model.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

func toSubTaskResponse(st model.SubTask) SubTaskResponse {
	return SubTaskResponse{
		ID:          st.ID.String(),
		Title:       st.Title,
		Date:        st.Date,
		Tag:         st.Tag,
		IsCompleted: st.IsCompleted,
	}
}

func toActivityResponse(a model.Activity) ActivityResponse {
	resp := ActivityResponse{
		ID:       a.ID.String(),
		Type:     a.Type,
		Activity: a.Text,
		Date:     a.CreatedAt,
	}
	switch {
	case a.By != nil:
		resp.By = &UserRef{ID: a.By.ID.String(), Name: a.By.Name}
	case a.ByID != nil:
		resp.By = &UserRef{ID: a.ByID.String()}
	}
	return resp
}

func toTaskResponse(t model.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		Date:        t.Date,
		Priority:    t.Priority,
		Stage:       t.Stage,
		Assets:      append([]string{}, t.Assets...),
		Links:       append([]string{}, t.Links...),
		IsTrashed:   t.IsTrashed,
		Team:        toUserResponses(t.Team),
		SubTasks:    make([]SubTaskResponse, 0, len(t.SubTasks)),
		Activities:  make([]ActivityResponse, 0, len(t.Activities)),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	for _, st := range t.SubTasks {
		resp.SubTasks = append(resp.SubTasks, toSubTaskResponse(st))
	}
	for _, a := range t.Activities {
		resp.Activities = append(resp.Activities, toActivityResponse(a))
	}
	return resp
}

func toTaskResponses(tasks []model.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t))
	}
	return out
}

func toNoticeResponse(n model.Notice) NoticeResponse {
	resp := NoticeResponse{
		ID:        n.ID.String(),
		Text:      n.Text,
		NotiType:  n.NotiType,
		CreatedAt: n.CreatedAt,
	}
	if n.Task != nil {
		resp.Task = &TaskRef{ID: n.Task.ID.String(), Title: n.Task.Title}
	}
	return resp
}

func toDashboardResponse(d *service.Dashboard) DashboardResponse {
	resp := DashboardResponse{
		Status:     true,
		Message:    "Successfully.",
		TotalTasks: d.TotalTasks,
		Last10Task: toTaskResponses(d.Last10Task),
		Users:      toUserResponses(d.Users),
		Tasks:      d.Tasks,
		GraphData:  make([]PriorityCountResponse, 0, len(d.GraphData)),
	}
	for _, p := range d.GraphData {
		resp.GraphData = append(resp.GraphData, PriorityCountResponse{Name: p.Name, Total: p.Total})
	}
	return resp
}
