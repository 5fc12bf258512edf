package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"flowfix/internal/middleware"
	"flowfix/internal/model"
	"flowfix/internal/service"
)

// UserManager is the account side used by UserHandler.
type UserManager interface {
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Register(ctx context.Context, in service.RegisterInput) (*model.User, error)
	TeamList(ctx context.Context, search string) ([]model.User, error)
	UpdateProfile(ctx context.Context, actor service.Actor, patch service.ProfilePatch) (*model.User, error)
	ChangePassword(ctx context.Context, actor service.Actor, password string) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.User, error)
	Delete(ctx context.Context, actor service.Actor, id uuid.UUID) error
	Notifications(ctx context.Context, actor service.Actor) ([]model.Notice, error)
	MarkRead(ctx context.Context, actor service.Actor, all bool, noticeID uuid.UUID) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
}

type UserHandler struct {
	users UserManager
}

func NewUserHandler(users UserManager) *UserHandler {
	return &UserHandler{users: users}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Title    string `json:"title"`
	Role     string `json:"role"`
	IsAdmin  bool   `json:"isAdmin"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ProfileRequest changes the set fields of a profile. ID is honoured for
// administrators only.
type ProfileRequest struct {
	ID    string  `json:"id" binding:"omitempty,uuid"`
	Name  *string `json:"name"`
	Title *string `json:"title"`
	Role  *string `json:"role"`
	Email *string `json:"email" binding:"omitempty,email"`
}

type ChangePasswordRequest struct {
	Password string `json:"password" binding:"required,min=6"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// Login godoc
// @Summary  Authenticate and receive a bearer token
// @Tags     users
// @Accept   json
// @Produce  json
// @Param    credentials  body      LoginRequest  true  "Credentials"
// @Success  200          {object}  AuthResponse
// @Failure  401          {object}  MessageResponse
// @Router   /api/user/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, token, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, AuthResponse{Status: true, Token: token, User: toUserResponse(*user)})
}

// Logout only acknowledges; tokens are stateless and expire on their own.
func (h *UserHandler) Logout(c *gin.Context) {
	respondOK(c, "Logout realizado com sucesso.")
}

// Register godoc
// @Summary  Create an account
// @Tags     users
// @Accept   json
// @Produce  json
// @Param    user  body      RegisterRequest  true  "Account"
// @Success  201   {object}  UserEnvelope
// @Failure  409   {object}  MessageResponse
// @Security BearerAuth
// @Router   /api/user/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Title:    req.Title,
		Role:     req.Role,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, UserEnvelope{Status: true, Message: "Usuário criado com sucesso.", User: toUserResponse(*user)})
}

func (h *UserHandler) TeamList(c *gin.Context) {
	users, err := h.users.TeamList(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, UserListEnvelope{Status: true, Users: toUserResponses(users)})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	patch := service.ProfilePatch{Name: req.Name, Title: req.Title, Role: req.Role, Email: req.Email}
	if req.ID != "" {
		id := uuid.MustParse(req.ID)
		patch.UserID = &id
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), middleware.Actor(c), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, UserEnvelope{Status: true, Message: "Perfil atualizado com sucesso.", User: toUserResponse(*user)})
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.users.ChangePassword(c.Request.Context(), middleware.Actor(c), req.Password); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Senha alterada com sucesso.")
}

// SetActive enables or disables an account.
func (h *UserHandler) SetActive(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.users.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	message := "Conta desativada com sucesso."
	if user.IsActive {
		message = "Conta ativada com sucesso."
	}
	c.JSON(http.StatusOK, UserEnvelope{Status: true, Message: message, User: toUserResponse(*user)})
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), middleware.Actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Usuário excluído com sucesso.")
}

// Notifications lists the unread notices of the caller.
func (h *UserHandler) Notifications(c *gin.Context) {
	notices, err := h.users.Notifications(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]NoticeResponse, 0, len(notices))
	for _, n := range notices {
		out = append(out, toNoticeResponse(n))
	}
	c.JSON(http.StatusOK, NoticeListEnvelope{Status: true, Notices: out})
}

// MarkRead handles ?isReadType=all or ?id=<notice>.
func (h *UserHandler) MarkRead(c *gin.Context) {
	all := c.Query("isReadType") == "all"
	var noticeID uuid.UUID
	if !all {
		id, err := uuid.Parse(c.Query("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, MessageResponse{Status: false, Message: "Identificador inválido."})
			return
		}
		noticeID = id
	}

	if err := h.users.MarkRead(c.Request.Context(), middleware.Actor(c), all, noticeID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Notificações marcadas como lidas.")
}

// ForgotPassword godoc
// @Summary  Email a password reset link
// @Tags     users
// @Accept   json
// @Produce  json
// @Param    request  body      ForgotPasswordRequest  true  "Account email"
// @Success  200      {object}  MessageResponse
// @Failure  502      {object}  MessageResponse
// @Router   /api/user/forgot-password [post]
func (h *UserHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.users.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, msgResetSent)
}

// ResetPassword godoc
// @Summary  Set a new password with an emailed reset token
// @Tags     users
// @Accept   json
// @Produce  json
// @Param    token    path      string                true  "Reset token"
// @Param    request  body      ResetPasswordRequest  true  "New password"
// @Success  200      {object}  MessageResponse
// @Failure  400      {object}  MessageResponse
// @Router   /api/user/reset-password/{token} [put]
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.users.ResetPassword(c.Request.Context(), c.Param("token"), req.Password); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, msgResetDone)
}
