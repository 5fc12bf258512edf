package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"flowfix/internal/model"
	"flowfix/internal/sanitize"
)

const minPasswordLength = 6

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	GenerateToken(userID uuid.UUID, isAdmin bool) (string, error)
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Title    string
	Role     string
	IsAdmin  bool
}

// ProfilePatch updates the set fields of a profile. UserID selects another
// account and is honoured for administrators only.
type ProfilePatch struct {
	UserID *uuid.UUID
	Name   *string
	Title  *string
	Role   *string
	Email  *string
}

// UserService covers authentication, account administration and the
// notification inbox.
type UserService struct {
	repos  Repositories
	tokens TokenIssuer
	reset  PasswordReset
	log    *logrus.Logger
	now    func() time.Time
}

func NewUserService(repos Repositories, tokens TokenIssuer, reset PasswordReset, log *logrus.Logger) *UserService {
	if reset.TTL <= 0 {
		reset.TTL = defaultResetTTL
	}
	return &UserService{repos: repos, tokens: tokens, reset: reset, log: log, now: time.Now}
}

// Login checks the credentials and returns the user with a fresh token.
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.repos.Users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, "", failure(s.log, "login", err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		return nil, "", &Error{Kind: ErrUnauthenticated, Message: msgInvalidCredentials}
	}
	if !user.IsActive {
		return nil, "", forbidden(msgAccountDisabled)
	}

	token, err := s.tokens.GenerateToken(user.ID, user.IsAdmin)
	if err != nil {
		return nil, "", failure(s.log, "login", err)
	}
	if err := s.attachTasks(ctx, "login", user); err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Register creates an active account.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	name := sanitize.Text(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" {
		return nil, validationError("Nome e email são obrigatórios.")
	}
	if len(in.Password) < minPasswordLength {
		return nil, validationError(msgPasswordTooShort)
	}

	existing, err := s.repos.Users.FindByEmail(ctx, email)
	if err != nil {
		return nil, failure(s.log, "register", err)
	}
	if existing != nil {
		return nil, &Error{Kind: ErrConflict, Message: msgEmailTaken}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, failure(s.log, "register", err)
	}

	user := &model.User{
		Name:           name,
		Email:          email,
		Title:          sanitize.Text(in.Title),
		Role:           sanitize.Text(in.Role),
		HashedPassword: string(hash),
		IsAdmin:        in.IsAdmin,
		IsActive:       true,
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return nil, failure(s.log, "register", err)
	}

	s.log.WithFields(logrus.Fields{"operation": "register", "user_id": user.ID}).Info("user registered")
	return user, nil
}

// TeamList returns every account, optionally filtered by search.
func (s *UserService) TeamList(ctx context.Context, search string) ([]model.User, error) {
	users, err := s.repos.Users.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, failure(s.log, "team list", err)
	}
	return users, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, actor Actor, patch ProfilePatch) (*model.User, error) {
	target := actor.ID
	if actor.IsAdmin && patch.UserID != nil {
		target = *patch.UserID
	}

	user, err := s.load(ctx, "update profile", target)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if name := sanitize.Text(*patch.Name); name != "" {
			user.Name = name
		}
	}
	if patch.Title != nil {
		user.Title = sanitize.Text(*patch.Title)
	}
	if patch.Role != nil && actor.IsAdmin {
		user.Role = sanitize.Text(*patch.Role)
	}
	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		if email != "" && email != user.Email {
			other, err := s.repos.Users.FindByEmail(ctx, email)
			if err != nil {
				return nil, failure(s.log, "update profile", err)
			}
			if other != nil {
				return nil, &Error{Kind: ErrConflict, Message: msgEmailTaken}
			}
			user.Email = email
		}
	}

	if err := s.repos.Users.Update(ctx, user); err != nil {
		return nil, failure(s.log, "update profile", err)
	}
	if err := s.attachTasks(ctx, "update profile", user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password of actor.
func (s *UserService) ChangePassword(ctx context.Context, actor Actor, password string) error {
	if len(password) < minPasswordLength {
		return validationError(msgPasswordTooShort)
	}
	user, err := s.load(ctx, "change password", actor.ID)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return failure(s.log, "change password", err)
	}
	user.HashedPassword = string(hash)
	if err := s.repos.Users.Update(ctx, user); err != nil {
		return failure(s.log, "change password", err)
	}
	return nil
}

// SetActive enables or disables an account. Disabled accounts can not log in
// and receive no notices.
func (s *UserService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.User, error) {
	user, err := s.load(ctx, "set active", id)
	if err != nil {
		return nil, err
	}
	user.IsActive = active
	if err := s.repos.Users.Update(ctx, user); err != nil {
		return nil, failure(s.log, "set active", err)
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if actor.ID == id {
		return validationError(msgSelfDelete)
	}
	if err := s.repos.Users.Delete(ctx, id); err != nil {
		return failure(s.log, "delete user", err)
	}
	return nil
}

// Notifications returns the unread notices of actor, newest first.
func (s *UserService) Notifications(ctx context.Context, actor Actor) ([]model.Notice, error) {
	notices, err := s.repos.Notices.ListUnread(ctx, actor.ID)
	if err != nil {
		return nil, failure(s.log, "notifications", err)
	}
	return notices, nil
}

// MarkRead marks one notice, or with all set every notice, as read by actor.
func (s *UserService) MarkRead(ctx context.Context, actor Actor, all bool, noticeID uuid.UUID) error {
	var err error
	switch {
	case all:
		err = s.repos.Notices.MarkAllRead(ctx, actor.ID)
	case noticeID != uuid.Nil:
		err = s.repos.Notices.MarkRead(ctx, actor.ID, noticeID)
	default:
		return validationError("Informe a notificação a ser marcada como lida.")
	}
	if err != nil {
		return failure(s.log, "mark read", err)
	}
	return nil
}

// EnsureAdmin creates the bootstrap administrator when no user exists yet.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password, name string) error {
	if email == "" || password == "" {
		return nil
	}
	n, err := s.repos.Users.Count(ctx)
	if err != nil {
		return failure(s.log, "ensure admin", err)
	}
	if n > 0 {
		return nil
	}

	_, err = s.Register(ctx, RegisterInput{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     "admin",
		IsAdmin:  true,
	})
	if errors.Is(err, ErrConflict) {
		return nil
	}
	if err != nil {
		return err
	}
	s.log.WithField("email", normalizeEmail(email)).Info("bootstrap admin created")
	return nil
}

func (s *UserService) load(ctx context.Context, op string, id uuid.UUID) (*model.User, error) {
	user, err := s.repos.Users.GetByID(ctx, id)
	if err != nil {
		return nil, failure(s.log, op, err)
	}
	if user == nil {
		return nil, notFound(msgUserNotFound)
	}
	return user, nil
}

// attachTasks loads the ids of the tasks user has been assigned to.
func (s *UserService) attachTasks(ctx context.Context, op string, user *model.User) error {
	ids, err := s.repos.Users.TaskRefs(ctx, user.ID)
	if err != nil {
		return failure(s.log, op, err)
	}
	user.TaskIDs = ids
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
