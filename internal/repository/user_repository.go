package repository

import (
	"context"
	"errors"
	"time"

	"flowfix/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDs loads every user whose id is in ids. Missing ids are simply absent
// from the result.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []model.User
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// ListAdmins returns every active user holding the admin flag
func (r *UserRepository) ListAdmins(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("is_admin = ? AND is_active = ?", true, true).
		Order("created_at").
		Find(&users).Error
	return users, err
}

// ListRecentActive returns the most recently created active users
func (r *UserRepository) ListRecentActive(ctx context.Context, limit int) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

// List returns all users, optionally filtered by a case-insensitive search
// over name, title, role and email
func (r *UserRepository) List(ctx context.Context, search string) ([]model.User, error) {
	q := r.db.WithContext(ctx).Model(&model.User{})
	if search != "" {
		pattern := "%" + escapeLike(search) + "%"
		q = q.Where("(name ILIKE ? OR title ILIKE ? OR role ILIKE ? OR email ILIKE ?)", pattern, pattern, pattern, pattern)
	}
	var users []model.User
	err := q.Order("name").Find(&users).Error
	return users, err
}

// Update writes the editable profile fields, flags and password hash
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"name":            user.Name,
			"title":           user.Title,
			"role":            user.Role,
			"email":           user.Email,
			"is_admin":        user.IsAdmin,
			"is_active":       user.IsActive,
			"hashed_password": user.HashedPassword,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.User{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error
	return n, err
}

// AddTaskRef records taskID in the user's task back-references
func (r *UserRepository) AddTaskRef(ctx context.Context, userID, taskID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(
		"INSERT INTO user_tasks (user_id, task_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		userID, taskID,
	).Error
}

// TaskRefs returns the task ids referenced by a user
func (r *UserRepository) TaskRefs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Table("user_tasks").
		Where("user_id = ?", userID).
		Pluck("task_id", &ids).Error
	return ids, err
}

// SetResetToken stores the hash of a pending password reset token
func (r *UserRepository) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"reset_token_hash": tokenHash,
			"reset_expires_at": expiresAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// FindByResetToken returns the user holding tokenHash, or nil when none does
func (r *UserRepository) FindByResetToken(ctx context.Context, tokenHash string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("reset_token_hash = ?", tokenHash).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CompleteReset sets a new password hash and clears the pending reset token
func (r *UserRepository) CompleteReset(ctx context.Context, id uuid.UUID, hashedPassword string) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"hashed_password":  hashedPassword,
			"reset_token_hash": "",
			"reset_expires_at": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
