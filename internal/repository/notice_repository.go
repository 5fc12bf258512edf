package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"flowfix/internal/model"
)

type NoticeRepository struct {
	db *gorm.DB
}

func NewNoticeRepository(db *gorm.DB) *NoticeRepository {
	return &NoticeRepository{db: db}
}

// Create stores a notice and links its recipients. Recipients must exist.
func (r *NoticeRepository) Create(ctx context.Context, notice *model.Notice) error {
	return r.db.WithContext(ctx).Omit("Task", "Team.*", "ReadBy.*").Create(notice).Error
}

// ListUnread returns the notices addressed to userID that userID has not read,
// newest first, with the task title resolved
func (r *NoticeRepository) ListUnread(ctx context.Context, userID uuid.UUID) ([]model.Notice, error) {
	var notices []model.Notice
	err := r.db.WithContext(ctx).
		Where("EXISTS (SELECT 1 FROM notice_team WHERE notice_team.notice_id = notices.id AND notice_team.user_id = ?)", userID).
		Where("NOT EXISTS (SELECT 1 FROM notice_reads WHERE notice_reads.notice_id = notices.id AND notice_reads.user_id = ?)", userID).
		Preload("Task", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title")
		}).
		Order("created_at DESC, id DESC").
		Find(&notices).Error
	return notices, err
}

// MarkRead marks one notice as read by userID
func (r *NoticeRepository) MarkRead(ctx context.Context, userID, noticeID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO notice_reads (notice_id, user_id)
		 SELECT notice_id, user_id FROM notice_team WHERE notice_id = ? AND user_id = ?
		 ON CONFLICT DO NOTHING`,
		noticeID, userID,
	).Error
}

// MarkAllRead marks every notice addressed to userID as read
func (r *NoticeRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO notice_reads (notice_id, user_id)
		 SELECT notice_id, user_id FROM notice_team WHERE user_id = ?
		 ON CONFLICT DO NOTHING`,
		userID,
	).Error
}
