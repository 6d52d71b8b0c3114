package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"unisphere/internal/models"
)

const notificationListLimit = 50

type NotificationStore struct {
	db *gorm.DB
}

func NewNotificationStore(db *gorm.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func (s *NotificationStore) Create(ctx context.Context, n *models.Notification) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(n).Error, "create notification")
}

// ListByUser returns the newest notifications of userID.
func (s *NotificationStore) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	var out []models.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(notificationListLimit).
		Find(&out).Error
	return out, errors.Wrap(err, "list notifications")
}

func (s *NotificationStore) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, errors.Wrap(err, "count unread notifications")
}

func (s *NotificationStore) Update(ctx context.Context, id, userID string, updates map[string]interface{}) (*models.Notification, error) {
	return updateOwned[models.Notification](ctx, s.db, "notification", id, userID, updates)
}

// MarkAllRead marks every unread notification of userID and reports how many changed.
func (s *NotificationStore) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, errors.Wrap(res.Error, "mark notifications read")
}

func (s *NotificationStore) Delete(ctx context.Context, id, userID string) error {
	return deleteOwned[models.Notification](ctx, s.db, "notification", id, userID)
}
