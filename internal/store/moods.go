package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"unisphere/internal/models"
)

type MoodStore struct {
	db *gorm.DB
}

func NewMoodStore(db *gorm.DB) *MoodStore {
	return &MoodStore{db: db}
}

func (s *MoodStore) Create(ctx context.Context, m *models.MoodEntry) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(m).Error, "create mood entry")
}

// ListByUser returns userID's entries, most recently recorded first.
func (s *MoodStore) ListByUser(ctx context.Context, userID string) ([]models.MoodEntry, error) {
	var out []models.MoodEntry
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("recorded_at DESC").Find(&out).Error
	return out, errors.Wrap(err, "list mood entries")
}

func (s *MoodStore) Update(ctx context.Context, id, userID string, updates map[string]interface{}) (*models.MoodEntry, error) {
	return updateOwned[models.MoodEntry](ctx, s.db, "mood entry", id, userID, updates)
}

func (s *MoodStore) Delete(ctx context.Context, id, userID string) error {
	return deleteOwned[models.MoodEntry](ctx, s.db, "mood entry", id, userID)
}
