package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"unisphere/internal/models"
)

type ChatStore struct {
	db *gorm.DB
}

func NewChatStore(db *gorm.DB) *ChatStore {
	return &ChatStore{db: db}
}

func (s *ChatStore) Create(ctx context.Context, m *models.ChatMessage) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(m).Error, "save chat message")
}

// Recent returns the last limit messages of userID, oldest first.
func (s *ChatStore) Recent(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error) {
	var out []models.ChatMessage
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, errors.Wrap(err, "load chat history")
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Clear deletes the whole conversation of userID.
func (s *ChatStore) Clear(ctx context.Context, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.ChatMessage{})
	return res.RowsAffected, errors.Wrap(res.Error, "clear chat history")
}
