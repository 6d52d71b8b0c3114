package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"unisphere/internal/models"
)

type SentimentReportStore struct {
	db *gorm.DB
}

func NewSentimentReportStore(db *gorm.DB) *SentimentReportStore {
	return &SentimentReportStore{db: db}
}

func (s *SentimentReportStore) Create(ctx context.Context, r *models.SentimentReport) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(r).Error, "create sentiment report")
}

// ListByUser returns userID's reports, newest date first.
func (s *SentimentReportStore) ListByUser(ctx context.Context, userID string) ([]models.SentimentReport, error) {
	var out []models.SentimentReport
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("date DESC").Order("created_at DESC").Find(&out).Error
	return out, errors.Wrap(err, "list sentiment reports")
}

func (s *SentimentReportStore) Update(ctx context.Context, id, userID string, updates map[string]interface{}) (*models.SentimentReport, error) {
	return updateOwned[models.SentimentReport](ctx, s.db, "sentiment report", id, userID, updates)
}

func (s *SentimentReportStore) Delete(ctx context.Context, id, userID string) error {
	return deleteOwned[models.SentimentReport](ctx, s.db, "sentiment report", id, userID)
}
