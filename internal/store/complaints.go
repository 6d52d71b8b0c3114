package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"unisphere/internal/models"
)

// ComplaintFilter narrows the admin listing. Empty fields match everything.
type ComplaintFilter struct {
	Status   string
	Category string
	Priority string
	// SortBy is "created_at" (default) or "priority".
	SortBy string
}

type ComplaintStore struct {
	db *gorm.DB
}

func NewComplaintStore(db *gorm.DB) *ComplaintStore {
	return &ComplaintStore{db: db}
}

func (s *ComplaintStore) Create(ctx context.Context, c *models.Complaint) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(c).Error, "create complaint")
}

func (s *ComplaintStore) ListByUser(ctx context.Context, userID string) ([]models.Complaint, error) {
	var out []models.Complaint
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error
	return out, errors.Wrap(err, "list complaints of user")
}

func (s *ComplaintStore) List(ctx context.Context, f ComplaintFilter) ([]models.Complaint, error) {
	q := s.db.WithContext(ctx).Model(&models.Complaint{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.SortBy == "priority" {
		q = q.Order("CASE priority WHEN 'urgent' THEN 3 WHEN 'high' THEN 2 WHEN 'medium' THEN 1 ELSE 0 END DESC").
			Order("created_at DESC")
	} else {
		q = q.Order("created_at DESC")
	}

	var out []models.Complaint
	if err := q.Find(&out).Error; err != nil {
		return nil, errors.Wrap(err, "list complaints")
	}
	return out, nil
}

// Update applies status and admin_response and returns the fresh row.
func (s *ComplaintStore) Update(ctx context.Context, id string, updates map[string]interface{}) (*models.Complaint, error) {
	res := s.db.WithContext(ctx).Model(&models.Complaint{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, errors.Wrapf(res.Error, "update complaint %s", id)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	var c models.Complaint
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, errors.Wrapf(err, "reload complaint %s", id)
	}
	return &c, nil
}

func (s *ComplaintStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Complaint{})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete complaint %s", id)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
