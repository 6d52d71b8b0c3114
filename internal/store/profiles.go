package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"unisphere/internal/comments"
	"unisphere/internal/models"
)

var ErrNotFound = errors.New("record not found")

type ProfileStore struct {
	db *gorm.DB
}

func NewProfileStore(db *gorm.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// GetProfile returns (nil, nil) when the user has no profile.
func (s *ProfileStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get profile %s", userID)
	}
	return &p, nil
}

func (s *ProfileStore) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	var p models.Profile
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get profile by username %s", username)
	}
	return &p, nil
}

// Exists reports whether username or email is already taken.
func (s *ProfileStore) Exists(ctx context.Context, username, email string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Profile{}).
		Where("username = ? OR email = ?", username, email).
		Count(&n).Error
	if err != nil {
		return false, errors.Wrap(err, "check profile exists")
	}
	return n > 0, nil
}

func (s *ProfileStore) Create(ctx context.Context, p *models.Profile) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(p).Error, "create profile")
}

// Authors resolves a batch of user ids to their public author data.
func (s *ProfileStore) Authors(ctx context.Context, userIDs []string) (map[string]*models.Author, error) {
	out := make(map[string]*models.Author, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var profiles []models.Profile
	if err := s.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&profiles).Error; err != nil {
		return nil, errors.Wrap(err, "load authors")
	}
	for i := range profiles {
		out[profiles[i].ID] = profiles[i].Author()
	}
	return out, nil
}

var _ comments.ProfileLookup = (*ProfileStore)(nil)
