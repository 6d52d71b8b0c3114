package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"unisphere/internal/models"
)

const (
	SortNewest = "newest"
	SortHot    = "hot"
)

type PostStore struct {
	db *gorm.DB
}

func NewPostStore(db *gorm.DB) *PostStore {
	return &PostStore{db: db}
}

func (s *PostStore) Create(ctx context.Context, p *models.Post) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(p).Error, "create post")
}

func (s *PostStore) List(ctx context.Context, sort, category string, limit, offset int) ([]models.Post, error) {
	q := s.db.WithContext(ctx).Model(&models.Post{})
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if sort == SortHot {
		q = q.Order("score DESC").Order("created_at DESC")
	} else {
		q = q.Order("created_at DESC")
	}

	var posts []models.Post
	if err := q.Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		return nil, errors.Wrap(err, "list posts")
	}
	return posts, nil
}

func (s *PostStore) Get(ctx context.Context, id string) (*models.Post, error) {
	var p models.Post
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get post %s", id)
	}
	return &p, nil
}

// Update applies title/content/category/sentiment changes and returns the fresh row.
func (s *PostStore) Update(ctx context.Context, id string, updates map[string]interface{}) (*models.Post, error) {
	res := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, errors.Wrapf(res.Error, "update post %s", id)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

// AddReaction increments one reaction counter inside the jsonb column, so
// concurrent reactions are not lost.
func (s *PostStore) AddReaction(ctx context.Context, id, kind string) (models.Reactions, error) {
	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("reactions", gorm.Expr(
			"jsonb_set(COALESCE(reactions, '{}'::jsonb), ARRAY[?]::text[], to_jsonb(COALESCE((reactions->>?)::int, 0) + 1))",
			kind, kind))
	if res.Error != nil {
		return nil, errors.Wrapf(res.Error, "add reaction to post %s", id)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	var p models.Post
	if err := s.db.WithContext(ctx).Select("reactions").Where("id = ?", id).First(&p).Error; err != nil {
		return nil, errors.Wrapf(err, "reload reactions of post %s", id)
	}
	if p.Reactions == nil {
		p.Reactions = models.Reactions{}
	}
	return p.Reactions, nil
}

// IncrementViews bumps the view counter without touching updated_at.
func (s *PostStore) IncrementViews(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
	return errors.Wrapf(err, "increment views of post %s", id)
}

// SetStats stores the recomputed comment count and hot score.
func (s *PostStore) SetStats(ctx context.Context, id string, commentCount int64, score float64) error {
	err := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{"comment_count": commentCount, "score": score}).Error
	return errors.Wrapf(err, "update stats of post %s", id)
}

// Delete removes the post and its comments in one transaction.
func (s *PostStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return errors.Wrap(err, "delete comments of post")
		}
		res := tx.Where("id = ?", id).Delete(&models.Post{})
		if res.Error != nil {
			return errors.Wrap(res.Error, "delete post")
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// RecentSentiments returns the sentiment tags of the newest limit posts,
// oldest first.
func (s *PostStore) RecentSentiments(ctx context.Context, limit int) ([]string, error) {
	var tags []string
	err := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("sentiment <> ?", "").
		Order("created_at DESC").
		Limit(limit).
		Pluck("sentiment", &tags).Error
	if err != nil {
		return nil, errors.Wrap(err, "load recent sentiments")
	}
	for i, j := 0, len(tags)-1; i < j; i, j = i+1, j-1 {
		tags[i], tags[j] = tags[j], tags[i]
	}
	return tags, nil
}
