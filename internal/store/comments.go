// Package store implements the row stores on top of gorm.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"unisphere/internal/comments"
	"unisphere/internal/feed"
	"unisphere/internal/models"
)

// CommentStore is the forum_comments table. Every successful write is
// announced on the publisher, if one is set.
type CommentStore struct {
	db  *gorm.DB
	pub feed.Publisher
	log logrus.FieldLogger
}

func NewCommentStore(db *gorm.DB, pub feed.Publisher, log logrus.FieldLogger) *CommentStore {
	return &CommentStore{db: db, pub: pub, log: log}
}

func (s *CommentStore) SelectComments(ctx context.Context, postID string) ([]models.Comment, error) {
	var rows []models.Comment
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrapf(err, "select comments of post %s", postID)
	}
	return rows, nil
}

func (s *CommentStore) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, comments.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get comment %s", id)
	}
	return &c, nil
}

func (s *CommentStore) InsertComment(ctx context.Context, c *models.Comment) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return errors.Wrap(err, "insert comment")
	}
	s.publish(ctx, feed.Insert, c.PostID, c.ID)
	return nil
}

func (s *CommentStore) UpdateComment(ctx context.Context, id string, patch comments.CommentPatch) (*models.Comment, error) {
	updates := map[string]interface{}{}
	if patch.Content != nil {
		updates["content"] = *patch.Content
	}
	if patch.Likes != nil {
		updates["likes"] = *patch.Likes
	}
	return s.update(ctx, id, updates)
}

func (s *CommentStore) IncrementLikes(ctx context.Context, id string) (*models.Comment, error) {
	return s.update(ctx, id, map[string]interface{}{"likes": gorm.Expr("likes + ?", 1)})
}

func (s *CommentStore) update(ctx context.Context, id string, updates map[string]interface{}) (*models.Comment, error) {
	updates["updated_at"] = time.Now()
	res := s.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, errors.Wrapf(res.Error, "update comment %s", id)
	}
	if res.RowsAffected == 0 {
		return nil, comments.ErrNotFound
	}

	c, err := s.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, feed.Update, c.PostID, c.ID)
	return c, nil
}

func (s *CommentStore) DeleteComment(ctx context.Context, id string) error {
	c, err := s.GetComment(ctx, id)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Comment{})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete comment %s", id)
	}
	if res.RowsAffected == 0 {
		return comments.ErrNotFound
	}
	s.publish(ctx, feed.Delete, c.PostID, c.ID)
	return nil
}

// CountByPost returns the number of comments on postID.
func (s *CommentStore) CountByPost(ctx context.Context, postID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID).Count(&n).Error
	return n, errors.Wrapf(err, "count comments of post %s", postID)
}

// Version summarizes the comment set of a post so that any insert, update or
// delete changes it. It backs the polling change feed.
func (s *CommentStore) Version(ctx context.Context, postID string) (string, error) {
	var v struct {
		Total  int64
		Latest *time.Time
	}
	err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Select("count(*) AS total, max(updated_at) AS latest").
		Where("post_id = ?", postID).
		Scan(&v).Error
	if err != nil {
		return "", errors.Wrapf(err, "version of post %s", postID)
	}
	if v.Latest == nil {
		return fmt.Sprintf("%d", v.Total), nil
	}
	return fmt.Sprintf("%d:%d", v.Total, v.Latest.UnixNano()), nil
}

func (s *CommentStore) publish(ctx context.Context, t feed.EventType, postID, commentID string) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, feed.NewEvent(t, postID, commentID)); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"post_id":    postID,
			"comment_id": commentID,
			"event":      t,
		}).Warn("publish comment change failed")
	}
}

var _ comments.RowStore = (*CommentStore)(nil)
