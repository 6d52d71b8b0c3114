package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is a row of the forum_comments table. ParentCommentID is nil for
// top-level comments; IsAnonymous is fixed at creation.
type Comment struct {
	ID              string    `gorm:"primaryKey;type:uuid" json:"id"`
	PostID          string    `gorm:"type:uuid;not null;index:idx_comments_post_created,priority:1" json:"post_id"`
	ParentCommentID *string   `gorm:"type:uuid;index" json:"parent_comment_id"`
	UserID          *string   `gorm:"type:uuid;index" json:"user_id"`
	IsAnonymous     bool      `gorm:"not null;default:false" json:"is_anonymous"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	Likes           int       `gorm:"not null;default:0" json:"likes"`
	CreatedAt       time.Time `gorm:"index:idx_comments_post_created,priority:2" json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Comment) TableName() string {
	return "forum_comments"
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
