package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Post struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID       *string   `gorm:"type:uuid;index" json:"user_id"`
	IsAnonymous  bool      `gorm:"not null;default:false" json:"is_anonymous"`
	Title        string    `gorm:"not null" json:"title"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	Category     string    `gorm:"size:50;index" json:"category"`
	Sentiment    string    `gorm:"size:20" json:"sentiment"` // positive, negative, neutral
	Views        int       `gorm:"not null;default:0" json:"views"`
	Likes        int       `gorm:"not null;default:0" json:"likes"`
	CommentCount int       `gorm:"not null;default:0" json:"comment_count"`
	Score        float64   `gorm:"not null;default:0;index" json:"score"`
	Reactions    Reactions `gorm:"type:jsonb" json:"reactions"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// filled on read, nil for anonymous posts
	Author      *Author `gorm:"-" json:"author"`
	ContentHTML string  `gorm:"-" json:"content_html,omitempty"`
}

func (Post) TableName() string {
	return "forum_posts"
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
