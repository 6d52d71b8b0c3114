package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SentimentReport is a dated wellbeing summary kept by a student.
type SentimentReport struct {
	ID                  string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID              string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Date                time.Time `gorm:"type:date;not null;index" json:"date"`
	Sentiment           string    `gorm:"size:20;not null" json:"sentiment"`
	Score               float64   `gorm:"not null" json:"score"`
	ConversationSummary string    `gorm:"type:text" json:"conversation_summary"`
	Recommendations     string    `gorm:"type:text" json:"recommendations"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (SentimentReport) TableName() string {
	return "sentiment_reports"
}

func (r *SentimentReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
