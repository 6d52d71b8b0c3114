package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinMoodIntensity     = 1
	MaxMoodIntensity     = 10
	DefaultMoodIntensity = 5
)

// MoodEntry is one self-reported mood of a student.
type MoodEntry struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Mood       string    `gorm:"size:30;not null" json:"mood"`
	Note       string    `gorm:"type:text" json:"note"`
	Intensity  int       `gorm:"not null" json:"intensity"`
	RecordedAt time.Time `gorm:"not null;index" json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (MoodEntry) TableName() string {
	return "mood_tracking"
}

func (m *MoodEntry) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.RecordedAt.IsZero() {
		m.RecordedAt = time.Now()
	}
	return nil
}
