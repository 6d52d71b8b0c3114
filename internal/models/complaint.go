package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ComplaintPending    = "pending"
	ComplaintInProgress = "in_progress"
	ComplaintResolved   = "resolved"
	ComplaintRejected   = "rejected"
)

var ComplaintPriorities = map[string]int{
	"low":    0,
	"medium": 1,
	"high":   2,
	"urgent": 3,
}

type Complaint struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID        string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Title         string    `gorm:"size:200;not null" json:"title"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	ImageURL      string    `json:"image_url"`
	Category      string    `gorm:"size:50;not null;default:'general'" json:"category"`
	Priority      string    `gorm:"size:20;not null;default:'medium'" json:"priority"`
	Status        string    `gorm:"size:20;not null;default:'pending';index" json:"status"`
	AdminResponse string    `gorm:"type:text" json:"admin_response"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Author *Author `gorm:"-" json:"user"`
}

func (Complaint) TableName() string {
	return "complaints"
}

func (c *Complaint) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func ValidComplaintStatus(s string) bool {
	switch s {
	case ComplaintPending, ComplaintInProgress, ComplaintResolved, ComplaintRejected:
		return true
	}
	return false
}
