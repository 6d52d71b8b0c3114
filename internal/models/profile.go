package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Profile struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"` // bcrypt hash
	AvatarURL string    `json:"avatar_url"`
	FullName  string    `gorm:"size:100" json:"full_name"`
	Role      string    `gorm:"size:20;default:'user';not null" json:"role"` // user, admin
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Author is the public projection of a profile attached to comments, posts
// and complaints.
type Author struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
	FullName  string `json:"full_name,omitempty"`
}

func (p *Profile) Author() *Author {
	if p == nil {
		return nil
	}
	return &Author{Username: p.Username, AvatarURL: p.AvatarURL, FullName: p.FullName}
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
