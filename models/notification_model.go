package models

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID  uuid.UUID `gorm:"not null" json:"user_id"`
	Title   string    `gorm:"size:255;not null" json:"title"`
	Message string    `gorm:"type:text;not null" json:"message"`
	Kind    string    `gorm:"size:30;not null;default:'general'" json:"kind"`

	CommunityID *uuid.UUID `json:"community_id"`
	SessionID   *uuid.UUID `json:"session_id"`
	ReadAt      *time.Time `json:"read_at"`

	User User `gorm:"foreignkey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}
