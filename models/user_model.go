package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FullName string    `gorm:"size:255;not null" json:"full_name"`
	Email    string    `gorm:"size:255;not null;unique" json:"email"`
	Password string    `gorm:"not null" json:"-"`
	Role     string    `gorm:"size:20;not null;default:'member'" json:"role"`

	PhoneNumber       *string `gorm:"size:20" json:"phone_number"`
	ProfilePictureURL *string `gorm:"size:255" json:"profile_picture_url"`
	PlayingLevel      *string `gorm:"size:50" json:"playing_level"`
	PreferredSide     *string `gorm:"size:20" json:"preferred_side"`

	Memberships   []CommunityMember `gorm:"foreignkey:UserID" json:"-"`
	Conversations []*Conversation   `gorm:"many2many:conversation_participants;" json:"-"`

	ResetPasswordToken          *string    `gorm:"size:255;unique" json:"-"`
	ResetPasswordTokenExpiresAt *time.Time `json:"-"`
	IsActive                    bool       `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
