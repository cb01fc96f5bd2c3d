package models

import (
	"time"

	"github.com/google/uuid"
)

type Community struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name        string    `gorm:"size:255;not null;unique" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Location    string    `gorm:"size:255" json:"location"`
	ImageURL    *string   `gorm:"size:255" json:"image_url"`
	InviteCode  *string   `gorm:"size:10;unique" json:"invite_code"`
	ManagerID   uuid.UUID `gorm:"not null" json:"manager_id"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`

	Manager        User           `gorm:"foreignkey:ManagerID" json:"manager,omitempty"`
	SubCommunities []SubCommunity `gorm:"foreignkey:CommunityID" json:"sub_communities,omitempty"`
	Members        []CommunityMember `gorm:"foreignkey:CommunityID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SubCommunity struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CommunityID uuid.UUID `gorm:"not null" json:"community_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`

	Community Community `gorm:"foreignkey:CommunityID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}
